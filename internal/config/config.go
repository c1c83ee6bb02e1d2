package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	// TraceStdout prints spans to stderr when no OTLP endpoint is set.
	TraceStdout bool `yaml:"trace_stdout"`
	// PrometheusBind moves /metrics to its own listener. Empty serves it on
	// the main HTTP port.
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
	// GenerateRequestsPerMinute caps POST /api/generate; 0 disables the limit.
	GenerateRequestsPerMinute int `yaml:"generate_requests_per_minute"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	History     HistoryConfig   `yaml:"history"`
	LLM         LLMConfig       `yaml:"llm"`
	TTS         TTSConfig       `yaml:"tts"`
	Output      OutputConfig    `yaml:"output"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxEntries    int    `yaml:"max_entries"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, ollama, exec
	Endpoint    string  `yaml:"endpoint"`
	Command     string  `yaml:"command"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

type TTSConfig struct {
	Mode       string `yaml:"mode"` // mock, kokoro, exec
	Endpoint   string `yaml:"endpoint"`
	Command    string `yaml:"command"`
	Model      string `yaml:"model"`
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

type OutputConfig struct {
	Directory   string `yaml:"directory"`
	FileName    string `yaml:"file_name"`
	UniqueNames bool   `yaml:"unique_names"`
}

func Default() Config {
	return Config{
		RuntimeName: "podcaster",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 7860,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		History: HistoryConfig{
			Enabled:       true,
			Path:          "./data/podcaster.db",
			RetentionDays: 30,
			MaxEntries:    1000,
		},
		LLM: LLMConfig{
			Mode:        "ollama",
			Endpoint:    "http://localhost:11434",
			Model:       "qwen2.5:8b",
			MaxTokens:   0,
			Temperature: 0,
			TimeoutMS:   120000,
		},
		TTS: TTSConfig{
			Mode:       "kokoro",
			Endpoint:   "http://localhost:8880",
			Model:      "kokoro",
			Voice:      "af_heart",
			SampleRate: 24000,
			Channels:   1,
			TimeoutMS:  300000,
		},
		Output: OutputConfig{
			Directory: "audios",
			FileName:  "audio.wav",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "PODCASTER_RUNTIME_NAME")
	overrideString(&cfg.Environment, "PODCASTER_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "PODCASTER_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "PODCASTER_HTTP_PORT")
	overrideInt(&cfg.HTTP.GenerateRequestsPerMinute, "PODCASTER_HTTP_GENERATE_RPM")
	overrideString(&cfg.Telemetry.LogLevel, "PODCASTER_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PODCASTER_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PODCASTER_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Telemetry.TraceStdout, "PODCASTER_TELEMETRY_TRACE_STDOUT")
	overrideString(&cfg.Telemetry.PrometheusBind, "PODCASTER_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "PODCASTER_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "PODCASTER_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "PODCASTER_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "PODCASTER_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "PODCASTER_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "PODCASTER_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "PODCASTER_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "PODCASTER_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "PODCASTER_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "PODCASTER_BUS_CONNECT_TIMEOUT_MS")
	overrideBool(&cfg.History.Enabled, "PODCASTER_HISTORY_ENABLED")
	overrideString(&cfg.History.Path, "PODCASTER_HISTORY_PATH")
	overrideInt(&cfg.History.RetentionDays, "PODCASTER_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxEntries, "PODCASTER_HISTORY_MAX_ENTRIES")
	overrideBool(&cfg.History.VacuumOnStart, "PODCASTER_HISTORY_VACUUM_ON_START")
	overrideString(&cfg.LLM.Mode, "PODCASTER_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "PODCASTER_LLM_ENDPOINT")
	overrideString(&cfg.LLM.Command, "PODCASTER_LLM_COMMAND")
	overrideString(&cfg.LLM.Model, "PODCASTER_LLM_MODEL")
	overrideInt(&cfg.LLM.MaxTokens, "PODCASTER_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "PODCASTER_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "PODCASTER_LLM_TIMEOUT_MS")
	overrideString(&cfg.TTS.Mode, "PODCASTER_TTS_MODE")
	overrideString(&cfg.TTS.Endpoint, "PODCASTER_TTS_ENDPOINT")
	overrideString(&cfg.TTS.Command, "PODCASTER_TTS_COMMAND")
	overrideString(&cfg.TTS.Model, "PODCASTER_TTS_MODEL")
	overrideString(&cfg.TTS.Voice, "PODCASTER_TTS_VOICE")
	overrideInt(&cfg.TTS.SampleRate, "PODCASTER_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.Channels, "PODCASTER_TTS_CHANNELS")
	overrideInt(&cfg.TTS.TimeoutMS, "PODCASTER_TTS_TIMEOUT_MS")
	overrideString(&cfg.Output.Directory, "PODCASTER_OUTPUT_DIRECTORY")
	overrideString(&cfg.Output.FileName, "PODCASTER_OUTPUT_FILE_NAME")
	overrideBool(&cfg.Output.UniqueNames, "PODCASTER_OUTPUT_UNIQUE_NAMES")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.HTTP.GenerateRequestsPerMinute < 0 {
		return errors.New("http.generate_requests_per_minute must be >= 0")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.History.Enabled {
		if cfg.History.Path == "" {
			return errors.New("history.path must not be empty when history is enabled")
		}
		if cfg.History.RetentionDays < 0 {
			return errors.New("history.retention_days must be >= 0")
		}
		if cfg.History.MaxEntries < 0 {
			return errors.New("history.max_entries must be >= 0")
		}
	}
	switch cfg.LLM.Mode {
	case "mock", "ollama", "exec":
	default:
		return errors.New("llm.mode must be one of mock|ollama|exec")
	}
	if cfg.LLM.Mode == "ollama" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=ollama")
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if cfg.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens must be >= 0")
	}
	switch cfg.TTS.Mode {
	case "mock", "kokoro", "exec":
	default:
		return errors.New("tts.mode must be one of mock|kokoro|exec")
	}
	if cfg.TTS.Mode == "kokoro" && cfg.TTS.Endpoint == "" {
		return errors.New("tts.endpoint must be set when mode=kokoro")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.Voice == "" {
		return errors.New("tts.voice must not be empty")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.Channels <= 0 {
		return errors.New("tts.channels must be positive")
	}
	if cfg.Output.Directory == "" {
		return errors.New("output.directory must not be empty")
	}
	// The pre-clean and the audio route match the lowercase extension only.
	if !strings.HasSuffix(cfg.Output.FileName, ".wav") || strings.HasPrefix(cfg.Output.FileName, ".") {
		return errors.New("output.file_name must name a .wav file (lowercase extension, no leading dot)")
	}
	if strings.ContainsAny(cfg.Output.FileName, `/\`) {
		return errors.New("output.file_name must not contain path separators")
	}
	return nil
}
