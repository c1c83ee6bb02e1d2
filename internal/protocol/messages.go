package protocol

import "time"

// GenerateRequest asks the service to turn text into a podcast.
type GenerateRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Language  string `json:"language"`
	Text      string `json:"text"`
	Summarize bool   `json:"summarize"`
}

// GenerateReply is returned for every request, successful or not.
type GenerateReply struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	AudioPath  string `json:"audio_path,omitempty"`
	AudioURL   string `json:"audio_url,omitempty"`
	Summarized bool   `json:"summarized"`
	ErrorKind  string `json:"error_kind,omitempty"`
}

// GenerationEvent is broadcast after each generation attempt.
type GenerationEvent struct {
	ID         string    `json:"id"`
	Language   string    `json:"language"`
	Succeeded  bool      `json:"succeeded"`
	Summarized bool      `json:"summarized"`
	AudioPath  string    `json:"audio_path,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	SubjectGenerate  = "podcast.generate"
	SubjectGenerated = "podcast.generated"

	// StreamEvents retains generation events when JetStream is available.
	StreamEvents = "PODCAST_EVENTS"
	QueueWorkers = "podcaster"
)
