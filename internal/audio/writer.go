package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/loqalabs/podcaster/internal/config"
)

const extension = ".wav"

// Writer owns the output directory. It keeps exactly one .wav file there: every
// write removes the previous ones first.
type Writer struct {
	dir        string
	fileName   string
	unique     bool
	sampleRate int
	newID      func() string
}

func NewWriter(cfg config.OutputConfig, sampleRate int) *Writer {
	return &Writer{
		dir:        cfg.Directory,
		fileName:   cfg.FileName,
		unique:     cfg.UniqueNames,
		sampleRate: sampleRate,
		newID:      uuid.NewString,
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// EnsureDir creates the output directory if it is missing.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// Clean deletes every .wav file in the output directory, whatever its name.
func (w *Writer) Clean() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("list output dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale audio: %w", err)
		}
	}
	return nil
}

// Write replaces the directory's audio with pcm and returns the new path.
// pcm is 16-bit little-endian, interleaved when channels > 1.
func (w *Writer) Write(pcm []byte, channels int) (string, error) {
	if channels <= 0 {
		channels = 1
	}
	if len(pcm)%(2*channels) != 0 {
		return "", fmt.Errorf("pcm payload not aligned")
	}
	if err := w.EnsureDir(); err != nil {
		return "", err
	}
	if err := w.Clean(); err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, w.name())
	tmp, err := os.CreateTemp(w.dir, ".podcaster-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writePCMToWav(tmp, pcm, w.sampleRate, channels); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move audio into place: %w", err)
	}
	return path, nil
}

func (w *Writer) name() string {
	if !w.unique {
		return w.fileName
	}
	base := strings.TrimSuffix(w.fileName, filepath.Ext(w.fileName))
	return base + "-" + w.newID() + extension
}

func writePCMToWav(file *os.File, pcm []byte, sampleRate int, channels int) error {
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	samples := make([]int, len(pcm)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
