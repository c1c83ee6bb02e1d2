package transport

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/loqalabs/podcaster/internal/podcast"
	"github.com/loqalabs/podcaster/internal/protocol"
)

// Generator is the pipeline entry point both transports drive.
type Generator interface {
	Generate(ctx context.Context, req podcast.Request) podcast.Result
}

func toRequest(req protocol.GenerateRequest) podcast.Request {
	return podcast.Request{Language: req.Language, Text: req.Text, Summarize: req.Summarize}
}

func toReply(res podcast.Result) protocol.GenerateReply {
	reply := protocol.GenerateReply{
		ID:         res.ID,
		Status:     res.Status,
		AudioPath:  res.Path,
		Summarized: res.Summarized,
		ErrorKind:  podcast.Kind(res.Err),
	}
	if res.Path != "" {
		reply.AudioURL = "/audio/" + filepath.Base(res.Path)
	}
	return reply
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
