package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/loqalabs/podcaster/internal/bus"
	"github.com/loqalabs/podcaster/internal/protocol"
	"github.com/nats-io/nats.go"
)

// Service answers generation requests on the bus and broadcasts an event for
// each attempt.
type Service struct {
	bus    *bus.Client
	gen    Generator
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
	clock  func() time.Time
}

func NewService(parent context.Context, busClient *bus.Client, gen Generator, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:    busClient,
		gen:    gen,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "bus-transport")),
		clock:  time.Now,
	}
}

func (s *Service) Start() error {
	s.ensureStream()
	sub, err := s.bus.Conn().QueueSubscribe(protocol.SubjectGenerate, protocol.QueueWorkers, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Info("listening for generation requests", slog.String("subject", protocol.SubjectGenerate))
	return nil
}

// ensureStream keeps generation events in JetStream when the server offers
// it. Core subscribers receive them either way.
func (s *Service) ensureStream() {
	js := s.bus.JetStream()
	if js == nil {
		return
	}
	_, err := js.StreamInfo(protocol.StreamEvents)
	if err == nil {
		return
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.Info("jetstream unavailable, events are not retained", slogError(err))
		return
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     protocol.StreamEvents,
		Subjects: []string{protocol.SubjectGenerated},
		MaxAge:   7 * 24 * time.Hour,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		s.logger.Warn("failed to create event stream", slogError(err))
	}
}

// Close stops accepting requests and waits for in-flight generations.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil && s.bus.Healthy() }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.GenerateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode generation request", slogError(err))
		s.respond(msg, protocol.GenerateReply{Status: "Error: invalid request", ErrorKind: "invalid_request"})
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.respond(msg, protocol.GenerateReply{Status: "Error: service is shutting down", ErrorKind: "unavailable"})
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		res := s.gen.Generate(s.ctx, toRequest(req))
		reply := toReply(res)
		s.respond(msg, reply)
		s.publishEvent(req, reply)
	}()
}

func (s *Service) respond(msg *nats.Msg, reply protocol.GenerateReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to marshal reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to send reply", slogError(err))
	}
}

func (s *Service) publishEvent(req protocol.GenerateRequest, reply protocol.GenerateReply) {
	event := protocol.GenerationEvent{
		ID:         reply.ID,
		Language:   req.Language,
		Succeeded:  reply.ErrorKind == "",
		Summarized: reply.Summarized,
		AudioPath:  reply.AudioPath,
		ErrorKind:  reply.ErrorKind,
		Timestamp:  s.clock().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectGenerated, data); err != nil {
		s.logger.Warn("failed to publish event", slogError(err))
	}
}
