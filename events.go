package goGrant

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/goGrant/internal/flows"
	"github.com/rs/zerolog"
)

// Event names.
const (
	// EventUserAuthenticationFailed is raised when the password grant rejects the
	// resource owner credentials.
	EventUserAuthenticationFailed = flows.EventUserAuthenticationFailed
	// EventRefreshTokenConsumed is raised when an already consumed refresh token is
	// presented again.
	EventRefreshTokenConsumed = flows.EventRefreshTokenConsumed
)

// Event is a notification raised while a grant runs. Events are returned on the
// Result or OAuthError and relayed to the configured EventSink.
type Event struct {
	Name       string            `json:"name"`
	Timestamp  time.Time         `json:"timestamp"`
	GrantType  string            `json:"grant_type"`
	ClientID   string            `json:"client_id,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events from the dispatcher goroutine.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LoggerSink logs events at warn level.
type LoggerSink struct {
	logger zerolog.Logger
}

func NewLoggerSink(logger zerolog.Logger) LoggerSink {
	return LoggerSink{logger: logger}
}

func (s LoggerSink) Emit(_ context.Context, event Event) {
	ev := s.logger.Warn().
		Str("event", event.Name).
		Str("grant_type", event.GrantType).
		Str("client_id", event.ClientID).
		Time("at", event.Timestamp)
	if event.RemoteAddr != "" {
		ev = ev.Str("remote_addr", event.RemoteAddr)
	}
	for k, v := range event.Metadata {
		ev = ev.Str(k, v)
	}
	ev.Msg("grant event")
}
