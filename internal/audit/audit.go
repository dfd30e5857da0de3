package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Kind names one of the login-flow events the engine audits.
type Kind string

const (
	// KindLoginRequest covers code issuance and dispatch.
	KindLoginRequest Kind = "login.request"
	// KindLoginComplete covers the code-for-session exchange.
	KindLoginComplete Kind = "login.complete"
	// KindLoginEnd covers logout.
	KindLoginEnd Kind = "login.end"
	// KindAuthenticate covers per-request access-token decisions.
	KindAuthenticate Kind = "authenticate"
	// KindRenew covers refresh-driven session renewals.
	KindRenew Kind = "authenticate.renew"
)

// Event is the canonical audit record emitted by the engine's flows.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType Kind              `json:"event_type"`
	EventID   string            `json:"event_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
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

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
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
