package authcore

import (
	"context"
	"io"

	internalaudit "github.com/oleanderhq/authcore/internal/audit"
	"github.com/oleanderhq/authcore/token"
)

// UserRecord is the directory's view of a user: the stable id (UUID string
// form) and the display name surfaced in login responses.
type UserRecord struct {
	ID   string
	Name string
}

// UserDirectory is the external user database consumed by the orchestrator.
// Implementations must return [ErrNotFound] (or an error wrapping it) for
// unknown emails.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	Roles(ctx context.Context, userID string) ([]string, error)
}

// Sender dispatches an issued login code to the user. Failures surface as
// delivery errors; the code itself stays valid.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// Session is returned by [Engine.CompleteLogin]: the identity snapshot plus
// the freshly issued credential pair.
type Session struct {
	UserID       string
	UserName     string
	Roles        []string
	AccessToken  string
	RefreshToken string
}

// Outcome is the per-request authorization decision produced by
// [Engine.Authenticate]. It is never stored. When Renewed is set, the
// caller must propagate the new credential pair to the client.
type Outcome struct {
	Authenticated bool
	Payload       token.Payload
	Renewed       bool
	AccessToken   string
	RefreshToken  string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
