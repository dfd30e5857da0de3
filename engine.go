package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	internalaudit "github.com/oleanderhq/authcore/internal/audit"
	"github.com/oleanderhq/authcore/token"
)

// Engine is the auth orchestrator: it composes [Service] operations into the
// user-facing flows and the per-request authenticate-and-possibly-refresh
// decision, consulting the external user directory and notification sender.
type Engine struct {
	cfg       Config
	tokens    *Service
	directory UserDirectory
	sender    Sender
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Tokens exposes the underlying token and code service.
func (e *Engine) Tokens() *Service {
	return e.tokens
}

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	e.audit.Close()
}

// RequestLogin resolves the email through the user directory, issues a login
// code, and dispatches it via the notification sender. A dispatch failure
// surfaces as [ErrDelivery] and does not roll back the issued code: the user
// can be re-notified without re-issuing.
func (e *Engine) RequestLogin(ctx context.Context, email string) error {
	rec, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		e.emit(ctx, internalaudit.KindLoginRequest, "", email, err)
		return err
	}

	code, err := e.tokens.IssueLoginCode(ctx, rec.ID)
	if err != nil {
		e.emit(ctx, internalaudit.KindLoginRequest, rec.ID, email, err)
		return err
	}
	e.metrics.Inc(MetricCodeIssued)

	if err := e.sender.Send(ctx, email, code); err != nil {
		e.metrics.Inc(MetricCodeDeliveryFailure)
		e.emit(ctx, internalaudit.KindLoginRequest, rec.ID, email, err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	e.emit(ctx, internalaudit.KindLoginRequest, rec.ID, email, nil)
	return nil
}

// CompleteLogin exchanges an (email, code) pair for a session. The email and
// the code resolve to a user independently; a mismatch between the two is
// reported as [ErrNotFound] so the caller cannot tell which check failed.
func (e *Engine) CompleteLogin(ctx context.Context, email, code string) (*Session, error) {
	rec, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, internalaudit.KindLoginComplete, "", email, err)
		return nil, err
	}

	owner, err := e.tokens.ConsumeLoginCode(ctx, code)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, internalaudit.KindLoginComplete, rec.ID, email, err)
		return nil, err
	}
	if owner != rec.ID {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, internalaudit.KindLoginComplete, rec.ID, email, ErrNotFound)
		return nil, ErrNotFound
	}

	roles, err := e.directory.Roles(ctx, rec.ID)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, internalaudit.KindLoginComplete, rec.ID, email, err)
		return nil, err
	}

	access, refresh, err := e.tokens.IssueSession(ctx, rec.ID, roles)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, internalaudit.KindLoginComplete, rec.ID, email, err)
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emit(ctx, internalaudit.KindLoginComplete, rec.ID, email, nil)

	return &Session{
		UserID:       rec.ID,
		UserName:     rec.Name,
		Roles:        roles,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// EndLogin terminates the session for refreshToken. It always reports
// success to the transport layer; store trouble is recorded in the audit
// trail only.
func (e *Engine) EndLogin(ctx context.Context, refreshToken string) {
	err := e.tokens.EndSession(ctx, refreshToken)
	e.metrics.Inc(MetricLogout)
	e.emit(ctx, internalaudit.KindLoginEnd, "", "", err)
}

// Authenticate decides a single request:
//
//  1. A valid access token authenticates the request as-is.
//  2. An absent or expired access token falls through to the refresh token;
//     renewal re-reads the user's current roles and issues a fresh
//     access+refresh pair, which the caller must propagate to the client.
//     Rotating the refresh token on every renewal bounds session abuse.
//  3. Anything else — bad signature, unknown or expired refresh token —
//     leaves the request unauthenticated.
//
// Failures never propagate as errors; they are folded into the outcome.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) Outcome {
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	if accessToken != "" {
		payload, err := e.tokens.ValidateAccessToken(accessToken)
		if err == nil {
			return Outcome{Authenticated: true, Payload: payload}
		}
		if !errors.Is(err, token.ErrExpired) {
			// Tampering or corruption. Fatal regardless of the refresh token.
			e.metrics.Inc(MetricAuthDenied)
			e.emit(ctx, internalaudit.KindAuthenticate, "", "", err)
			return Outcome{}
		}
	}

	if refreshToken == "" {
		e.metrics.Inc(MetricAuthDenied)
		return Outcome{}
	}

	userID, err := e.tokens.RenewSession(ctx, refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.emit(ctx, internalaudit.KindRenew, "", "", err)
		return Outcome{}
	}

	roles, err := e.directory.Roles(ctx, userID)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.emit(ctx, internalaudit.KindRenew, userID, "", err)
		return Outcome{}
	}

	access, refresh, err := e.tokens.IssueSession(ctx, userID, roles)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.emit(ctx, internalaudit.KindRenew, userID, "", err)
		return Outcome{}
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, internalaudit.KindRenew, userID, "", nil)

	return Outcome{
		Authenticated: true,
		Payload:       token.Payload{UserID: userID, Roles: roles},
		Renewed:       true,
		AccessToken:   access,
		RefreshToken:  refresh,
	}
}

func (e *Engine) emit(ctx context.Context, kind internalaudit.Kind, userID, email string, err error) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: kind,
		EventID:   uuid.NewString(),
		UserID:    userID,
		Email:     email,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}
