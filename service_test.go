package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/oleanderhq/authcore/store"
	"github.com/oleanderhq/authcore/token"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

const (
	testUserAlice = "7f9c2ba4-e88f-11eb-9a03-0242ac130003"
	testUserBob   = "b2f1c0de-0a11-4c6e-8f1d-55aa66bb77cc"
)

func newTestService(t *testing.T) (*Service, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := DefaultConfig()
	cfg.SigningKey = testSigningKey
	cfg.RedisPrefix = "t"

	signer, err := token.NewSigner(cfg.SigningKey, cfg.Issuer)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	return NewService(cfg, signer, store.New(client, cfg.RedisPrefix)), client
}

func TestIssueAndConsumeLoginCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.IssueLoginCode(ctx, testUserAlice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != svc.cfg.CodeDigits {
		t.Fatalf("code length: got %d want %d", len(code), svc.cfg.CodeDigits)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("code %q contains non-digit", code)
		}
	}

	uid, err := svc.ConsumeLoginCode(ctx, code)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if uid != testUserAlice {
		t.Fatalf("owner mismatch: got %q", uid)
	}

	if _, err := svc.ConsumeLoginCode(ctx, code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestConsumeExpiredLoginCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Issue in the past so the code's deadline has already passed while the
	// Redis key is still alive.
	svc.WithClock(func() time.Time { return time.Now().Add(-10 * time.Minute) })
	code, err := svc.IssueLoginCode(ctx, testUserAlice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.ConsumeLoginCode(ctx, code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := svc.ConsumeLoginCode(ctx, code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on retry, got %v", err)
	}
}

func TestIssueSessionRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roles := []string{"user", "admin"}

	access, refresh, err := svc.IssueSession(ctx, testUserAlice, roles)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	payload, err := svc.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if payload.UserID != testUserAlice {
		t.Fatalf("user id mismatch: got %q", payload.UserID)
	}
	if !payload.HasRole("admin") || payload.HasRole("superadmin") {
		t.Fatalf("role snapshot mismatch: %v", payload.Roles)
	}

	uid, err := svc.RenewSession(ctx, refresh)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if uid != testUserAlice {
		t.Fatalf("renew owner mismatch: got %q", uid)
	}
}

func TestIssueSessionDisplacesPrior(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.IssueSession(ctx, testUserAlice, nil)
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	_, second, err := svc.IssueSession(ctx, testUserAlice, nil)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}

	if _, err := svc.RenewSession(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected displaced token to be dead, got %v", err)
	}
	if _, err := svc.RenewSession(ctx, second); err != nil {
		t.Fatalf("active token: %v", err)
	}

	// Sessions for other users are untouched.
	_, bobToken, err := svc.IssueSession(ctx, testUserBob, nil)
	if err != nil {
		t.Fatalf("bob session: %v", err)
	}
	if _, err := svc.RenewSession(ctx, second); err != nil {
		t.Fatalf("alice token after bob login: %v", err)
	}
	if _, err := svc.RenewSession(ctx, bobToken); err != nil {
		t.Fatalf("bob token: %v", err)
	}
}

func TestIssueSessionConcurrentSingleActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var (
		tokens [workers]string
		wg     sync.WaitGroup
		start  = make(chan struct{})
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			<-start

			_, refresh, err := svc.IssueSession(ctx, testUserAlice, []string{"user"})
			if err != nil {
				t.Errorf("issue %d: %v", i, err)
				return
			}
			tokens[i] = refresh
		}(i)
	}

	close(start)
	wg.Wait()

	// However the writes interleave, exactly one token survives.
	active := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, err := svc.RenewSession(ctx, tok); err == nil {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active session count: got %d want 1", active)
	}
}

func TestIssueSessionBadRolesKeepsPriorSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, refresh, err := svc.IssueSession(ctx, testUserAlice, []string{"user"})
	if err != nil {
		t.Fatalf("first session: %v", err)
	}

	// A role name the payload codec rejects must fail before anything is
	// written, leaving the existing session untouched.
	_, _, err = svc.IssueSession(ctx, testUserAlice, []string{"Bad:Role"})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}

	if _, err := svc.RenewSession(ctx, refresh); err != nil {
		t.Fatalf("prior session was displaced: %v", err)
	}
}

func TestRenewSessionDoesNotConsume(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, refresh, err := svc.IssueSession(ctx, testUserAlice, nil)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.RenewSession(ctx, refresh); err != nil {
			t.Fatalf("renew %d: %v", i, err)
		}
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, refresh, err := svc.IssueSession(ctx, testUserAlice, nil)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	if err := svc.EndSession(ctx, refresh); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := svc.RenewSession(ctx, refresh); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after end, got %v", err)
	}
	if err := svc.EndSession(ctx, refresh); err != nil {
		t.Fatalf("second end: %v", err)
	}
}

func TestCorruptRecordSurfacesAsNotFound(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	// Seed a blob the record codec cannot parse. The store reports it as
	// corrupt; the service hides that behind not-found.
	if err := client.Set(ctx, "t:lc:123456", "garbage", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.ConsumeLoginCode(ctx, "123456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for corrupt record, got %v", err)
	}
}
