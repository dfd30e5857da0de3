package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/oleanderhq/authcore"
	"github.com/oleanderhq/authcore/middleware"
)

const (
	apiUserID = "7f9c2ba4-e88f-11eb-9a03-0242ac130003"
	apiEmail  = "alice@example.com"
)

type mapDirectory struct {
	roles []string
}

func (d *mapDirectory) FindByEmail(_ context.Context, email string) (authcore.UserRecord, error) {
	if email != apiEmail {
		return authcore.UserRecord{}, authcore.ErrNotFound
	}
	return authcore.UserRecord{ID: apiUserID, Name: "Alice"}, nil
}

func (d *mapDirectory) Roles(context.Context, string) ([]string, error) {
	return d.roles, nil
}

type recordingSender struct {
	mu    sync.Mutex
	fail  bool
	codes []string
}

func (s *recordingSender) Send(_ context.Context, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	if s.fail {
		return errors.New("queue down")
	}
	return nil
}

func (s *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		t.Fatal("no code was sent")
	}
	return s.codes[len(s.codes)-1]
}

func newTestAPI(t *testing.T) (*http.ServeMux, *authcore.Engine, *recordingSender) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authcore.DefaultConfig()
	cfg.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Audit.Enabled = false

	sender := &recordingSender{}
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(&mapDirectory{roles: []string{"user", "admin"}}).
		WithSender(sender).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	mux := http.NewServeMux()
	New(engine).Register(mux)

	return mux, engine, sender
}

func post(mux *http.ServeMux, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestPreLogin(t *testing.T) {
	mux, _, sender := newTestAPI(t)

	rr := post(mux, "/auth/pre-login?e="+apiEmail)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if len(sender.codes) != 1 {
		t.Fatalf("sent codes: %d", len(sender.codes))
	}
}

func TestPreLoginMissingEmail(t *testing.T) {
	mux, _, _ := newTestAPI(t)

	if rr := post(mux, "/auth/pre-login"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPreLoginUnknownEmail(t *testing.T) {
	mux, _, _ := newTestAPI(t)

	if rr := post(mux, "/auth/pre-login?e=nobody@example.com"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPreLoginDeliveryFailure(t *testing.T) {
	mux, _, sender := newTestAPI(t)
	sender.fail = true

	if rr := post(mux, "/auth/pre-login?e="+apiEmail); rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	mux, engine, sender := newTestAPI(t)

	post(mux, "/auth/pre-login?e="+apiEmail)
	code := sender.lastCode(t)

	rr := post(mux, "/auth/login?e="+apiEmail+"&lc="+code)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		UserID    string   `json:"userId"`
		UserName  string   `json:"userName"`
		RoleNames []string `json:"roleNames"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.UserID != apiUserID || body.UserName != "Alice" || len(body.RoleNames) != 2 {
		t.Fatalf("response body: %+v", body)
	}

	access := rr.Header().Get(middleware.AccessTokenHeader)
	if access == "" {
		t.Fatal("access token header missing")
	}
	if _, err := engine.Tokens().ValidateAccessToken(access); err != nil {
		t.Fatalf("issued access token invalid: %v", err)
	}

	var refresh *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.RefreshCookieName {
			refresh = c
		}
	}
	if refresh == nil || refresh.Value == "" || !refresh.HttpOnly {
		t.Fatalf("refresh cookie: %+v", refresh)
	}

	// Codes are single use.
	if rr := post(mux, "/auth/login?e="+apiEmail+"&lc="+code); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on code reuse, got %d", rr.Code)
	}
}

func TestLoginMissingParams(t *testing.T) {
	mux, _, _ := newTestAPI(t)

	if rr := post(mux, "/auth/login?e="+apiEmail); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing code: expected 400, got %d", rr.Code)
	}
	if rr := post(mux, "/auth/login?lc=123456"); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing email: expected 400, got %d", rr.Code)
	}
}

func TestLoginExpiredCode(t *testing.T) {
	mux, engine, sender := newTestAPI(t)

	engine.Tokens().WithClock(func() time.Time { return time.Now().Add(-10 * time.Minute) })
	post(mux, "/auth/pre-login?e="+apiEmail)
	engine.Tokens().WithClock(time.Now)
	code := sender.lastCode(t)

	if rr := post(mux, "/auth/login?e="+apiEmail+"&lc="+code); rr.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rr.Code)
	}
	if rr := post(mux, "/auth/login?e="+apiEmail+"&lc="+code); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on retry, got %d", rr.Code)
	}
}

func TestLogout(t *testing.T) {
	mux, engine, sender := newTestAPI(t)

	post(mux, "/auth/pre-login?e="+apiEmail)
	rr := post(mux, "/auth/login?e="+apiEmail+"&lc="+sender.lastCode(t))

	var refresh *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.RefreshCookieName {
			refresh = c
		}
	}
	if refresh == nil {
		t.Fatal("no refresh cookie issued")
	}

	out := post(mux, "/auth/logout", refresh)
	if out.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", out.Code)
	}

	var cleared *http.Cookie
	for _, c := range out.Result().Cookies() {
		if c.Name == middleware.RefreshCookieName {
			cleared = c
		}
	}
	if cleared == nil || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("refresh cookie not cleared: %+v", cleared)
	}

	// The session is gone.
	if out := engine.Authenticate(context.Background(), "", refresh.Value); out.Authenticated {
		t.Fatal("session survived logout")
	}

	// Logout without a session still reports success.
	if out := post(mux, "/auth/logout"); out.Code != http.StatusCreated {
		t.Fatalf("expected 201 on idempotent logout, got %d", out.Code)
	}
}
