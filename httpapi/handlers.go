package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	authcore "github.com/oleanderhq/authcore"
	"github.com/oleanderhq/authcore/middleware"
)

// API serves the login endpoints for one engine.
type API struct {
	engine *authcore.Engine
}

// New creates the login API.
func New(engine *authcore.Engine) *API {
	return &API{engine: engine}
}

// Register mounts the auth endpoints on mux. The logout route must also sit
// behind the authorizer's "/auth/logout" rule; Register only wires the
// handler.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/pre-login", a.preLogin)
	mux.HandleFunc("POST /auth/login", a.login)
	mux.HandleFunc("POST /auth/logout", a.logout)
}

type loginResponse struct {
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	RoleNames []string `json:"roleNames"`
}

func (a *API) preLogin(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("e")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	if err := a.engine.RequestLogin(r.Context(), email); err != nil {
		writeFlowError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("e")
	code := r.URL.Query().Get("lc")
	if email == "" || code == "" {
		http.Error(w, "missing email or login code", http.StatusBadRequest)
		return
	}

	sess, err := a.engine.CompleteLogin(r.Context(), email, code)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	middleware.WriteTokenPair(w, sess.AccessToken, sess.RefreshToken, a.engine.Config().RefreshTTL)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(loginResponse{
		UserID:    sess.UserID,
		UserName:  sess.UserName,
		RoleNames: sess.Roles,
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.engine.EndLogin(r.Context(), middleware.RefreshTokenFromRequest(r))
	middleware.ClearRefreshCookie(w)
	w.WriteHeader(http.StatusCreated)
}

func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authcore.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, authcore.ErrExpired):
		http.Error(w, "expired", http.StatusGone)
	case errors.Is(err, authcore.ErrDelivery):
		http.Error(w, "delivery failed", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
