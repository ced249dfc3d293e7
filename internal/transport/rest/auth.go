package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/internal/user"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (user.User, error)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthHandler struct {
	*transport.BaseHandler
	accounts Authenticator
	sessions session.Manager
	ttl      time.Duration
}

func NewAuthHandler(base *transport.BaseHandler, accounts Authenticator, sessions session.Manager, ttl time.Duration) *AuthHandler {
	return &AuthHandler{BaseHandler: base, accounts: accounts, sessions: sessions, ttl: ttl}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.WriteError(w, r, internal.ErrInvalidCredentials)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), u.Name())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	expiresAt := time.Now().Add(h.ttl)
	http.SetCookie(w, &http.Cookie{
		Name:     transport.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  expiresAt,
	})
	h.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, Username: u.Name(), ExpiresAt: expiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := internal.SessionTokenFromContext(r.Context())
	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		h.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     transport.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
