package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/gift-registry/internal/apperror"
	"github.com/sakif/gift-registry/internal/auth"
)

// AuthHandler manages the admin login flow and API token issuance.
//
//   - HandleLogin  → check the password, set the session cookie
//   - HandleLogout → clear the session cookie
//   - HandleCreateToken → issue a 30-day Bearer token for scripted clients
//   - HandleMe → echo the verified admin identity
type AuthHandler struct {
	tokens       *auth.TokenService
	passwords    *auth.PasswordService
	passwordHash string
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. passwordHash is the bcrypt hash of
// the admin password, injected from configuration — the plaintext password
// exists nowhere on the server.
func NewAuthHandler(
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	passwordHash string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		tokens:       tokens,
		passwords:    passwords,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin verifies the admin password and establishes a session.
//
// HTTP: POST /api/admin/login
// BODY: {"password": "..."}
//
// The session lives in an HttpOnly SameSite=Strict cookie: JavaScript can't
// read it and cross-site requests don't carry it. A wrong password answers
// the same 401 as an unknown one; nothing in the response says which.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.passwords.Verify(h.passwordHash, req.Password); err != nil {
		h.logger.Warn("admin login failed", slog.String("remote", r.RemoteAddr))
		writeError(w, apperror.Unauthorized("invalid password"))
		return
	}

	tokenStr, err := h.tokens.GenerateSession()
	if err != nil {
		h.logger.Error("session token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		// Secure: true behind HTTPS; left off for local dev.
	})

	h.logger.Info("admin logged in", slog.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/admin/logout
//
// Stateless tokens can't be revoked, so logout is purely client-side: the
// cookie is deleted and the browser loses the token. It stays technically
// valid until its 24h expiry.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleCreateToken issues a long-lived API token.
//
// HTTP: POST /api/admin/tokens
// Auth: RequireAdmin — only an already-authenticated admin can mint one.
//
// The token is returned once in the response body and never stored; the
// caller is responsible for keeping it.
func (h *AuthHandler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	tokenStr, err := h.tokens.GenerateAPIToken()
	if err != nil {
		h.logger.Error("API token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.logger.Info("API token issued", slog.String("remote", r.RemoteAddr))

	writeJSON(w, http.StatusCreated, tokenResponse{
		Token:     tokenStr,
		ExpiresAt: time.Now().Add(auth.APITokenTTL),
	})
}

// HandleMe returns the verified admin identity. The frontend uses it to
// check authentication state on load.
//
// HTTP: GET /api/admin/me
// Auth: RequireAdmin.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.AdminFromContext(r.Context())
	if !ok {
		// Unreachable on a protected route; answer correctly anyway.
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
