package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/handler"
)

const testAdminPassword = "correct horse battery staple"

func newAuthHandler(t *testing.T) (*handler.AuthHandler, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-0123456789abcdef")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	// MinCost keeps the hash fast; production uses the default cost.
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	hash, err := passwords.Hash(testAdminPassword)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return handler.NewAuthHandler(tokens, passwords, hash, logger), tokens
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	h, tokens := newAuthHandler(t)

	t.Run("correct password sets a verifiable session cookie", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"password": testAdminPassword})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := sessionCookie(rr)
		if assert.NotNil(t, cookie) {
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
			assert.Equal(t, int(auth.SessionTTL.Seconds()), cookie.MaxAge)

			session, err := tokens.VerifySession(cookie.Value)
			assert.NoError(t, err)
			assert.Equal(t, auth.RoleAdmin, session.Role)

			// The login cookie must not double as a long-lived API token.
			_, err = tokens.VerifyAPIToken(cookie.Value)
			assert.Error(t, err)
		}
	})

	t.Run("wrong password answers 401 without a cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			bytes.NewBufferString(`{"password":"nope"}`))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			bytes.NewBufferString(`{"password":`))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h, _ := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	rr := httptest.NewRecorder()

	h.HandleLogout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cookie := sessionCookie(rr)
	if assert.NotNil(t, cookie) {
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
	}
}

func TestAuthHandler_CreateToken(t *testing.T) {
	h, tokens := newAuthHandler(t)

	req := adminRequest(httptest.NewRequest(http.MethodPost, "/api/admin/tokens", nil))
	rr := httptest.NewRecorder()

	h.HandleCreateToken(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var res struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.NotEmpty(t, res.Token)

	// It verifies as an API token and only as an API token.
	_, err := tokens.VerifyAPIToken(res.Token)
	assert.NoError(t, err)
	_, err = tokens.VerifySession(res.Token)
	assert.Error(t, err)
}

func TestAuthHandler_Me(t *testing.T) {
	h, _ := newAuthHandler(t)

	t.Run("with session", func(t *testing.T) {
		req := adminRequest(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
		rr := httptest.NewRecorder()

		h.HandleMe(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"userId":"admin"`)
	})

	t.Run("without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		rr := httptest.NewRecorder()

		h.HandleMe(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
