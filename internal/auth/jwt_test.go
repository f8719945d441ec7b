package auth

import (
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

// =========================================================================
// GENERATE / VERIFY ROUND-TRIPS
// =========================================================================

func TestSessionToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateSession()
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	session, err := ts.VerifySession(token)
	if err != nil {
		t.Fatalf("VerifySession() error = %v", err)
	}
	if session.UserID != AdminUserID {
		t.Errorf("UserID = %q, want %q", session.UserID, AdminUserID)
	}
	if session.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", session.Role, RoleAdmin)
	}

	// Interactive sessions last 24 hours.
	ttl := session.ExpiresAt.Sub(session.IssuedAt)
	if ttl != 24*time.Hour {
		t.Errorf("session TTL = %v, want 24h", ttl)
	}
}

func TestAPIToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}

	session, err := ts.VerifyAPIToken(token)
	if err != nil {
		t.Fatalf("VerifyAPIToken() error = %v", err)
	}

	// API tokens last 30 days.
	ttl := session.ExpiresAt.Sub(session.IssuedAt)
	if ttl != 30*24*time.Hour {
		t.Errorf("API token TTL = %v, want 720h", ttl)
	}
}

// =========================================================================
// TOKEN CLASS SEPARATION
// =========================================================================

func TestSessionToken_RejectedByAPIVerify(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateSession()
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	if _, err := ts.VerifyAPIToken(token); err == nil {
		t.Error("a session token must not verify as an API token")
	}
}

func TestAPIToken_RejectedBySessionVerify(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}

	if _, err := ts.VerifySession(token); err == nil {
		t.Error("an API token must not verify as a session token")
	}
}

// =========================================================================
// REJECTION TESTS
// =========================================================================

func TestVerify_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret!!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.GenerateSession()
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	if _, err := other.VerifySession(token); err == nil {
		t.Error("a token signed with a different secret must not verify")
	}
}

func TestVerify_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ts.VerifySession(input); err == nil {
			t.Errorf("VerifySession(%q) should fail", input)
		}
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateSession()
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	// Flip a character in the payload; the signature no longer matches.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	if _, err := ts.VerifySession(string(tampered)); err == nil {
		t.Error("a tampered token must not verify")
	}
}
