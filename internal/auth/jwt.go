// Package auth is the authorization gate for the admin surface.
//
// There is a single admin identity, authenticated by password. A successful
// login yields a signed JWT; every later request proves itself with that
// token, so no session state is kept server-side.
//
// Two token classes exist, distinguished by the "sub" claim:
//
//	admin-session — 24h, issued at login, carried in an HttpOnly cookie
//	api-session   — 30d, issued on request, carried as a Bearer header
//
// The subject is enforced at verification time, so a stolen interactive
// cookie can't be replayed as a long-lived API token and vice versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer         = "gift-registry-admin"
	subjectSession = "admin-session"
	subjectAPI     = "api-session"

	// AdminUserID is the fixed subject id: the registry has exactly one admin.
	AdminUserID = "admin"

	// RoleAdmin is the only role tokens currently carry. Verification still
	// checks it so a future second role can't slip through unexamined.
	RoleAdmin = "admin"

	// SessionTTL bounds an interactive session; it doubles as the login
	// cookie's lifetime.
	SessionTTL = 24 * time.Hour

	// APITokenTTL bounds a scripted-client token.
	APITokenTTL = 30 * 24 * time.Hour
)

// AdminSession is the verified identity derived from a valid admin token.
// It is what privileged service operations receive as proof of authority.
type AdminSession struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// claims is the JWT payload: the role plus the registered claims (issuer,
// subject, issued-at, expiry).
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies admin tokens.
//
// The HMAC secret is injected here, at construction — nothing in this
// package reads process environment. main.go owns configuration.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// GenerateSession issues a 24-hour interactive session token.
func (s *TokenService) GenerateSession() (string, error) {
	return s.generate(subjectSession, SessionTTL)
}

// GenerateAPIToken issues a 30-day API token for scripted clients.
func (s *TokenService) GenerateAPIToken() (string, error) {
	return s.generate(subjectAPI, APITokenTTL)
}

func (s *TokenService) generate(subject string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// VerifySession validates an interactive session token. An api-session token
// fails here on the subject check.
func (s *TokenService) VerifySession(tokenStr string) (*AdminSession, error) {
	return s.verify(tokenStr, subjectSession)
}

// VerifyAPIToken validates a long-lived API token. An admin-session token
// fails here on the subject check.
func (s *TokenService) VerifyAPIToken(tokenStr string) (*AdminSession, error) {
	return s.verify(tokenStr, subjectAPI)
}

// verify parses and checks a token: signature, HS256 only (no algorithm
// confusion), our issuer, the expected token-class subject, and expiry.
func (s *TokenService) verify(tokenStr, subject string) (*AdminSession, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	session := &AdminSession{
		UserID: AdminUserID,
		Role:   c.Role,
	}
	if c.IssuedAt != nil {
		session.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}

	return session, nil
}
