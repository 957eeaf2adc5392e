package lmsapi

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource issues JWTs for the enterprise worker user and hands out the
// current one until it expires, at which point the next call builds a fresh
// token. Safe for concurrent use.
type TokenSource struct {
	secret   []byte
	issuer   string
	username string
	lifetime time.Duration
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given worker user
func NewTokenSource(cfg *Config) *TokenSource {
	lifetime := cfg.TokenLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	return &TokenSource{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		username: cfg.WorkerUsername,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Token returns a valid signed token, rebuilding it when the current one expired
func (s *TokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	now := s.now()
	expiresAt := now.Add(s.lifetime)
	claims := jwt.MapClaims{
		"iss":                s.issuer,
		"sub":                s.username,
		"preferred_username": s.username,
		"iat":                now.Unix(),
		"exp":                expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("lmsapi: failed to sign token: %w", err)
	}

	s.token = signed
	s.expiresAt = expiresAt
	return signed, nil
}

// Expired reports whether the cached token has passed its expiry
func (s *TokenSource) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == "" || !s.now().Before(s.expiresAt)
}
