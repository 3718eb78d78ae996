package app

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const sessionSubject = "admin"

// sessionIssuer issues and validates HS256 admin session tokens. The admin
// gate is a single shared secret, so tokens carry no per-user identity.
type sessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newSessionIssuer(secret string, ttl time.Duration) *sessionIssuer {
	return &sessionIssuer{secret: []byte(secret), ttl: ttl}
}

// NewSession creates a signed token valid for the configured TTL.
func (s *sessionIssuer) NewSession() (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify validates the signature, expiry, and subject of a session token.
func (s *sessionIssuer) Verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != sessionSubject {
		return errors.New("invalid session subject")
	}
	return nil
}
