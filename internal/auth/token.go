// Package auth issues the service tokens accepted by the API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a token when none is given.
const DefaultTTL = 30 * 24 * time.Hour

// ErrEmptySubject is returned when a token would not identify its caller.
var ErrEmptySubject = errors.New("token subject required")

// IssueToken signs an HS256 token identifying subject, e.g. an analyzer worker.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
