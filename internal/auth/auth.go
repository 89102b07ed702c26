// Package auth gates the admin area: it checks credentials, issues session
// tokens and remembers who is signed in across restarts.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a login failure. Unknown identifiers and
	// wrong secrets produce the same error.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates an invalid, expired or missing session.
	ErrUnauthorized = errors.New("unauthorized")
)

// User identifies the signed-in administrator.
type User struct {
	Email string `json:"email"`
}

// Session is the outcome of a successful credential check.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Verifier checks an identifier/secret pair.
type Verifier interface {
	Verify(ctx context.Context, identifier, secret string) (Session, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, identifier, secret string) (Session, error)

func (f VerifierFunc) Verify(ctx context.Context, identifier, secret string) (Session, error) {
	return f(ctx, identifier, secret)
}
