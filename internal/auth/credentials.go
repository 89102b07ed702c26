package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Development credentials used when no administrator is configured.
const (
	DefaultAdminEmail    = "admin@onlyhate.com"
	DefaultAdminPassword = "admin123"
)

var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("auth: password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CredentialVerifier accepts a single administrator identified by email and
// a bcrypt password hash.
type CredentialVerifier struct {
	email  string
	hash   []byte
	tokens *Tokens
}

// NewCredentialVerifier checks that hash is a bcrypt hash. Successful logins
// carry a token from tokens when it is non-nil.
func NewCredentialVerifier(email string, hash []byte, tokens *Tokens) (*CredentialVerifier, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("auth: admin email is required")
	}
	if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("auth: admin password hash: %w", err)
	}
	return &CredentialVerifier{email: email, hash: hash, tokens: tokens}, nil
}

func (v *CredentialVerifier) Verify(ctx context.Context, identifier, secret string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	if !strings.EqualFold(strings.TrimSpace(identifier), v.email) {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(secret))
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(secret)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	session := Session{User: User{Email: v.email}}
	if v.tokens != nil {
		token, expires, err := v.tokens.Issue(v.email)
		if err != nil {
			return Session{}, err
		}
		session.Token = token
		session.ExpiresAt = expires
	}
	return session, nil
}
