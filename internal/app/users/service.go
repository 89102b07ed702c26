package users

import (
	"context"

	"onlyhate/internal/auth"
)

// TokenParser validates session tokens.
type TokenParser interface {
	Parse(raw string) (auth.User, error)
}

// Service exposes administrator sign-in workflows.
type Service interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Me(ctx context.Context, token string) (auth.User, error)
}

type service struct {
	verifier auth.Verifier
	tokens   TokenParser
}

// New wires a Service backed by the provided verifier and token parser.
func New(verifier auth.Verifier, tokens TokenParser) Service {
	return &service{verifier: verifier, tokens: tokens}
}

func (s *service) Login(ctx context.Context, email, password string) (auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return auth.Session{}, err
	}
	return s.verifier.Verify(ctx, email, password)
}

func (s *service) Me(ctx context.Context, token string) (auth.User, error) {
	if err := ctx.Err(); err != nil {
		return auth.User{}, err
	}
	return s.tokens.Parse(token)
}
