package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"onlyhate/internal/kv"
)

// Keys the gate persists its state under.
const (
	StateKey = "auth-storage"
	TokenKey = "auth-token"
)

type gateState struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

// Gate tracks whether an administrator is signed in. State survives restarts
// through the key-value store.
type Gate struct {
	verifier Verifier
	store    kv.Store

	mu    sync.RWMutex
	state gateState
	token string
}

// NewGate returns a signed-out gate. Call Restore to pick up persisted state.
func NewGate(verifier Verifier, store kv.Store) *Gate {
	return &Gate{verifier: verifier, store: store}
}

// Login checks the credentials and, on success, marks the gate authenticated.
// A failed login leaves the current state untouched.
func (g *Gate) Login(ctx context.Context, identifier, secret string) error {
	session, err := g.verifier.Verify(ctx, identifier, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn().Str("identifier", identifier).Msg("login rejected")
		}
		return err
	}

	user := session.User
	next := gateState{IsAuthenticated: true, User: &user}
	if err := g.persist(ctx, next, session.Token); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = next
	g.token = session.Token
	g.mu.Unlock()

	log.Info().Str("email", user.Email).Msg("admin signed in")
	return nil
}

// Logout clears the identity and the stored token.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.persist(ctx, gateState{}, ""); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = gateState{}
	g.token = ""
	g.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether an administrator is signed in.
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.IsAuthenticated
}

// User returns the signed-in identity.
func (g *Gate) User() (User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.state.IsAuthenticated || g.state.User == nil {
		return User{}, false
	}
	return *g.state.User, true
}

// Token returns the session token issued at login, if any.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Restore loads persisted state. Missing state leaves the gate signed out.
func (g *Gate) Restore(ctx context.Context) error {
	raw, err := g.store.Get(ctx, StateKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read auth state: %w", err)
	}

	var state gateState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("decode auth state: %w", err)
	}
	if state.IsAuthenticated && state.User == nil {
		state = gateState{}
	}

	token, err := g.store.Get(ctx, TokenKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("read auth token: %w", err)
	}

	g.mu.Lock()
	g.state = state
	g.token = string(token)
	g.mu.Unlock()
	return nil
}

func (g *Gate) persist(ctx context.Context, state gateState, token string) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	if err := g.store.Put(ctx, StateKey, raw); err != nil {
		return fmt.Errorf("write auth state: %w", err)
	}

	if token == "" {
		if err := g.store.Delete(ctx, TokenKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("clear auth token: %w", err)
		}
		return nil
	}
	if err := g.store.Put(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("write auth token: %w", err)
	}
	return nil
}
