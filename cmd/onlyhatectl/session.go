package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"onlyhate/internal/apiclient"
	"onlyhate/internal/auth"
	"onlyhate/internal/kv"
)

const defaultServer = "http://localhost:8080"

// session is the gate and client pair a command works with. Signing out
// also drops the client's bearer token.
type session struct {
	*auth.Gate
	client *apiclient.Client
	db     *sql.DB
}

func openSession(ctx context.Context, server, statePath string) (*session, error) {
	client, err := apiclient.New(server)
	if err != nil {
		return nil, err
	}

	store, db, err := kv.OpenSQLite(ctx, statePath)
	if err != nil {
		return nil, err
	}

	gate := auth.NewGate(client, store)
	if err := gate.Restore(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	client.SetToken(gate.Token())

	return &session{Gate: gate, client: client, db: db}, nil
}

func (s *session) Logout(ctx context.Context) error {
	if err := s.Gate.Logout(ctx); err != nil {
		return err
	}
	s.client.SetToken("")
	return nil
}

func (s *session) Close() error {
	return s.db.Close()
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "onlyhate", "state.db")
	}
	return filepath.Join(".onlyhate", "state.db")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
