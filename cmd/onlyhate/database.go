package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"onlyhate/internal/config"
	"onlyhate/internal/kv"
)

// openStore builds the key-value backend selected by cfg. The returned
// close func is always safe to call.
func openStore(ctx context.Context, cfg config.KVConfig) (kv.Store, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("memory kv store: catalog changes are lost on restart")
		return kv.NewMemory(), noop, nil

	case config.DriverSQLite:
		store, db, err := kv.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		store, err := kv.NewSQL(db, kv.DialectPostgres)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, func() { _ = db.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown kv driver %q", cfg.Driver)
}

// openDatabase establishes a Postgres connection and retries until the instance responds.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(kv.DialectPostgres.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	const (
		pingTimeout    = 5 * time.Second
		maxWait        = 30 * time.Second
		initialBackoff = 500 * time.Millisecond
		maxBackoff     = 5 * time.Second
	)

	deadline := time.Now().Add(maxWait)
	backoff := initialBackoff
	var lastErr error

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			return db, nil
		}

		// Respect caller cancellation.
		if ctx.Err() != nil {
			break
		}

		if time.Now().After(deadline) {
			break
		}

		log.Warn().Err(lastErr).Dur("retry_in", backoff).Msg("database not ready")
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", lastErr)
}
