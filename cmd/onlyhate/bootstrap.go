package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
	"onlyhate/internal/config"
	"onlyhate/internal/kv"
	"onlyhate/internal/seed"
)

type dependencies struct {
	catalog   *catalog.Catalog
	persister *catalog.Persister
	tokens    *auth.Tokens
	verifier  auth.Verifier
}

func bootstrap(ctx context.Context, cfg *config.Config, store kv.Store) (*dependencies, error) {
	c := catalog.New()
	deps := &dependencies{catalog: c}

	loaded := false
	if cfg.Catalog.Persist {
		deps.persister = catalog.NewPersister(c, store)
		ok, err := deps.persister.Load(ctx)
		if err != nil {
			return nil, err
		}
		loaded = ok
	}

	if loaded {
		log.Info().Interface("counts", c.Counts()).Msg("catalog restored from store")
	} else {
		if err := seedCatalog(ctx, cfg.Catalog, c); err != nil {
			return nil, err
		}
		if deps.persister != nil {
			if err := deps.persister.Save(ctx); err != nil {
				return nil, err
			}
		}
	}
	if deps.persister != nil {
		c.Observe(deps.persister)
	}

	tokens, err := auth.NewTokens([]byte(cfg.Security.SessionSecret), cfg.Security.SessionTTL)
	if err != nil {
		return nil, err
	}
	deps.tokens = tokens

	hash, err := adminPasswordHash(cfg)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewCredentialVerifier(cfg.Security.AdminEmail, hash, tokens)
	if err != nil {
		return nil, err
	}
	deps.verifier = verifier

	return deps, nil
}

func seedCatalog(ctx context.Context, cfg config.CatalogConfig, c *catalog.Catalog) error {
	src, err := seed.Open(ctx, cfg.SeedSource, seed.S3Config{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	if err := seed.Apply(ctx, c, src); err != nil {
		return err
	}
	log.Info().Stringer("source", src).Interface("counts", c.Counts()).Msg("catalog seeded")
	return nil
}

// adminPasswordHash prefers a pre-computed hash. Development falls back to
// the default password so a fresh checkout can sign in.
func adminPasswordHash(cfg *config.Config) ([]byte, error) {
	if cfg.Security.AdminPasswordHash != "" {
		return []byte(cfg.Security.AdminPasswordHash), nil
	}
	password := cfg.Security.AdminPassword
	if password == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("no administrator password configured for %s", cfg.Env)
		}
		log.Warn().Str("email", cfg.Security.AdminEmail).Msg("using the default development admin password")
		password = auth.DefaultAdminPassword
	}
	return auth.HashPassword(password)
}
