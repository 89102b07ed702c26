package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"onlyhate/internal/kv"
)

// SnapshotKey is the key the catalog snapshot is stored under.
const SnapshotKey = "catalog"

// Persister writes the catalog to a key-value store after every change.
type Persister struct {
	catalog *Catalog
	store   kv.Store
	timeout time.Duration

	// mu spans Snapshot and Put so a slow write never lands after a newer one.
	mu sync.Mutex
}

// NewPersister binds c to store. Call Load before Observe-ing writes.
func NewPersister(c *Catalog, store kv.Store) *Persister {
	return &Persister{catalog: c, store: store, timeout: 5 * time.Second}
}

// Load restores the catalog from the stored snapshot. It reports false when
// nothing has been stored yet.
func (p *Persister) Load(ctx context.Context) (bool, error) {
	raw, err := p.store.Get(ctx, SnapshotKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read catalog snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	if err := p.catalog.Restore(snap); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes the current catalog state.
func (p *Persister) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := json.Marshal(p.catalog.Snapshot())
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if err := p.store.Put(ctx, SnapshotKey, raw); err != nil {
		return fmt.Errorf("write catalog snapshot: %w", err)
	}
	return nil
}

// CatalogChanged implements Observer.
func (p *Persister) CatalogChanged(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.Save(ctx); err != nil {
		log.Error().Err(err).
			Str("kind", string(ev.Kind)).
			Str("op", string(ev.Op)).
			Str("id", ev.ID).
			Msg("persist catalog snapshot")
	}
}
