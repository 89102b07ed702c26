// Package seed loads the initial catalog dataset from the embedded default,
// a local JSON file or an S3 object.
package seed

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"onlyhate/internal/catalog"
)

//go:embed data/catalog.json
var defaultData embed.FS

// Source yields a catalog snapshot.
type Source interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
	String() string
}

// Decode reads a dataset in the {"bands","releases","products"} shape.
func Decode(r io.Reader) (catalog.Snapshot, error) {
	var snap catalog.Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return catalog.Snapshot{}, fmt.Errorf("decode seed dataset: %w", err)
	}
	return snap, nil
}

// Embedded is the dataset compiled into the binary.
type Embedded struct{}

func (Embedded) Load(ctx context.Context) (catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Snapshot{}, err
	}
	raw, err := defaultData.ReadFile("data/catalog.json")
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("read embedded dataset: %w", err)
	}
	return Decode(bytes.NewReader(raw))
}

func (Embedded) String() string { return "embedded" }

// File reads a dataset from the local filesystem.
type File string

func (f File) Load(ctx context.Context) (catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Snapshot{}, err
	}
	fh, err := os.Open(string(f))
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

func (f File) String() string { return "file:" + string(f) }

// Open picks a Source for location: "" or "embedded", "s3://bucket/key", or
// a filesystem path.
func Open(ctx context.Context, location string, s3cfg S3Config) (Source, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "" || location == "embedded":
		return Embedded{}, nil
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, s3cfg, bucket, key)
	default:
		return File(strings.TrimPrefix(location, "file://")), nil
	}
}

// Apply replaces the contents of c with the dataset from src.
func Apply(ctx context.Context, c *catalog.Catalog, src Source) error {
	snap, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if err := c.Restore(snap); err != nil {
		return fmt.Errorf("restore seed %s: %w", src, err)
	}
	return nil
}
