// Package storage selects the blob backend used for guide registry exports.
package storage

import (
	"context"
	"fmt"

	gcsclient "cloud.google.com/go/storage"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/storage/gcs"
	"github.com/sotaychohdv/hdv-functions/internal/storage/local"
	"github.com/sotaychohdv/hdv-functions/internal/storage/memory"
)

// Config selects a backend.
type Config struct {
	Backend   string
	BaseDir   string
	GCSBucket string
}

// OpenBlobStore builds the configured backend. The returned close func is
// never nil.
func OpenBlobStore(ctx context.Context, cfg Config) (directory.BlobStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "memory":
		return memory.NewBlobStore(), noop, nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, noop, fmt.Errorf("open local blob store: %w", err)
		}
		return store, noop, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("open gcs blob store: %w", err)
		}
		return store, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported blob backend %q", cfg.Backend)
	}
}
