// Package results archives backtest run artifacts (reports, trade logs)
// under a per-run prefix, on local disk or an S3-compatible backend.
package results

import (
	"context"
	"fmt"

	"github.com/smpss92118/stock/internal/config"
	"github.com/smpss92118/stock/internal/core"
)

// Store is the interface run artifacts are archived through.
type Store interface {
	// Put stores an artifact at the given path
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves an artifact from the given path
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns all artifact paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the artifact at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if an artifact exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// FromConfig builds the store selected by the storage config.
func FromConfig(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "localfs", "":
		path := cfg.Path
		if path == "" {
			path = "./reports"
		}
		return NewLocalFS(path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", cfg.Type))
	}
}
