package archiveutils

import (
	"context"
	"fmt"

	"github.com/spectralworks/specmatch/pkg/archive"
	"github.com/spectralworks/specmatch/pkg/archive/inmemory"
	"github.com/spectralworks/specmatch/pkg/archive/postgres"
	"github.com/spectralworks/specmatch/pkg/archive/sqlite"
)

// Supported archive provider constants
const (
	InMemory = "inmemory"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// SupportedProviders returns the list of all supported archive provider names.
func SupportedProviders() []string {
	return []string{InMemory, SQLite, Postgres}
}

type NewDriverOpts struct {
	// Provider selects the backend. Empty means in-memory.
	Provider string

	// Target is the provider-specific location: a database file path for
	// sqlite, a connection string for postgres. Ignored by inmemory.
	Target string
}

// NewDriver creates an archive driver for the given provider.
// Returns an error if the provider name is not recognized.
func NewDriver(ctx context.Context, o *NewDriverOpts) (archive.Driver, error) {
	switch o.Provider {
	case InMemory, "":
		return inmemory.NewDriver(), nil
	case SQLite:
		return sqlite.NewDriver(o.Target)
	case Postgres:
		return postgres.NewDriver(ctx, o.Target)
	default:
		return nil, fmt.Errorf("unknown archive provider: %q (supported: %v)", o.Provider, SupportedProviders())
	}
}
