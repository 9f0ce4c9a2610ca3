package tags

import (
	"context"
	"fmt"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/idset"
)

// Lookup returns the precomputed tag set of a genome. Unknown genomes yield
// an empty set.
type Lookup interface {
	Tags(ctx context.Context, genomeID string) (idset.Set[string], error)
}

// Store is a writable per-genome tag store.
type Store interface {
	Lookup
	Put(ctx context.Context, genomeID string, tags idset.Set[string]) error
	Has(ctx context.Context, genomeID string) (bool, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

// SetCounts counts the tags of every genome in a set.
func SetCounts(ctx context.Context, l Lookup, genomes idset.Set[string]) (Counts, error) {
	c := NewCounts()
	for id := range genomes {
		set, err := l.Tags(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tags: lookup %s: %w", id, err)
		}
		c.CountSet(set)
	}
	return c, nil
}

// Driver names a tag store backend.
type Driver string

const (
	DriverDir      Driver = "dir"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// StoreConfig selects a tag store backend.
type StoreConfig struct {
	Driver Driver
	// DSN overrides the location for the postgres driver.
	DSN  string
	Blob blob.Config
}

// OpenStore opens the tag store at location. For the dir driver location is
// a blob location, for sqlite a database file, for postgres a DSN.
func OpenStore(ctx context.Context, cfg StoreConfig, location string) (Store, error) {
	switch cfg.Driver {
	case "", DriverDir:
		bs, err := blob.Open(ctx, cfg.Blob, location)
		if err != nil {
			return nil, err
		}
		return OpenDir(ctx, bs)
	case DriverSQLite:
		return OpenSQLite(location)
	case DriverPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = location
		}
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unknown tag store driver %q", ErrConfig, cfg.Driver)
	}
}
