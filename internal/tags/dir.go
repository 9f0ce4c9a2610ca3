package tags

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

const tagFileSuffix = ".tags"

// Dir keeps one tag file per genome on a blob store.
type Dir struct {
	store blob.Store

	mu      sync.RWMutex
	genomes idset.Set[string]
}

// OpenDir indexes the tag files present on store.
func OpenDir(ctx context.Context, store blob.Store) (*Dir, error) {
	keys, err := store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("tags: list tag files: %w", err)
	}
	d := &Dir{store: store, genomes: idset.New[string](len(keys))}
	for _, k := range keys {
		if strings.Contains(k, "/") || !strings.HasSuffix(k, tagFileSuffix) {
			continue
		}
		d.genomes.Add(strings.TrimSuffix(k, tagFileSuffix))
	}
	slog.Info("tags: tag directory opened", "driver", store.Driver(), "genomes", d.genomes.Len())
	return d, nil
}

func (d *Dir) Tags(ctx context.Context, genomeID string) (idset.Set[string], error) {
	d.mu.RLock()
	known := d.genomes.Has(genomeID)
	d.mu.RUnlock()
	if !known {
		return idset.New[string](0), nil
	}
	rc, err := d.store.Get(ctx, genomeID+tagFileSuffix)
	if errors.Is(err, blob.ErrNotFound) {
		return idset.New[string](0), nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	tr, err := tabfile.NewReader(rc, 1)
	if err != nil {
		return nil, fmt.Errorf("tags: %s%s: %w", genomeID, tagFileSuffix, err)
	}
	set := idset.New[string](0)
	for tr.Next() {
		set.Add(tr.Get(0))
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("tags: %s%s: %w", genomeID, tagFileSuffix, err)
	}
	return set, nil
}

// Put writes the tag file of a genome. Genome ids containing a slash are
// rejected, since their files would not be found on reopen.
func (d *Dir) Put(ctx context.Context, genomeID string, set idset.Set[string]) error {
	if genomeID == "" || strings.Contains(genomeID, "/") {
		return fmt.Errorf("tags: invalid genome id %q", genomeID)
	}
	var buf bytes.Buffer
	tw, err := tabfile.NewWriter(&buf, "tag")
	if err != nil {
		return err
	}
	for _, tag := range set.Sorted() {
		if err := tw.Write(tag); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if err := d.store.Put(ctx, genomeID+tagFileSuffix, &buf); err != nil {
		return fmt.Errorf("tags: write %s: %w", genomeID, err)
	}
	d.mu.Lock()
	d.genomes.Add(genomeID)
	d.mu.Unlock()
	return nil
}

func (d *Dir) Has(_ context.Context, genomeID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.genomes.Has(genomeID), nil
}

func (d *Dir) Len(context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.genomes.Len(), nil
}

func (d *Dir) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.genomes {
		if err := d.store.Delete(ctx, id+tagFileSuffix); err != nil {
			return fmt.Errorf("tags: delete %s: %w", id, err)
		}
	}
	d.genomes = idset.New[string](0)
	return nil
}

func (d *Dir) Close() error { return nil }
