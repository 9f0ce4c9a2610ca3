// Package compare runs group comparisons over a taxonomy directory and a tag
// store and renders their reports.
package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/taxonomy"
)

// ErrTask wraps the failure of one sibling-set comparison. Any such failure
// fails the whole pass.
var ErrTask = errors.New("compare: sibling set comparison failed")

// Options tunes a TaxonCompare.
type Options struct {
	// Workers bounds the sibling sets compared at once. Zero means GOMAXPROCS.
	Workers int
}

// TaxonCompare finds, for every group with siblings, the tags that separate
// it from the rest of its sibling set.
type TaxonCompare struct {
	dir     *taxonomy.Directory
	lookup  tags.Lookup
	engine  *tags.Engine
	workers int
}

// NewTaxonCompare wires a comparison over dir and lookup. Both are only read.
func NewTaxonCompare(dir *taxonomy.Directory, lookup tags.Lookup, engine *tags.Engine, opts Options) *TaxonCompare {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &TaxonCompare{dir: dir, lookup: lookup, engine: engine, workers: workers}
}

// DistinguishingTags compares every sibling set of two or more groups in
// parallel and returns the distinguishing tags keyed by group id. Groups
// without siblings are absent from the result.
func (c *TaxonCompare) DistinguishingTags(ctx context.Context) (map[int]idset.Set[string], error) {
	view, err := c.dir.TaxTree(ctx)
	if err != nil {
		return nil, err
	}
	var siblingSets []idset.Set[int]
	for _, children := range view {
		if children.Len() > 1 {
			siblingSets = append(siblingSets, children)
		}
	}
	slog.Info("compare: comparing sibling sets", "sets", len(siblingSets), "workers", c.workers)

	var (
		mu  sync.Mutex
		out = make(map[int]idset.Set[string])
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, siblings := range siblingSets {
		g.Go(func() error {
			res, err := c.compareSiblings(gctx, siblings)
			if err != nil {
				return err
			}
			mu.Lock()
			maps.Copy(out, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Info("compare: sibling sets compared", "groups", len(out))
	return out, nil
}

// SiblingTags compares the children of one parent. A parent with fewer than
// two children yields an empty result.
func (c *TaxonCompare) SiblingTags(ctx context.Context, parentID int) (map[int]idset.Set[string], error) {
	view, err := c.dir.TaxTree(ctx)
	if err != nil {
		return nil, err
	}
	children := view[parentID]
	if children.Len() < 2 {
		return map[int]idset.Set[string]{}, nil
	}
	return c.compareSiblings(ctx, children)
}

type sibling struct {
	id     int
	size   int
	counts tags.Counts
}

func (c *TaxonCompare) compareSiblings(ctx context.Context, siblings idset.Set[int]) (map[int]idset.Set[string], error) {
	start := time.Now()
	res, err := c.distinguishSiblings(ctx, siblings)
	if err != nil {
		siblingSetFailures.Inc()
		return nil, fmt.Errorf("%w: siblings %v: %w", ErrTask, siblings.Sorted(), err)
	}
	siblingSetsTotal.Inc()
	siblingSetDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

func (c *TaxonCompare) distinguishSiblings(ctx context.Context, siblings idset.Set[int]) (map[int]idset.Set[string], error) {
	genomeSets, err := c.dir.GenomeSets(ctx, siblings)
	if err != nil {
		return nil, err
	}
	list := make([]sibling, 0, siblings.Len())
	total := tags.NewCounts()
	totalSize := 0
	for _, id := range siblings.Sorted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set := genomeSets[id]
		counts, err := tags.SetCounts(ctx, c.lookup, set)
		if err != nil {
			return nil, err
		}
		list = append(list, sibling{id: id, size: set.Len(), counts: counts})
		total.Merge(counts)
		totalSize += set.Len()
	}

	out := make(map[int]idset.Set[string], len(list))
	for _, s := range list {
		rest := total.Minus(s.counts)
		found := c.engine.DistinguishLeft(s.counts, s.size, rest, totalSize-s.size)
		out[s.id] = found
		groupsComparedTotal.Inc()
		distinguishingTagsFound.Observe(float64(found.Len()))
		slog.Debug("compare: distinguishing tags found", "tax_id", s.id, "tags", found.Len())
	}
	return out, nil
}
