package compare

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/tags/scanner"
)

// SetScan compares two genome sets drawn from a genome source. The tags of
// both sets are scanned into a scratch store first.
type SetScan struct {
	Source  genome.Source
	Tags    tags.Store
	Scanner scanner.Scanner
	Engine  *tags.Engine

	// KeepTags leaves the scratch store populated after the run.
	KeepTags bool
}

// Run validates the sets, scans their genomes, and writes the set comparison
// report to w. The scratch store is always erased before scanning.
func (s *SetScan) Run(ctx context.Context, set1, set2 idset.Set[string], w io.Writer) (err error) {
	if err := checkDisjoint(set1, set2); err != nil {
		return err
	}

	if err := s.Tags.Clear(ctx); err != nil {
		return fmt.Errorf("compare: clear tag store: %w", err)
	}
	if !s.KeepTags {
		defer func() {
			slog.Info("set-compare: erasing tag store")
			if cerr := s.Tags.Clear(context.WithoutCancel(ctx)); cerr != nil && err == nil {
				err = fmt.Errorf("compare: clear tag store: %w", cerr)
			}
		}()
	}

	if err := s.scan(ctx, set1, set2); err != nil {
		return err
	}

	slog.Info("set-compare: processing comparison")
	res, err := s.Engine.CompareSets(ctx, s.Tags, set1, set2)
	if err != nil {
		return err
	}
	return WriteSetReport(w, res, s.Scanner.TagName)
}

// scan stores the tags of every source genome in either set and fails if a
// set genome is missing from the source.
func (s *SetScan) scan(ctx context.Context, set1, set2 idset.Set[string]) error {
	wanted := set1.Len() + set2.Len()
	found := idset.New[string](wanted)
	lastLog := time.Now()
	err := s.Source.Each(ctx, func(g *genome.Genome) error {
		if !set1.Has(g.ID) && !set2.Has(g.ID) {
			return nil
		}
		if err := s.Tags.Put(ctx, g.ID, scanner.GenomeTags(s.Scanner, g)); err != nil {
			return err
		}
		found.Add(g.ID)
		if time.Since(lastLog) >= 5*time.Second {
			slog.Info("set-compare: scanning genomes", "done", found.Len(), "total", wanted)
			lastLog = time.Now()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("compare: scan genomes: %w", err)
	}
	for _, set := range []idset.Set[string]{set1, set2} {
		for _, id := range set.Sorted() {
			if !found.Has(id) {
				return fmt.Errorf("%w: %s is not present in the genome source", ErrSets, id)
			}
		}
	}
	slog.Info("set-compare: tags computed", "genomes", found.Len())
	return nil
}
