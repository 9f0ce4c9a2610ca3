package compare

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/tags/scanner"
	"github.com/lthms/taxdiff/internal/taxonomy"
)

// ChangesFile is the per-genome report written by Pipe.Run.
const ChangesFile = "changes.tbl"

// Pipe holds the collaborators of a full pipeline run.
type Pipe struct {
	Source  genome.Source
	Dir     *taxonomy.Directory
	Tags    tags.Store
	Scanner scanner.Scanner
	Engine  *tags.Engine
	Options Options

	// OutDir receives one subdirectory per genome.
	OutDir string
	// ClearTaxonomy rebuilds the taxonomy directory even if it is populated.
	ClearTaxonomy bool
	// KeepTags leaves the tag store populated after the run.
	KeepTags bool
}

// Run builds the taxonomy if needed, rebuilds the tag store from the source,
// compares every sibling set, and writes a change report per genome.
func (p *Pipe) Run(ctx context.Context) (err error) {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return fmt.Errorf("compare: create output dir: %w", err)
	}
	if err := p.prepareTaxonomy(ctx); err != nil {
		return err
	}

	if err := p.Tags.Clear(ctx); err != nil {
		return fmt.Errorf("compare: clear tag store: %w", err)
	}
	if !p.KeepTags {
		defer func() {
			slog.Info("pipe: erasing tag store")
			if cerr := p.Tags.Clear(context.WithoutCancel(ctx)); cerr != nil && err == nil {
				err = fmt.Errorf("compare: clear tag store: %w", cerr)
			}
		}()
	}
	var genomes []*genome.Genome
	err = p.Source.Each(ctx, func(g *genome.Genome) error {
		slog.Debug("pipe: scanning genome", "genome_id", g.ID)
		if err := p.Tags.Put(ctx, g.ID, scanner.GenomeTags(p.Scanner, g)); err != nil {
			return err
		}
		// Only the lineage is needed later.
		genomes = append(genomes, &genome.Genome{ID: g.ID, Name: g.Name, Taxonomy: g.Taxonomy})
		return nil
	})
	if err != nil {
		return fmt.Errorf("compare: scan genomes: %w", err)
	}
	slog.Info("pipe: tags computed", "genomes", len(genomes))

	results, err := NewTaxonCompare(p.Dir, p.Tags, p.Engine, p.Options).DistinguishingTags(ctx)
	if err != nil {
		return err
	}
	reporter, err := NewChangeReporter(ctx, p.Dir, results, p.Scanner.TagName)
	if err != nil {
		return err
	}
	for _, g := range genomes {
		if err := p.writeChanges(ctx, reporter, g); err != nil {
			return err
		}
	}
	slog.Info("pipe: change reports written", "genomes", len(genomes), "dir", p.OutDir)
	return nil
}

func (p *Pipe) prepareTaxonomy(ctx context.Context) error {
	tree, err := p.Dir.Tree(ctx)
	if err != nil {
		return err
	}
	switch {
	case p.ClearTaxonomy:
		slog.Info("pipe: rebuilding taxonomy directory")
		if err := p.Dir.Clear(ctx); err != nil {
			return err
		}
	case tree.IsEmpty():
		slog.Info("pipe: building taxonomy directory")
	default:
		slog.Info("pipe: reusing taxonomy directory", "generation", p.Dir.Generation())
		return nil
	}
	return p.Dir.Update(ctx, p.Source)
}

func (p *Pipe) writeChanges(ctx context.Context, reporter *ChangeReporter, g *genome.Genome) error {
	genomeTags, err := p.Tags.Tags(ctx, g.ID)
	if err != nil {
		return err
	}
	dir := filepath.Join(p.OutDir, g.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("compare: create %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, ChangesFile))
	if err != nil {
		return err
	}
	if err := reporter.Write(f, g, genomeTags); err != nil {
		f.Close()
		return fmt.Errorf("compare: write changes for %s: %w", g.ID, err)
	}
	return f.Close()
}
