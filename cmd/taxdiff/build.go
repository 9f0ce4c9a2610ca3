package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/tags/scanner"
)

// BuildTaxonomyCmd ingests a genome source into a taxonomy directory.
type BuildTaxonomyCmd struct {
	Source string `arg:"" type:"existingdir" help:"Directory of genome files."`
	TaxDir string `arg:"" help:"Taxonomy directory location."`
	Clear  bool   `help:"Erase the taxonomy directory before ingesting."`
}

// Run builds or extends the taxonomy directory.
func (cmd *BuildTaxonomyCmd) Run(ctx context.Context, cfg *UserConfig) error {
	src, err := genome.OpenDir(cmd.Source)
	if err != nil {
		return err
	}
	dir, err := openTaxonomy(ctx, cfg, cmd.TaxDir)
	if err != nil {
		return err
	}
	if cmd.Clear {
		if err := dir.Clear(ctx); err != nil {
			return err
		}
	}
	slog.Info("build-taxonomy: ingesting genomes", "source", cmd.Source, "genomes", src.Len())
	return dir.Update(ctx, src)
}

// BuildTagsCmd scans a genome source into a tag store.
type BuildTagsCmd struct {
	Source  string `arg:"" type:"existingdir" help:"Directory of genome files."`
	TagDir  string `arg:"" help:"Tag store location."`
	Missing bool   `help:"Skip genomes already in the tag store."`
	Clear   bool   `help:"Erase the tag store first."`
	Tags    string `enum:"role,pgfam" default:"${scanner_type}" help:"Tag type (role or pgfam)."`
	Roles   string `type:"path" default:"${roles}" help:"Role definition file for role tags."`
}

// Run computes and stores the tag set of every genome.
func (cmd *BuildTagsCmd) Run(ctx context.Context, cfg *UserConfig) error {
	src, err := genome.OpenDir(cmd.Source)
	if err != nil {
		return err
	}
	scan, err := scanner.New(scanner.Type(cmd.Tags), cmd.Roles)
	if err != nil {
		return err
	}
	store, err := openTagStore(ctx, cfg, cmd.TagDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if cmd.Clear {
		slog.Info("build-tags: erasing tag store", "location", cmd.TagDir)
		if err := store.Clear(ctx); err != nil {
			return err
		}
	}

	total := src.Len()
	var done, skipped int
	lastLog := time.Now()
	err = src.Each(ctx, func(g *genome.Genome) error {
		done++
		if cmd.Missing {
			ok, err := store.Has(ctx, g.ID)
			if err != nil {
				return err
			}
			if ok {
				slog.Debug("build-tags: genome already stored", "genome_id", g.ID)
				skipped++
				return nil
			}
		}
		if err := store.Put(ctx, g.ID, scanner.GenomeTags(scan, g)); err != nil {
			return fmt.Errorf("store tags for %s: %w", g.ID, err)
		}
		if time.Since(lastLog) >= 5*time.Second {
			slog.Info("build-tags: scanning genomes", "done", done, "total", total)
			lastLog = time.Now()
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("build-tags: done", "processed", done, "skipped", skipped)
	return nil
}
