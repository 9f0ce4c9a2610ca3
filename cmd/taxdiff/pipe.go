package main

import (
	"context"

	"github.com/lthms/taxdiff/internal/compare"
	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/tags/scanner"
)

// PipeCmd runs the whole pipeline over one genome source.
type PipeCmd struct {
	Source  string  `arg:"" type:"existingdir" help:"Directory of genome files."`
	OutDir  string  `arg:"" type:"path" help:"Master output directory."`
	TaxDir  string  `default:"TaxTree" help:"Taxonomy directory to build or reuse."`
	TagDir  string  `default:"Temp" help:"Scratch tag store location."`
	Clear   bool    `help:"Rebuild the taxonomy directory even if it exists."`
	Keep    bool    `help:"Keep the tag store after processing."`
	Tags    string  `enum:"role,pgfam" default:"${scanner_type}" help:"Tag type (role or pgfam)."`
	Roles   string  `type:"path" default:"${roles}" help:"Role definition file for role tags."`
	Absent  float64 `default:"${absent}" help:"Maximum fraction of a group carrying an absent tag."`
	Present float64 `default:"${present}" help:"Minimum fraction of a group carrying a present tag."`
	Workers int     `default:"${workers}" help:"Sibling sets compared at once (0 = all CPUs)."`
}

// Run executes the pipeline.
func (cmd *PipeCmd) Run(ctx context.Context, cfg *UserConfig) error {
	engine, err := tags.NewEngine(cmd.Absent, cmd.Present)
	if err != nil {
		return err
	}
	scan, err := scanner.New(scanner.Type(cmd.Tags), cmd.Roles)
	if err != nil {
		return err
	}
	src, err := genome.OpenDir(cmd.Source)
	if err != nil {
		return err
	}
	dir, err := openTaxonomy(ctx, cfg, cmd.TaxDir)
	if err != nil {
		return err
	}
	store, err := openTagStore(ctx, cfg, cmd.TagDir)
	if err != nil {
		return err
	}
	defer store.Close()

	p := &compare.Pipe{
		Source:        src,
		Dir:           dir,
		Tags:          store,
		Scanner:       scan,
		Engine:        engine,
		Options:       compare.Options{Workers: cmd.Workers},
		OutDir:        cmd.OutDir,
		ClearTaxonomy: cmd.Clear,
		KeepTags:      cmd.Keep,
	}
	return p.Run(ctx)
}
