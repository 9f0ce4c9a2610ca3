package main

import (
	"context"
	"log/slog"

	"github.com/lthms/taxdiff/internal/compare"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
)

// AnalyzeCmd reports the distinguishing tags of every group with siblings.
type AnalyzeCmd struct {
	TaxDir      string  `arg:"" help:"Taxonomy directory location."`
	TagDir      string  `arg:"" help:"Tag store location."`
	Absent      float64 `default:"${absent}" help:"Maximum fraction of a group carrying an absent tag."`
	Present     float64 `default:"${present}" help:"Minimum fraction of a group carrying a present tag."`
	Output      string  `short:"o" type:"path" help:"Report file (default stdout)."`
	Format      string  `enum:"tsv,yaml" default:"tsv" help:"Report format (tsv or yaml)."`
	Workers     int     `default:"${workers}" help:"Sibling sets compared at once (0 = all CPUs)."`
	MetricsFile string  `type:"path" help:"Write comparison metrics in Prometheus text format."`
}

// Run compares every sibling set and writes the report.
func (cmd *AnalyzeCmd) Run(ctx context.Context, cfg *UserConfig) error {
	engine, err := tags.NewEngine(cmd.Absent, cmd.Present)
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

	slog.Info("analyze: comparing groups", "absent", cmd.Absent, "present", cmd.Present)
	tc := compare.NewTaxonCompare(dir, store, engine, compare.Options{Workers: cmd.Workers})
	results, err := tc.DistinguishingTags(ctx)
	if err != nil {
		return err
	}

	ids := idset.New[int](len(results))
	for id := range results {
		ids.Add(id)
	}
	names, err := dir.NameMap(ctx, ids)
	if err != nil {
		return err
	}

	out, err := createOutput(cmd.Output)
	if err != nil {
		return err
	}
	if err := compare.WriteReport(out, compare.BuildReport(results, names), compare.Format(cmd.Format)); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if cmd.MetricsFile != "" {
		if err := compare.WriteMetrics(cmd.MetricsFile); err != nil {
			return err
		}
		slog.Info("analyze: metrics written", "path", cmd.MetricsFile)
	}
	return nil
}
