package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lthms/taxdiff/internal/compare"
	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/tags/scanner"
)

// SetCompareCmd compares two explicit genome sets.
type SetCompareCmd struct {
	TagDir  string  `arg:"" help:"Tag store location."`
	Set1    string  `arg:"" type:"existingfile" help:"Tab-delimited file with first-set genome IDs in column 1."`
	Set2    string  `arg:"" type:"existingfile" help:"Tab-delimited file with second-set genome IDs in column 1."`
	Absent  float64 `default:"${absent}" help:"Maximum fraction of a set carrying an absent tag."`
	Present float64 `default:"${present}" help:"Minimum fraction of a set carrying a present tag."`
	Output  string  `short:"o" type:"path" help:"Report file (default stdout)."`
	Tags    string  `enum:"role,pgfam" default:"${scanner_type}" help:"Tag type, used to name tags."`
	Roles   string  `type:"path" default:"${roles}" help:"Role definition file for role tags."`
}

// Run validates both sets and writes the comparison report.
func (cmd *SetCompareCmd) Run(ctx context.Context, cfg *UserConfig) error {
	engine, err := tags.NewEngine(cmd.Absent, cmd.Present)
	if err != nil {
		return err
	}
	set1, err := readGenomeSet(cmd.Set1)
	if err != nil {
		return err
	}
	set2, err := readGenomeSet(cmd.Set2)
	if err != nil {
		return err
	}
	slog.Info("set-compare: sets loaded", "set1", set1.Len(), "set2", set2.Len())

	store, err := openTagStore(ctx, cfg, cmd.TagDir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := compare.ValidateSets(ctx, store, set1, set2); err != nil {
		return err
	}

	res, err := engine.CompareSets(ctx, store, set1, set2)
	if err != nil {
		return err
	}

	tagName := func(tag string) string { return tag }
	if scan, err := scanner.New(scanner.Type(cmd.Tags), cmd.Roles); err != nil {
		slog.Warn("set-compare: tag names unavailable", "error", err)
	} else {
		tagName = scan.TagName
	}

	out, err := createOutput(cmd.Output)
	if err != nil {
		return err
	}
	if err := compare.WriteSetReport(out, res, tagName); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readGenomeSet(path string) (idset.Set[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set, err := compare.ReadGenomeSet(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return set, nil
}

// SetCompareFullCmd scans two genome sets from a genome source into a
// scratch tag store and compares them.
type SetCompareFullCmd struct {
	Source  string  `arg:"" type:"existingdir" help:"Directory of genome files."`
	Set1    string  `arg:"" type:"existingfile" help:"Tab-delimited file with first-set genome IDs in column 1."`
	Set2    string  `arg:"" type:"existingfile" help:"Tab-delimited file with second-set genome IDs in column 1."`
	Absent  float64 `default:"${absent}" help:"Maximum fraction of a set carrying an absent tag."`
	Present float64 `default:"${present}" help:"Minimum fraction of a set carrying a present tag."`
	Output  string  `short:"o" type:"path" help:"Report file (default stdout)."`
	Tags    string  `enum:"role,pgfam" default:"${scanner_type}" help:"Tag type (role or pgfam)."`
	Roles   string  `type:"path" default:"${roles}" help:"Role definition file for role tags."`
	Temp    string  `default:"Temp" help:"Scratch tag store location, erased before scanning."`
	Keep    bool    `help:"Keep the scratch tag store after processing."`
}

// Run scans both sets and writes the comparison report.
func (cmd *SetCompareFullCmd) Run(ctx context.Context, cfg *UserConfig) error {
	engine, err := tags.NewEngine(cmd.Absent, cmd.Present)
	if err != nil {
		return err
	}
	set1, err := readGenomeSet(cmd.Set1)
	if err != nil {
		return err
	}
	set2, err := readGenomeSet(cmd.Set2)
	if err != nil {
		return err
	}
	slog.Info("set-compare: sets loaded", "set1", set1.Len(), "set2", set2.Len())

	scan, err := scanner.New(scanner.Type(cmd.Tags), cmd.Roles)
	if err != nil {
		return err
	}
	src, err := genome.OpenDir(cmd.Source)
	if err != nil {
		return err
	}
	store, err := openTagStore(ctx, cfg, cmd.Temp)
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := createOutput(cmd.Output)
	if err != nil {
		return err
	}
	s := &compare.SetScan{
		Source:   src,
		Tags:     store,
		Scanner:  scan,
		Engine:   engine,
		KeepTags: cmd.Keep,
	}
	if err := s.Run(ctx, set1, set2, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
