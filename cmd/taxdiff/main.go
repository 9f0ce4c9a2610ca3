package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/taxonomy"
)

// CLI is the top-level command structure for taxdiff.
type CLI struct {
	Debug          bool              `env:"TAXDIFF_DEBUG" help:"Enable debug logging."`
	BuildTaxonomy  BuildTaxonomyCmd  `cmd:"" help:"Ingest genomes into a taxonomy directory."`
	BuildTags      BuildTagsCmd      `cmd:"" help:"Scan genomes into a tag store."`
	Analyze        AnalyzeCmd        `cmd:"" help:"Report the tags distinguishing every group from its siblings."`
	SetCompare     SetCompareCmd     `cmd:"" help:"Compare two genome sets."`
	SetCompareFull SetCompareFullCmd `cmd:"" help:"Scan two genome sets from a source and compare them."`
	Pipe           PipeCmd           `cmd:"" help:"Build, compare and write per-genome change reports."`
	MCP            MCPCmd            `cmd:"" name:"mcp" help:"Serve taxonomy queries over MCP on stdio."`
}

func main() {
	cfgPath, err := userConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "taxdiff: %v\n", err)
		os.Exit(1)
	}
	cfg, err := loadUserConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taxdiff: %v\n", err)
		os.Exit(1)
	}

	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("taxdiff"),
		kong.Description("Find the feature tags that distinguish taxonomic groups from their siblings."),
		kong.UsageOnError(),
		cfg.vars(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taxdiff: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	setupLogger(cli.Debug)
	slog.Debug("config loaded", "path", cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(cfg)

	err = kctx.Run()
	kctx.FatalIfErrorf(err)
}

// setupLogger logs text to an interactive terminal and JSON otherwise.
func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openTaxonomy(ctx context.Context, cfg *UserConfig, location string) (*taxonomy.Directory, error) {
	store, err := blob.Open(ctx, cfg.blobConfig(), location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", taxonomy.ErrStore, err)
	}
	return taxonomy.Open(ctx, store)
}

func openTagStore(ctx context.Context, cfg *UserConfig, location string) (tags.Store, error) {
	return tags.OpenStore(ctx, cfg.tagStoreConfig(), location)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createOutput opens path for writing, or stdout when path is empty.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
