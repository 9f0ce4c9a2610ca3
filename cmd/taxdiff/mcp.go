package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lthms/taxdiff/internal/compare"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/taxonomy"
)

// MCPCmd serves read-only taxonomy queries over MCP on stdio.
type MCPCmd struct {
	TaxDir  string  `arg:"" help:"Taxonomy directory location."`
	TagDir  string  `arg:"" help:"Tag store location."`
	Absent  float64 `default:"${absent}" help:"Maximum fraction of a group carrying an absent tag."`
	Present float64 `default:"${present}" help:"Minimum fraction of a group carrying a present tag."`
}

type taxonInfoArgs struct {
	TaxID int `json:"tax_id" jsonschema:"Taxonomic group id"`
}

type siblingTagsArgs struct {
	ParentID int `json:"parent_id" jsonschema:"Id of the group whose children are compared"`
}

type taxonInfo struct {
	TaxID    int    `json:"tax_id"`
	Name     string `json:"name"`
	Rank     string `json:"rank"`
	ParentID int    `json:"parent_id"`
	Genomes  int    `json:"genomes"`
	Children []int  `json:"children"`
}

type groupTags struct {
	TaxID int      `json:"tax_id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
}

// Run starts the MCP server and blocks until the client disconnects.
func (cmd *MCPCmd) Run(ctx context.Context, cfg *UserConfig) error {
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

	return newMCPServer(dir, compare.NewTaxonCompare(dir, store, engine, compare.Options{})).
		Run(ctx, &mcp.StdioTransport{})
}

type taxonTools struct {
	dir     *taxonomy.Directory
	compare *compare.TaxonCompare
}

func newMCPServer(dir *taxonomy.Directory, tc *compare.TaxonCompare) *mcp.Server {
	tools := &taxonTools{dir: dir, compare: tc}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "taxdiff",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "taxon_info",
		Description: "Describe a taxonomic group. Returns a JSON object with its name, rank, parent, genome count and child group ids.",
	}, tools.handleTaxonInfo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sibling_tags",
		Description: "Compare the child groups of a parent group. Returns a JSON array of {tax_id, name, tags} with the tags distinguishing each child from its siblings.",
	}, tools.handleSiblingTags)

	slog.Debug("starting MCP server")
	return server
}

func textResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil
}

func (t *taxonTools) taxonInfo(ctx context.Context, id int) (*taxonInfo, error) {
	taxon, ok, err := t.dir.Taxon(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unknown group %d", id)
	}
	tree, err := t.dir.Tree(ctx)
	if err != nil {
		return nil, err
	}
	children := tree.Materialize()[id].Sorted()
	if children == nil {
		children = []int{}
	}
	return &taxonInfo{
		TaxID:    id,
		Name:     taxon.Name,
		Rank:     t.dir.Rank(id),
		ParentID: tree.Parent(id),
		Genomes:  taxon.Genomes.Len(),
		Children: children,
	}, nil
}

func (t *taxonTools) handleTaxonInfo(ctx context.Context, req *mcp.CallToolRequest, args taxonInfoArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("taxon_info called", "tax_id", args.TaxID)

	info, err := t.taxonInfo(ctx, args.TaxID)
	if err != nil {
		return nil, nil, fmt.Errorf("taxon_info failed: %w", err)
	}
	res, err := textResult(info)
	return res, nil, err
}

func (t *taxonTools) siblingTags(ctx context.Context, parentID int) ([]groupTags, error) {
	results, err := t.compare.SiblingTags(ctx, parentID)
	if err != nil {
		return nil, err
	}
	ids := idset.New[int](len(results))
	for id := range results {
		ids.Add(id)
	}
	names, err := t.dir.NameMap(ctx, ids)
	if err != nil {
		return nil, err
	}
	rows := compare.BuildReport(results, names)
	out := make([]groupTags, 0, len(rows))
	for _, r := range rows {
		list := r.Tags
		if list == nil {
			list = []string{}
		}
		out = append(out, groupTags{TaxID: r.TaxID, Name: r.Name, Tags: list})
	}
	return out, nil
}

func (t *taxonTools) handleSiblingTags(ctx context.Context, req *mcp.CallToolRequest, args siblingTagsArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("sibling_tags called", "parent_id", args.ParentID)

	rows, err := t.siblingTags(ctx, args.ParentID)
	if err != nil {
		return nil, nil, fmt.Errorf("sibling_tags failed: %w", err)
	}
	res, err := textResult(rows)
	return res, nil, err
}
