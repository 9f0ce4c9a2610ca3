package compare

import (
	"context"
	"io"
	"strconv"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
	"github.com/lthms/taxdiff/internal/taxonomy"
)

// UnknownChangeName stands in for unnamed groups in a change report.
const UnknownChangeName = "<unknown>"

// ChangeReporter writes, for one genome, the distinguishing tags it carries
// at each level of its lineage.
type ChangeReporter struct {
	dir     *taxonomy.Directory
	tree    *taxonomy.Tree
	results map[int]idset.Set[string]
	names   map[int]string
	tagName func(string) string
}

// NewChangeReporter resolves the names of every compared group and its parent.
func NewChangeReporter(ctx context.Context, dir *taxonomy.Directory, results map[int]idset.Set[string], tagName func(string) string) (*ChangeReporter, error) {
	tree, err := dir.Tree(ctx)
	if err != nil {
		return nil, err
	}
	ids := idset.New[int](len(results) * 2)
	for id := range results {
		ids.Add(id)
		if p := tree.Parent(id); p != taxonomy.NoParent {
			ids.Add(p)
		}
	}
	names, err := dir.NameMap(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &ChangeReporter{dir: dir, tree: tree, results: results, names: names, tagName: tagName}, nil
}

func (r *ChangeReporter) name(id int) string {
	if n, ok := r.names[id]; ok {
		return n
	}
	return UnknownChangeName
}

// Write walks the genome's lineage from the most specific group upward. Each
// distinguishing tag the genome carries is reported once, at the most
// specific group where it distinguishes.
func (r *ChangeReporter) Write(w io.Writer, g *genome.Genome, genomeTags idset.Set[string]) error {
	tw, err := tabfile.NewWriter(w, "genome_id", "genome_name", "tax_id", "rank", "name",
		"parent_id", "parent_rank", "parent_name", "tag_name")
	if err != nil {
		return err
	}
	remaining := genomeTags.Clone()
	for _, item := range g.Taxonomy {
		parent := r.tree.Parent(item.ID)
		if parent == taxonomy.NoParent {
			continue
		}
		found, ok := r.results[item.ID]
		if !ok {
			continue
		}
		for _, tag := range found.Sorted() {
			if !remaining.Has(tag) {
				continue
			}
			err := tw.Write(g.ID, g.Name, strconv.Itoa(item.ID), r.dir.Rank(item.ID), r.name(item.ID),
				strconv.Itoa(parent), r.dir.Rank(parent), r.name(parent), r.tagName(tag))
			if err != nil {
				return err
			}
			remaining.Remove(tag)
		}
	}
	return tw.Flush()
}
