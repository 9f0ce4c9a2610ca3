package compare

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

// UnknownName stands in for groups missing from the directory.
const UnknownName = "<< unknown >>"

// Format selects the report encoding.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatYAML Format = "yaml"
)

// GroupTags is one row of the distinguishing-tag report.
type GroupTags struct {
	TaxID int      `yaml:"tax_id"`
	Name  string   `yaml:"name"`
	Tags  []string `yaml:"tags"`
}

// BuildReport orders the comparison results by group id and attaches names.
func BuildReport(results map[int]idset.Set[string], names map[int]string) []GroupTags {
	rows := make([]GroupTags, 0, len(results))
	for id, set := range results {
		name, ok := names[id]
		if !ok {
			name = UnknownName
		}
		rows = append(rows, GroupTags{TaxID: id, Name: name, Tags: set.Sorted()})
	}
	slices.SortFunc(rows, func(a, b GroupTags) int { return a.TaxID - b.TaxID })
	return rows
}

// WriteReport renders rows as a tab-delimited table (tags comma-joined) or as
// a YAML list.
func WriteReport(w io.Writer, rows []GroupTags, format Format) error {
	switch format {
	case "", FormatTSV:
		tw, err := tabfile.NewWriter(w, "tax_id", "name", "tags")
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := tw.Write(strconv.Itoa(r.TaxID), r.Name, strings.Join(r.Tags, ",")); err != nil {
				return err
			}
		}
		return tw.Flush()
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("compare: encode report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("compare: unknown report format %q", format)
	}
}
