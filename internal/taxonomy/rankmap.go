package taxonomy

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

// Taxon is one group of a rank map.
type Taxon struct {
	ID      int
	Name    string
	Genomes idset.Set[string]
}

// RankMap holds, for a single rank, every group with its member genomes.
type RankMap struct {
	taxa map[int]*Taxon
}

// NewRankMap returns an empty rank map.
func NewRankMap() *RankMap {
	return &RankMap{taxa: make(map[int]*Taxon)}
}

// Add records genomeID as a member of the group described by item. The
// group's name is fixed by the first observation.
func (m *RankMap) Add(genomeID string, item genome.TaxItem) {
	t, ok := m.taxa[item.ID]
	if !ok {
		t = &Taxon{ID: item.ID, Name: item.Name, Genomes: idset.New[string](0)}
		m.taxa[item.ID] = t
	} else if item.Name != t.Name {
		slog.Warn("taxonomy: conflicting group name ignored", "tax_id", item.ID, "kept", t.Name, "ignored", item.Name)
	}
	t.Genomes.Add(genomeID)
}

// Taxon returns the group with the given id.
func (m *RankMap) Taxon(id int) (*Taxon, bool) {
	t, ok := m.taxa[id]
	return t, ok
}

// Members returns the member set of a group.
func (m *RankMap) Members(id int) (idset.Set[string], bool) {
	t, ok := m.taxa[id]
	if !ok {
		return nil, false
	}
	return t.Genomes, true
}

// IDs returns the group ids in ascending order.
func (m *RankMap) IDs() []int {
	ids := make([]int, 0, len(m.taxa))
	for id := range m.taxa {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of groups.
func (m *RankMap) Len() int {
	return len(m.taxa)
}

// ReadRankMap parses a rank map file.
func ReadRankMap(r io.Reader) (*RankMap, error) {
	tr, err := tabfile.NewReader(r, 3)
	if err != nil {
		return nil, err
	}
	m := NewRankMap()
	for tr.Next() {
		id, err := tr.Int(0)
		if err != nil {
			return nil, err
		}
		members := tabfile.SplitList(tr.Get(2))
		t := &Taxon{ID: id, Name: tr.Get(1), Genomes: idset.Of(members...)}
		m.taxa[id] = t
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Write serializes the rank map in ascending id order.
func (m *RankMap) Write(w io.Writer) error {
	tw, err := tabfile.NewWriter(w, "tax_id", "tax_name", "genomes")
	if err != nil {
		return err
	}
	for _, id := range m.IDs() {
		t := m.taxa[id]
		if err := tw.Write(strconv.Itoa(id), t.Name, strings.Join(t.Genomes.Sorted(), ",")); err != nil {
			return fmt.Errorf("taxonomy: write group %d: %w", id, err)
		}
	}
	return tw.Flush()
}
