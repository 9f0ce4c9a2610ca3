package genome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var fileSuffixes = []string{".gto", ".json", ".yaml", ".yml"}

// DirSource reads one genome document per file from a directory. Files are
// decoded lazily, so only one genome is held in memory at a time.
type DirSource struct {
	dir   string
	files []string
}

// OpenDir scans dir for genome documents.
func OpenDir(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("genome: read source dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !hasGenomeSuffix(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return &DirSource{dir: dir, files: files}, nil
}

func hasGenomeSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range fileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (s *DirSource) Len() int { return len(s.files) }

func (s *DirSource) Each(ctx context.Context, fn func(*Genome) error) error {
	for _, f := range s.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, err := ReadFile(f)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
	}
	return nil
}

// ErrNoTaxonomy is returned for a genome document without a lineage.
var ErrNoTaxonomy = errors.New("genome: no taxonomy")

// document is the on-disk layout: either the native fields or a GTO. In a
// GTO, taxonomy is a flat text lineage, ncbi_lineage lists [name, id, rank]
// triples from the root down, and family_assignments lists [type, id, ...]
// entries per feature.
type document struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	ScientificName string     `yaml:"scientific_name"`
	Taxonomy       yaml.Node  `yaml:"taxonomy"`
	Lineage        [][]string `yaml:"ncbi_lineage"`
	Features       []struct {
		Feature           `yaml:",inline"`
		FamilyAssignments [][]string `yaml:"family_assignments"`
	} `yaml:"features"`
}

// ReadFile decodes a single genome document. JSON documents are accepted as
// YAML, and GTO documents are mapped onto the native fields. A genome without
// an id takes the file's base name.
func ReadFile(path string) (*Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genome: read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("genome: parse %s: %w", path, err)
	}
	g, err := doc.genome()
	if err != nil {
		return nil, fmt.Errorf("genome: parse %s: %w", path, err)
	}
	if g.ID == "" {
		base := filepath.Base(path)
		g.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(g.Taxonomy) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTaxonomy, path)
	}
	return g, nil
}

func (d *document) genome() (*Genome, error) {
	g := &Genome{ID: d.ID, Name: d.Name}
	if g.Name == "" {
		g.Name = d.ScientificName
	}
	if d.Taxonomy.Kind == yaml.SequenceNode {
		if err := d.Taxonomy.Decode(&g.Taxonomy); err != nil {
			return nil, err
		}
	}
	if len(g.Taxonomy) == 0 {
		for i := len(d.Lineage) - 1; i >= 0; i-- {
			entry := d.Lineage[i]
			if len(entry) < 3 {
				return nil, fmt.Errorf("ncbi_lineage entry %d: want [name, id, rank], got %v", i, entry)
			}
			id, err := strconv.Atoi(strings.TrimSpace(entry[1]))
			if err != nil {
				return nil, fmt.Errorf("ncbi_lineage entry %d: bad id %q", i, entry[1])
			}
			g.Taxonomy = append(g.Taxonomy, TaxItem{ID: id, Name: entry[0], Rank: entry[2]})
		}
	}
	for _, f := range d.Features {
		feat := f.Feature
		if feat.PGFam == "" {
			for _, fam := range f.FamilyAssignments {
				if len(fam) >= 2 && strings.EqualFold(fam[0], "PGFAM") {
					feat.PGFam = fam[1]
					break
				}
			}
		}
		g.Features = append(g.Features, feat)
	}
	return g, nil
}
