// Package scanner turns a genome's annotated features into a tag set.
package scanner

import (
	"fmt"
	"log/slog"

	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
)

// Scanner extracts tags from genomes.
type Scanner interface {
	// FeatureTags returns the tags of one feature.
	FeatureTags(f genome.Feature) []string
	// TagName returns a display name for a tag.
	TagName(tag string) string
}

// Type selects a scanner implementation.
type Type string

const (
	TypeRole  Type = "role"
	TypePGFam Type = "pgfam"
)

// New builds a scanner of the given type. roleFile is only read by the role
// scanner.
func New(t Type, roleFile string) (Scanner, error) {
	switch t {
	case TypeRole:
		roles, err := LoadRoleMap(roleFile)
		if err != nil {
			return nil, err
		}
		slog.Info("scanner: role definitions loaded", "file", roleFile, "roles", roles.Len())
		return &RoleScanner{roles: roles}, nil
	case TypePGFam:
		return PGFamScanner{}, nil
	default:
		return nil, fmt.Errorf("scanner: unknown type %q", t)
	}
}

// GenomeTags returns the union of the tags of every protein-coding feature.
func GenomeTags(s Scanner, g *genome.Genome) idset.Set[string] {
	out := idset.New[string](0)
	for _, f := range g.Features {
		if !f.IsCDS() {
			continue
		}
		for _, tag := range s.FeatureTags(f) {
			out.Add(tag)
		}
	}
	return out
}

// PGFamScanner tags features with their global protein family.
type PGFamScanner struct{}

func (PGFamScanner) FeatureTags(f genome.Feature) []string {
	if f.PGFam == "" {
		return nil
	}
	return []string{f.PGFam}
}

func (PGFamScanner) TagName(tag string) string { return tag }

// RoleScanner tags features with the ids of the known roles in their
// functional assignment.
type RoleScanner struct {
	roles *RoleMap
}

func (s *RoleScanner) FeatureTags(f genome.Feature) []string {
	var out []string
	for _, name := range SplitRoles(f.Function) {
		if id, ok := s.roles.ID(name); ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *RoleScanner) TagName(tag string) string {
	if name, ok := s.roles.Name(tag); ok {
		return name
	}
	return tag
}
