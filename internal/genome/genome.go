// Package genome describes classified genomes and the sources that supply
// them to the taxonomy and tag builders.
package genome

import (
	"context"
	"strings"
)

// TaxItem is one ancestor of a genome's classification.
type TaxItem struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Rank string `yaml:"rank"`
}

// Feature is an annotated region of a genome.
type Feature struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Function string `yaml:"function"`
	PGFam    string `yaml:"pgfam"`
}

// IsCDS reports whether the feature is a protein-coding region.
func (f Feature) IsCDS() bool {
	return strings.EqualFold(f.Type, "CDS")
}

// Genome is a single classified entity. Taxonomy is ordered from the most
// specific ancestor to the least specific.
type Genome struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Taxonomy []TaxItem `yaml:"taxonomy"`
	Features []Feature `yaml:"features"`
}

// Source supplies genomes. Each visits every genome once, in a stable order,
// and stops at the first error returned by fn.
type Source interface {
	Len() int
	Each(ctx context.Context, fn func(*Genome) error) error
}

// SliceSource is a Source over genomes already in memory.
type SliceSource []*Genome

func (s SliceSource) Len() int { return len(s) }

func (s SliceSource) Each(ctx context.Context, fn func(*Genome) error) error {
	for _, g := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
	}
	return nil
}
