// Package taxonomy maintains the grouping directory: per-rank membership maps,
// the child-to-parent link tree, and the id-to-rank index.
package taxonomy

// Ranks lists the tracked taxonomic ranks from coarsest to finest. A rank's
// index is its level.
var Ranks = []string{"superkingdom", "phylum", "class", "order", "family", "genus", "species"}

// RankLevel returns the level of rank, or -1 if the rank is not tracked.
func RankLevel(rank string) int {
	for i, r := range Ranks {
		if r == rank {
			return i
		}
	}
	return -1
}
