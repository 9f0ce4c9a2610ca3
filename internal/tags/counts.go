// Package tags counts feature tags over genome sets and finds the tags that
// separate one group of genomes from another.
package tags

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

// Counts is a sparse counter over tag strings. Missing tags count zero.
type Counts map[string]int

// NewCounts returns an empty counter.
func NewCounts() Counts {
	return make(Counts)
}

// Inc adds n to the count of tag and returns the new count.
func (c Counts) Inc(tag string, n int) int {
	c[tag] += n
	return c[tag]
}

// Get returns the count of tag.
func (c Counts) Get(tag string) int {
	return c[tag]
}

// CountSet adds one for every tag in the set.
func (c Counts) CountSet(set idset.Set[string]) {
	for tag := range set {
		c[tag]++
	}
}

// Merge adds every count of other into c.
func (c Counts) Merge(other Counts) {
	for tag, n := range other {
		c[tag] += n
	}
}

// Minus returns a new counter holding c minus other. It assumes other was
// counted over a subset of the genomes behind c; otherwise counts can go
// negative.
func (c Counts) Minus(other Counts) Counts {
	out := make(Counts, len(c))
	for tag, n := range c {
		if rest := n - other[tag]; rest != 0 {
			out[tag] = rest
		}
	}
	for tag, n := range other {
		if _, ok := c[tag]; !ok {
			out[tag] = -n
		}
	}
	return out
}

// TagCount is one entry of a sorted count listing.
type TagCount struct {
	Tag   string
	Count int
}

// Sorted lists the counts from highest to lowest, ties broken by tag.
func (c Counts) Sorted() []TagCount {
	out := make([]TagCount, 0, len(c))
	for tag, n := range c {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return out
}

// ReadCounts parses a counts file.
func ReadCounts(r io.Reader) (Counts, error) {
	tr, err := tabfile.NewReader(r, 2)
	if err != nil {
		return nil, err
	}
	c := NewCounts()
	for tr.Next() {
		n, err := tr.Int(1)
		if err != nil {
			return nil, err
		}
		c[tr.Get(0)] = n
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write serializes the counts in Sorted order.
func (c Counts) Write(w io.Writer) error {
	tw, err := tabfile.NewWriter(w, "tag", "count")
	if err != nil {
		return err
	}
	for _, tc := range c.Sorted() {
		if err := tw.Write(tc.Tag, strconv.Itoa(tc.Count)); err != nil {
			return fmt.Errorf("tags: write count for %q: %w", tc.Tag, err)
		}
	}
	return tw.Flush()
}
