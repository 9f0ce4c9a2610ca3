package tags

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/lthms/taxdiff/internal/idset"
)

// ErrConfig is returned for tuning fractions outside their valid ranges.
var ErrConfig = errors.New("tags: invalid configuration")

// Engine classifies tags as present, absent or ambiguous within a group and
// compares groups. It is immutable and safe for concurrent use.
type Engine struct {
	maxAbsent  float64
	minPresent float64
}

// NewEngine validates the tuning fractions. absent must lie in [0,1) and
// present in (0,1].
func NewEngine(absent, present float64) (*Engine, error) {
	if !(absent >= 0 && absent < 1) {
		return nil, fmt.Errorf("%w: absence fraction %g must be in [0,1)", ErrConfig, absent)
	}
	if !(present > 0 && present <= 1) {
		return nil, fmt.Errorf("%w: presence fraction %g must be in (0,1]", ErrConfig, present)
	}
	return &Engine{maxAbsent: absent, minPresent: present}, nil
}

// Thresholds returns the cutoffs for a group of n genomes: a tag is present
// with a count of at least present, and absent with a count of at most absent.
func (e *Engine) Thresholds(n int) (present, absent int) {
	present = int(math.Ceil(float64(n) * e.minPresent))
	absent = int(math.Floor(float64(n) * e.maxAbsent))
	return present, absent
}

// Profile holds the present and ambiguous tags of a group. Any other tag is
// absent.
type Profile struct {
	Present idset.Set[string]
	Semi    idset.Set[string]
}

// Profile classifies the tags of a group of n genomes.
func (e *Engine) Profile(c Counts, n int) Profile {
	presentMin, absentMax := e.Thresholds(n)
	p := Profile{Present: idset.New[string](0), Semi: idset.New[string](0)}
	for tag, count := range c {
		switch {
		case count <= 0:
		case count >= presentMin:
			p.Present.Add(tag)
		case count > absentMax:
			p.Semi.Add(tag)
		}
	}
	return p
}

func distinguishing(a, b Profile) idset.Set[string] {
	out := idset.New[string](0)
	for tag := range a.Present {
		if !b.Present.Has(tag) && !b.Semi.Has(tag) {
			out.Add(tag)
		}
	}
	return out
}

// Distinguish returns the tags present in left and absent in right, and the
// tags present in right and absent in left.
func (e *Engine) Distinguish(left, right Profile) (idset.Set[string], idset.Set[string]) {
	return distinguishing(left, right), distinguishing(right, left)
}

// DistinguishLeft returns the tags present in the left group and absent in
// the right one, classifying straight from the counts.
func (e *Engine) DistinguishLeft(left Counts, leftSize int, right Counts, rightSize int) idset.Set[string] {
	leftPresent, _ := e.Thresholds(leftSize)
	rightPresent, rightAbsent := e.Thresholds(rightSize)
	out := idset.New[string](0)
	for tag, count := range left {
		if count > 0 && count >= leftPresent && isAbsent(right.Get(tag), rightPresent, rightAbsent) {
			out.Add(tag)
		}
	}
	return out
}

// isAbsent mirrors Profile: a tag is absent when it is neither present nor
// ambiguous.
func isAbsent(count, present, absent int) bool {
	return count <= 0 || (count < present && count <= absent)
}

// SetComparison is the result of comparing two genome sets.
type SetComparison struct {
	Counts1, Counts2 Counts
	Left, Right      idset.Set[string]
}

// CompareSets counts both genome sets and distinguishes them in both
// directions.
func (e *Engine) CompareSets(ctx context.Context, l Lookup, set1, set2 idset.Set[string]) (*SetComparison, error) {
	c1, err := SetCounts(ctx, l, set1)
	if err != nil {
		return nil, err
	}
	c2, err := SetCounts(ctx, l, set2)
	if err != nil {
		return nil, err
	}
	left, right := e.Distinguish(e.Profile(c1, set1.Len()), e.Profile(c2, set2.Len()))
	return &SetComparison{Counts1: c1, Counts2: c2, Left: left, Right: right}, nil
}
