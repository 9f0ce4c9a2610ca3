package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
	"github.com/lthms/taxdiff/internal/tags"
)

// ErrSets reports genome sets that cannot be compared.
var ErrSets = errors.New("compare: invalid genome sets")

// ReadGenomeSet reads the genome ids in the first column of a tab-delimited
// file with a header.
func ReadGenomeSet(r io.Reader) (idset.Set[string], error) {
	tr, err := tabfile.NewReader(r, 0)
	if err != nil {
		return nil, err
	}
	set := idset.New[string](0)
	for tr.Next() {
		set.Add(tr.Get(0))
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// ValidateSets checks that the sets are disjoint and that every genome has a
// tag set in store.
func ValidateSets(ctx context.Context, store tags.Store, set1, set2 idset.Set[string]) error {
	if err := checkDisjoint(set1, set2); err != nil {
		return err
	}
	for _, set := range []idset.Set[string]{set1, set2} {
		for _, id := range set.Sorted() {
			ok, err := store.Has(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s is not present in the tag store", ErrSets, id)
			}
		}
	}
	return nil
}

func checkDisjoint(set1, set2 idset.Set[string]) error {
	for _, id := range set1.Sorted() {
		if set2.Has(id) {
			return fmt.Errorf("%w: %s is present in both sets", ErrSets, id)
		}
	}
	return nil
}

// WriteSetReport lists the tags distinguishing each set from the other, with
// their counts in both sets.
func WriteSetReport(w io.Writer, res *tags.SetComparison, tagName func(string) string) error {
	tw, err := tabfile.NewWriter(w, "set", "tag", "name", "count1", "count2")
	if err != nil {
		return err
	}
	for i, found := range []idset.Set[string]{res.Left, res.Right} {
		label := strconv.Itoa(i + 1)
		for _, tag := range found.Sorted() {
			err := tw.Write(label, tag, tagName(tag),
				strconv.Itoa(res.Counts1.Get(tag)), strconv.Itoa(res.Counts2.Get(tag)))
			if err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
