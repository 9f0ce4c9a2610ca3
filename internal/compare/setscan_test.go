package compare

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tags"
	"github.com/lthms/taxdiff/internal/tags/scanner"
)

func newSetScan(t *testing.T, keep bool) (*SetScan, tags.Store) {
	t.Helper()
	src, sets := scenario()
	tagLists := make(map[string][]string, len(sets))
	for id, s := range sets {
		tagLists[id] = s.Sorted()
	}
	store, err := tags.OpenDir(context.Background(), blob.NewMemory())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	scan, err := scanner.New(scanner.TypePGFam, "")
	if err != nil {
		t.Fatalf("scanner.New: %v", err)
	}
	return &SetScan{
		Source:   withFeatures(src, tagLists),
		Tags:     store,
		Scanner:  scan,
		Engine:   newEngine(t),
		KeepTags: keep,
	}, store
}

func TestSetScan_Run(t *testing.T) {
	ctx := context.Background()
	s, store := newSetScan(t, false)
	// A leftover genome must not survive the initial erase.
	if err := store.Put(ctx, "stale", idset.Of("X")); err != nil {
		t.Fatal(err)
	}

	set1 := idset.Of("101.1", "101.2", "101.3", "101.4", "101.5")
	set2 := idset.Of("201.1", "201.2", "201.3", "201.4", "201.5")
	var buf bytes.Buffer
	if err := s.Run(ctx, set1, set2, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "set\ttag\tname\tcount1\tcount2\n" +
		"1\tA\tA\t5\t0\n" +
		"2\tB1\tB1\t0\t5\n" +
		"2\tT\tT\t0\t5\n"
	if buf.String() != want {
		t.Errorf("report = %q, want %q", buf.String(), want)
	}
	if n, err := store.Len(ctx); err != nil || n != 0 {
		t.Errorf("store Len = %d, %v; want 0 after run", n, err)
	}
}

func TestSetScan_KeepTags(t *testing.T) {
	ctx := context.Background()
	s, store := newSetScan(t, true)
	var buf bytes.Buffer
	if err := s.Run(ctx, idset.Of("101.1", "101.2"), idset.Of("202.1"), &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n, err := store.Len(ctx); err != nil || n != 3 {
		t.Errorf("store Len = %d, %v; want 3 kept genomes", n, err)
	}
}

func TestSetScan_InvalidSets(t *testing.T) {
	ctx := context.Background()
	cases := map[string][2]idset.Set[string]{
		"overlap":          {idset.Of("101.1", "201.1"), idset.Of("201.1")},
		"missing genome":   {idset.Of("101.1"), idset.Of("999.1")},
		"missing in first": {idset.Of("999.2"), idset.Of("201.1")},
	}
	for name, sets := range cases {
		t.Run(name, func(t *testing.T) {
			s, _ := newSetScan(t, false)
			var buf bytes.Buffer
			if err := s.Run(ctx, sets[0], sets[1], &buf); !errors.Is(err, ErrSets) {
				t.Errorf("err = %v, want ErrSets", err)
			}
			if buf.Len() != 0 {
				t.Errorf("report written for invalid sets: %q", buf.String())
			}
		})
	}
}
