package tags

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

func TestCounts_IncAndGet(t *testing.T) {
	c := NewCounts()
	if got := c.Get("PGF_1"); got != 0 {
		t.Errorf("unseen tag = %d, want 0", got)
	}
	c.Inc("PGF_1", 1)
	if got := c.Inc("PGF_1", 3); got != 4 {
		t.Errorf("Inc = %d, want 4", got)
	}
	c.CountSet(idset.Of("PGF_1", "PGF_2"))
	if diff := cmp.Diff(Counts{"PGF_1": 5, "PGF_2": 1}, c); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCounts_MergeAndMinus(t *testing.T) {
	a := Counts{"x": 3, "y": 1}
	b := Counts{"x": 1, "z": 2}
	total := NewCounts()
	total.Merge(a)
	total.Merge(b)
	if diff := cmp.Diff(Counts{"x": 4, "y": 1, "z": 2}, total); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a, total.Minus(b)); diff != "" {
		t.Errorf("minus mismatch (-want +got):\n%s", diff)
	}
	if got := a.Minus(b).Get("z"); got != -2 {
		t.Errorf("minus of unrelated counter: z = %d, want -2", got)
	}
}

func TestCounts_RoundTrip(t *testing.T) {
	c := Counts{"Alanine racemase": 12, "PGF_00000001": 3, "b": 3}
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "tag\tcount\nAlanine racemase\t12\nPGF_00000001\t3\nb\t3\n"
	if buf.String() != want {
		t.Errorf("serialized = %q, want %q", buf.String(), want)
	}
	loaded, err := ReadCounts(&buf)
	if err != nil {
		t.Fatalf("ReadCounts: %v", err)
	}
	if diff := cmp.Diff(c, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCounts_Malformed(t *testing.T) {
	_, err := ReadCounts(strings.NewReader("tag\tcount\nx\tmany\n"))
	if !errors.Is(err, tabfile.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}
