package tabfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "id", "name", "members")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write("10", "Escherichia", "a,b"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write("11", "Empty", ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r, err := NewReader(&buf, 3)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var got [][]string
	for r.Next() {
		got = append(got, append([]string(nil), r.Fields()...))
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := [][]string{{"10", "Escherichia", "a,b"}, {"11", "Empty", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReader_WrongColumnCount(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\tb\n1\t2\n3\n"), 2)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for r.Next() {
	}
	if !errors.Is(r.Err(), ErrFormat) {
		t.Fatalf("Err = %v, want ErrFormat", r.Err())
	}
	if !strings.Contains(r.Err().Error(), "line 3") {
		t.Errorf("error should name the bad line: %v", r.Err())
	}
}

func TestReader_MissingHeader(t *testing.T) {
	if _, err := NewReader(strings.NewReader(""), 2); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	if _, err := NewReader(strings.NewReader("only\n"), 2); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestReader_IntRejectsText(t *testing.T) {
	r, err := NewReader(strings.NewReader("id\nabc\n"), 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if !r.Next() {
		t.Fatalf("Next: %v", r.Err())
	}
	if _, err := r.Int(0); !errors.Is(err, ErrFormat) {
		t.Fatalf("Int err = %v, want ErrFormat", err)
	}
}

func TestWriter_RejectsEmbeddedTab(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, "a")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write("x\ty"); !errors.Is(err, ErrFormat) {
		t.Fatalf("Write err = %v, want ErrFormat", err)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, ,b,")
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("SplitList mismatch (-want +got):\n%s", diff)
	}
	if SplitList("") != nil {
		t.Error("SplitList of empty string should be nil")
	}
}

func TestReader_ColumnsFromHeader(t *testing.T) {
	r, err := NewReader(strings.NewReader("genome_id\tname\n562.1\tE. coli\n562.2\n"), 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if !r.Next() || r.Get(0) != "562.1" {
		t.Fatalf("first record = %v, err %v", r.Fields(), r.Err())
	}
	if r.Next() {
		t.Fatal("short record should stop the reader")
	}
	if !errors.Is(r.Err(), ErrFormat) {
		t.Fatalf("Err = %v, want ErrFormat", r.Err())
	}
}
