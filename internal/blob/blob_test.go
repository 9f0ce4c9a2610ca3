package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
	if err := PutString(ctx, s, "gen-000001/tree.links", "one"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := PutString(ctx, s, "gen-000001/tree.links", "two"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if err := PutString(ctx, s, "CURRENT", "gen-000001"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, err := ReadAll(ctx, s, "gen-000001/tree.links")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(b) != "two" {
		t.Errorf("content = %q, want %q", b, "two")
	}

	keys, err := s.List(ctx, "gen-")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"gen-000001/tree.links"}, keys); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := DeletePrefix(ctx, s, "gen-"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if err := s.Delete(ctx, "gen-000001/tree.links"); err != nil {
		t.Fatalf("Delete of missing key should succeed: %v", err)
	}
	keys, err = s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"CURRENT"}, keys); diff != "" {
		t.Errorf("List after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestMemory_Store(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFS_Store(t *testing.T) {
	s, err := NewFS(filepath.Join(t.TempDir(), "tax"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	exerciseStore(t, s)
}

func TestStore_UncleanKeys(t *testing.T) {
	fsStore, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for _, s := range []Store{NewMemory(), fsStore} {
		t.Run(string(s.Driver()), func(t *testing.T) {
			ctx := context.Background()
			if err := PutString(ctx, s, "gen-000001//tree.links", "links"); err != nil {
				t.Fatalf("Put: %v", err)
			}
			for _, key := range []string{"gen-000001//tree.links", "gen-000001/./tree.links", "gen-000001/tree.links"} {
				data, err := ReadAll(ctx, s, key)
				if err != nil {
					t.Fatalf("Get(%q): %v", key, err)
				}
				if string(data) != "links" {
					t.Errorf("Get(%q) = %q, want links", key, data)
				}
			}
			if err := s.Delete(ctx, "gen-000001//tree.links"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "gen-000001/tree.links"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete err = %v, want ErrNotFound", err)
			}
			if _, err := s.Get(ctx, "../outside"); err == nil || errors.Is(err, ErrNotFound) {
				t.Errorf("Get(../outside) err = %v, want key error", err)
			}
		})
	}
}

func TestFS_ListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tmpPrefix+"123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	keys, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List = %v, want no keys", keys)
	}
}

func TestCleanKey_RejectsEscapes(t *testing.T) {
	for _, key := range []string{"", "/abs", "../up", "a/../../up"} {
		if _, err := cleanKey(key); err == nil {
			t.Errorf("cleanKey(%q) should fail", key)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "ftp"}, "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{"": "", "/": "", "tax": "tax/", "/runs/tax/": "runs/tax/"}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
