package tags

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/idset"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	set, err := s.Tags(ctx, "unknown.1")
	if err != nil {
		t.Fatalf("Tags(unknown): %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("unknown genome tags = %v, want empty", set.Sorted())
	}

	if err := s.Put(ctx, "562.1", idset.Of("PGF_1", "PGF_2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "562.1", idset.Of("PGF_2", "PGF_3")); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	if err := s.Put(ctx, "562.2", idset.New[string](0)); err != nil {
		t.Fatalf("Put empty: %v", err)
	}

	got, err := s.Tags(ctx, "562.1")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if diff := cmp.Diff([]string{"PGF_2", "PGF_3"}, got.Sorted()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	ok, err := s.Has(ctx, "562.2")
	if err != nil || !ok {
		t.Errorf("Has(562.2) = %v, %v; want true", ok, err)
	}
	ok, err = s.Has(ctx, "562.3")
	if err != nil || ok {
		t.Errorf("Has(562.3) = %v, %v; want false", ok, err)
	}
	n, err := s.Len(ctx)
	if err != nil || n != 2 {
		t.Errorf("Len = %d, %v; want 2", n, err)
	}

	counts, err := SetCounts(ctx, s, idset.Of("562.1", "562.2", "missing"))
	if err != nil {
		t.Fatalf("SetCounts: %v", err)
	}
	if diff := cmp.Diff(Counts{"PGF_2": 1, "PGF_3": 1}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, err = s.Len(ctx)
	if err != nil || n != 0 {
		t.Errorf("Len after Clear = %d, %v; want 0", n, err)
	}
}

func TestDir_Memory(t *testing.T) {
	d, err := OpenDir(context.Background(), blob.NewMemory())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	exerciseStore(t, d)
}

func TestDir_PutRejectsSlashInID(t *testing.T) {
	ctx := context.Background()
	d, err := OpenDir(ctx, blob.NewMemory())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	for _, id := range []string{"1280/4", "", "a/b/c"} {
		if err := d.Put(ctx, id, idset.Of("role1")); err == nil {
			t.Errorf("Put(%q) should fail", id)
		}
	}
	if ok, _ := d.Has(ctx, "1280/4"); ok {
		t.Error("rejected genome should not be recorded")
	}
}

func TestDir_ReopenFindsTagFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, err := blob.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	d, err := OpenDir(ctx, fs)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if err := d.Put(ctx, "1280.4", idset.Of("role1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("not a tag file"), 0o644); err != nil {
		t.Fatal(err)
	}

	again, err := OpenDir(ctx, fs)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	n, _ := again.Len(ctx)
	if n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
	set, err := again.Tags(ctx, "1280.4")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if !set.Equal(idset.Of("role1")) {
		t.Errorf("tags = %v, want [role1]", set.Sorted())
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "tags.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TAXDIFF_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TAXDIFF_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	exerciseStore(t, s)
}

func TestSQLStore_Rebind(t *testing.T) {
	s := &sqlStore{dollarPH: true}
	got := s.q(`INSERT INTO genome_tags (genome_id, tag) VALUES (?, ?)`)
	want := `INSERT INTO genome_tags (genome_id, tag) VALUES ($1, $2)`
	if got != want {
		t.Errorf("q = %q, want %q", got, want)
	}
	lite := &sqlStore{}
	if lite.q("a = ?") != "a = ?" {
		t.Error("sqlite queries must not be rebound")
	}
}

func TestOpenStore_Drivers(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenStore(ctx, StoreConfig{Driver: "cassandra"}, "x"); !errors.Is(err, ErrConfig) {
		t.Errorf("unknown driver err = %v, want ErrConfig", err)
	}
	if _, err := OpenStore(ctx, StoreConfig{Driver: DriverPostgres}, ""); !errors.Is(err, ErrConfig) {
		t.Errorf("postgres without dsn err = %v, want ErrConfig", err)
	}
	s, err := OpenStore(ctx, StoreConfig{Driver: DriverSQLite}, filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("OpenStore sqlite: %v", err)
	}
	s.Close()
	d, err := OpenStore(ctx, StoreConfig{}, filepath.Join(t.TempDir(), "tags"))
	if err != nil {
		t.Fatalf("OpenStore dir: %v", err)
	}
	if _, ok := d.(*Dir); !ok {
		t.Errorf("default driver = %T, want *Dir", d)
	}
}
