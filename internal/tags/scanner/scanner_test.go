package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lthms/taxdiff/internal/genome"
)

const roleFile = "ThrOperLead\t2c7b5b1a\tThr operon leader peptide\n" +
	"AlanRace\t8fd1a2b3\tAlanine racemase (EC 5.1.1.1)\n" +
	"# retired roles\n" +
	"\n" +
	"GlyDehy\t00aa11bb\tGlycine dehydrogenase [decarboxylating] (glycine cleavage system P protein)\n"

func writeRoles(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "roles.in.subsystems")
	if err := os.WriteFile(p, []byte(roleFile), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testGenome() *genome.Genome {
	return &genome.Genome{
		ID: "511145.12",
		Features: []genome.Feature{
			{ID: "peg.1", Type: "CDS", Function: "Thr operon leader peptide", PGFam: "PGF_00000001"},
			{ID: "peg.2", Type: "CDS", Function: "alanine  racemase / Hypothetical protein # frameshift", PGFam: "PGF_00000002"},
			{ID: "peg.3", Type: "CDS", Function: "Glycine dehydrogenase [decarboxylating] (glycine cleavage system P protein) @ Thr operon leader peptide"},
			{ID: "rna.1", Type: "rna", Function: "Alanine racemase", PGFam: "PGF_99999999"},
		},
	}
}

func TestSplitRoles(t *testing.T) {
	got := SplitRoles("Role A / Role B @ Role C ; Role D # comment / Role E")
	if diff := cmp.Diff([]string{"Role A", "Role B", "Role C", "Role D"}, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if SplitRoles("  # only a comment") != nil {
		t.Error("comment-only function should have no roles")
	}
}

func TestRoleScanner(t *testing.T) {
	s, err := New(TypeRole, writeRoles(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := GenomeTags(s, testGenome()).Sorted()
	if diff := cmp.Diff([]string{"AlanRace", "GlyDehy", "ThrOperLead"}, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if name := s.TagName("AlanRace"); name != "Alanine racemase (EC 5.1.1.1)" {
		t.Errorf("TagName = %q", name)
	}
	if name := s.TagName("Unknown"); name != "Unknown" {
		t.Errorf("TagName of unknown tag = %q, want the tag", name)
	}
}

func TestPGFamScanner(t *testing.T) {
	s, err := New(TypePGFam, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := GenomeTags(s, testGenome()).Sorted()
	if diff := cmp.Diff([]string{"PGF_00000001", "PGF_00000002"}, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if s.TagName("PGF_00000001") != "PGF_00000001" {
		t.Error("family name should be the tag itself")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("kmer", ""); err == nil {
		t.Error("unknown type should fail")
	}
	if _, err := New(TypeRole, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing role file should fail")
	}
}

func TestLoadRoleMap_Malformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "roles")
	if err := os.WriteFile(p, []byte("lonely\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoleMap(p); err == nil {
		t.Fatal("expected error for single-column line")
	}
}
