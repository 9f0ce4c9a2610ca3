package taxonomy

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

func sortedView(view map[int]idset.Set[int]) map[int][]int {
	out := make(map[int][]int, len(view))
	for parent, children := range view {
		out[parent] = children.Sorted()
	}
	return out
}

func TestTree_Materialize(t *testing.T) {
	tree := NewTree()
	if !tree.IsEmpty() {
		t.Fatal("new tree should be empty")
	}
	tree.AddLink(9, 99, 1)
	if tree.IsEmpty() {
		t.Fatal("tree with a link should not be empty")
	}
	tree.AddLink(7, 3, 3)
	tree.AddLink(4, 2, 3)
	tree.AddLink(11, 10, 5)
	tree.AddLink(6, 2, 3)
	tree.AddLink(2, 99, 1)
	tree.AddLink(9, 7, 5)
	tree.AddLink(10, 3, 3)
	tree.AddLink(3, 99, 1)
	tree.AddLink(12, 11, 6)
	tree.AddLink(6, 2, 3)
	tree.AddLink(5, 2, 3)
	tree.AddLink(8, 7, 5)

	want := map[int][]int{
		RootID: {99},
		99:     {2, 3},
		2:      {4, 5, 6},
		3:      {7, 10},
		7:      {8, 9},
		10:     {11},
		11:     {12},
	}
	if diff := cmp.Diff(want, sortedView(tree.Materialize())); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_HighestLevelWinsRegardlessOfOrder(t *testing.T) {
	orders := [][]struct{ parent, level int }{
		{{100, 1}, {200, 4}, {300, 2}},
		{{200, 4}, {300, 2}, {100, 1}},
		{{300, 2}, {100, 1}, {200, 4}},
	}
	for _, calls := range orders {
		tree := NewTree()
		for _, c := range calls {
			tree.AddLink(50, c.parent, c.level)
		}
		if got := tree.Parent(50); got != 200 {
			t.Errorf("calls %v: parent = %d, want 200", calls, got)
		}
	}
}

func TestTree_EqualLevelKeepsExisting(t *testing.T) {
	tree := NewTree()
	tree.AddLink(5, 10, 3)
	tree.AddLink(5, 20, 3)
	if got := tree.Parent(5); got != 10 {
		t.Errorf("parent = %d, want 10", got)
	}
}

func TestTree_EmptyMaterialize(t *testing.T) {
	view := NewTree().Materialize()
	if len(view) != 1 {
		t.Fatalf("view = %v, want only the root", view)
	}
	root, ok := view[RootID]
	if !ok || root.Len() != 0 {
		t.Errorf("root = %v, want empty set", root)
	}
}

func TestTree_ParentMissing(t *testing.T) {
	if got := NewTree().Parent(42); got != NoParent {
		t.Errorf("Parent = %d, want NoParent", got)
	}
}

func TestTree_RoundTrip(t *testing.T) {
	tree := NewTree()
	tree.AddLink(562, 561, 5)
	tree.AddLink(561, 543, 4)
	tree.AddLink(543, 91347, 3)

	var buf bytes.Buffer
	if err := tree.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "childId\tlevel\tparentId\n") {
		t.Errorf("missing header: %q", buf.String())
	}
	loaded, err := ReadTree(&buf)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if diff := cmp.Diff(tree.links, loaded.links, cmp.AllowUnexported(link{})); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTree_RejectsBadLevel(t *testing.T) {
	_, err := ReadTree(strings.NewReader("childId\tlevel\tparentId\n5\tx\t3\n"))
	if !errors.Is(err, tabfile.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}
