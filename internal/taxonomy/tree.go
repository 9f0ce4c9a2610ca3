package taxonomy

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

const (
	// RootID is the synthetic parent of every group with no parent link.
	RootID = 1
	// NoParent is returned by Parent for ids with no link.
	NoParent = -1
)

type link struct {
	parent int
	level  int
}

// Tree is the flat child-to-parent link map. For each child it keeps the
// parent observed at the highest rank level.
type Tree struct {
	links map[int]link
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{links: make(map[int]link)}
}

// AddLink records parent as the parent of child at the given rank level. An
// existing link is replaced only by one with a strictly higher level.
func (t *Tree) AddLink(child, parent, level int) {
	cur, ok := t.links[child]
	if !ok || level > cur.level {
		t.links[child] = link{parent: parent, level: level}
	}
}

// Parent returns the parent of child, or NoParent.
func (t *Tree) Parent(child int) int {
	l, ok := t.links[child]
	if !ok {
		return NoParent
	}
	return l.parent
}

// IsEmpty reports whether the tree holds no links.
func (t *Tree) IsEmpty() bool {
	return len(t.links) == 0
}

// Len returns the number of links.
func (t *Tree) Len() int {
	return len(t.links)
}

// Materialize inverts the links into a parent-to-children map. Groups that
// are never a child are collected under RootID. The result is rebuilt on
// every call.
func (t *Tree) Materialize() map[int]idset.Set[int] {
	roots := idset.New[int](0)
	for _, l := range t.links {
		roots.Add(l.parent)
	}
	out := make(map[int]idset.Set[int])
	for child, l := range t.links {
		roots.Remove(child)
		children, ok := out[l.parent]
		if !ok {
			children = idset.New[int](0)
			out[l.parent] = children
		}
		children.Add(child)
	}
	roots.Remove(RootID)
	top, ok := out[RootID]
	if !ok {
		top = idset.New[int](roots.Len())
		out[RootID] = top
	}
	for id := range roots {
		top.Add(id)
	}
	return out
}

// ReadTree parses a tree link file.
func ReadTree(r io.Reader) (*Tree, error) {
	tr, err := tabfile.NewReader(r, 3)
	if err != nil {
		return nil, err
	}
	t := NewTree()
	for tr.Next() {
		child, err := tr.Int(0)
		if err != nil {
			return nil, err
		}
		level, err := tr.Int(1)
		if err != nil {
			return nil, err
		}
		parent, err := tr.Int(2)
		if err != nil {
			return nil, err
		}
		t.links[child] = link{parent: parent, level: level}
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Write serializes the links in ascending child order.
func (t *Tree) Write(w io.Writer) error {
	tw, err := tabfile.NewWriter(w, "childId", "level", "parentId")
	if err != nil {
		return err
	}
	for _, child := range slices.Sorted(maps.Keys(t.links)) {
		l := t.links[child]
		if err := tw.Write(strconv.Itoa(child), strconv.Itoa(l.level), strconv.Itoa(l.parent)); err != nil {
			return fmt.Errorf("taxonomy: write link %d: %w", child, err)
		}
	}
	return tw.Flush()
}
