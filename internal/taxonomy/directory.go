package taxonomy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lthms/taxdiff/internal/blob"
	"github.com/lthms/taxdiff/internal/genome"
	"github.com/lthms/taxdiff/internal/idset"
	"github.com/lthms/taxdiff/internal/tabfile"
)

// ErrStore is returned when the backing location cannot be created or read.
var ErrStore = errors.New("taxonomy: backing store unavailable")

const (
	currentKey     = "CURRENT"
	treeName       = "tree.links"
	rankIndexName  = "rank.index"
	rankFileSuffix = ".tax"
	progressEvery  = 5 * time.Second
)

func genPrefix(gen int) string {
	return fmt.Sprintf("gen-%06d/", gen)
}

func parseGeneration(s string) (int, error) {
	var gen int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "gen-%d", &gen); err != nil {
		return 0, fmt.Errorf("%w: bad %s pointer %q", tabfile.ErrFormat, currentKey, s)
	}
	return gen, nil
}

// Directory is a taxonomy directory on a blob store. Every committed state is
// written under its own generation prefix and published by rewriting the
// CURRENT key, so readers never see a partial save. A Directory is safe for
// concurrent readers; Update and Clear must not run alongside them.
type Directory struct {
	store blob.Store

	mu        sync.Mutex
	gen       int
	rankIndex map[int]string
	rankMaps  map[string]*RankMap
}

// Open attaches to the directory on store, initializing an empty generation
// if the location holds none.
func Open(ctx context.Context, store blob.Store) (*Directory, error) {
	d := &Directory{store: store}
	raw, err := blob.ReadAll(ctx, store, currentKey)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		slog.Info("taxonomy: initializing empty directory", "driver", store.Driver())
		if err := d.writeGeneration(ctx, 0, NewTree(), emptyRankMaps(), map[int]string{}); err != nil {
			return nil, err
		}
		if err := d.publish(ctx, 0); err != nil {
			return nil, err
		}
		d.rankIndex = map[int]string{}
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %w", ErrStore, currentKey, err)
	default:
		gen, err := parseGeneration(string(raw))
		if err != nil {
			return nil, err
		}
		d.gen = gen
		idx, err := d.loadRankIndex(ctx)
		if err != nil {
			return nil, err
		}
		d.rankIndex = idx
		slog.Info("taxonomy: directory opened", "generation", gen, "groups", len(idx))
	}
	d.rankMaps = make(map[string]*RankMap)
	return d, nil
}

func emptyRankMaps() []*RankMap {
	out := make([]*RankMap, len(Ranks))
	for i := range out {
		out[i] = NewRankMap()
	}
	return out
}

// Generation returns the number of the live generation.
func (d *Directory) Generation() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

func (d *Directory) key(name string) string {
	return genPrefix(d.gen) + name
}

func (d *Directory) get(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := d.store.Get(ctx, d.key(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStore, name, err)
	}
	return rc, nil
}

func (d *Directory) loadRankIndex(ctx context.Context) (map[int]string, error) {
	rc, err := d.get(ctx, rankIndexName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	tr, err := tabfile.NewReader(rc, 2)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %s: %w", rankIndexName, err)
	}
	idx := make(map[int]string)
	for tr.Next() {
		id, err := tr.Int(0)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: %s: %w", rankIndexName, err)
		}
		idx[id] = tr.Get(1)
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("taxonomy: %s: %w", rankIndexName, err)
	}
	return idx, nil
}

func (d *Directory) loadTree(ctx context.Context) (*Tree, error) {
	rc, err := d.get(ctx, treeName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := ReadTree(rc)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %s: %w", treeName, err)
	}
	return t, nil
}

func (d *Directory) loadRankMap(ctx context.Context, rank string) (*RankMap, error) {
	name := rank + rankFileSuffix
	rc, err := d.get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	m, err := ReadRankMap(rc)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %s: %w", name, err)
	}
	return m, nil
}

// Rank returns the rank of a group, or "" if the id is unknown.
func (d *Directory) Rank(id int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rankIndex[id]
}

// RankMap returns the membership map of a rank. Maps are loaded once and
// shared; callers must not modify them. An untracked rank yields an empty map.
func (d *Directory) RankMap(ctx context.Context, rank string) (*RankMap, error) {
	if RankLevel(rank) < 0 {
		return NewRankMap(), nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.rankMaps[rank]; ok {
		return m, nil
	}
	m, err := d.loadRankMap(ctx, rank)
	if err != nil {
		return nil, err
	}
	d.rankMaps[rank] = m
	return m, nil
}

// Taxon returns the group record for id.
func (d *Directory) Taxon(ctx context.Context, id int) (*Taxon, bool, error) {
	rank := d.Rank(id)
	if rank == "" {
		return nil, false, nil
	}
	m, err := d.RankMap(ctx, rank)
	if err != nil {
		return nil, false, err
	}
	t, ok := m.Taxon(id)
	return t, ok, nil
}

// GenomeSets returns the member set of every requested group. Unknown ids map
// to an empty set.
func (d *Directory) GenomeSets(ctx context.Context, ids idset.Set[int]) (map[int]idset.Set[string], error) {
	out := make(map[int]idset.Set[string], ids.Len())
	for id := range ids {
		t, ok, err := d.Taxon(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			out[id] = idset.New[string](0)
			continue
		}
		out[id] = t.Genomes
	}
	return out, nil
}

// NameMap returns the names of the requested groups. Unknown ids are omitted.
func (d *Directory) NameMap(ctx context.Context, ids idset.Set[int]) (map[int]string, error) {
	out := make(map[int]string, ids.Len())
	for id := range ids {
		t, ok, err := d.Taxon(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = t.Name
		}
	}
	return out, nil
}

// Tree loads the flat link tree.
func (d *Directory) Tree(ctx context.Context) (*Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadTree(ctx)
}

// TaxTree returns the materialized parent-to-children view.
func (d *Directory) TaxTree(ctx context.Context) (map[int]idset.Set[int], error) {
	t, err := d.Tree(ctx)
	if err != nil {
		return nil, err
	}
	view := t.Materialize()
	slog.Info("taxonomy: tree materialized", "parents", len(view), "links", t.Len())
	return view, nil
}

// Update ingests every genome of src into the directory and commits the
// result as a new generation. Each genome's taxonomy is walked from child to
// parent; every tracked ancestor gains the genome as a member and is linked
// as parent of the previous tracked ancestor. The whole directory is held in
// memory for the duration.
func (d *Directory) Update(ctx context.Context, src genome.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tree, err := d.loadTree(ctx)
	if err != nil {
		return err
	}
	rankMaps := make([]*RankMap, len(Ranks))
	for i, rank := range Ranks {
		if rankMaps[i], err = d.loadRankMap(ctx, rank); err != nil {
			return err
		}
	}
	rankIndex := maps.Clone(d.rankIndex)

	total := src.Len()
	var genomes, memberships int
	lastLog := time.Now()
	err = src.Each(ctx, func(g *genome.Genome) error {
		genomes++
		lastChild := NoParent
		for _, item := range g.Taxonomy {
			level := RankLevel(item.Rank)
			if level < 0 {
				continue
			}
			rankMaps[level].Add(g.ID, item)
			memberships++
			if lastChild >= 0 {
				tree.AddLink(lastChild, item.ID, level)
			}
			lastChild = item.ID
			rankIndex[item.ID] = item.Rank
		}
		if time.Since(lastLog) >= progressEvery {
			slog.Info("taxonomy: ingesting genomes", "done", genomes, "total", total)
			lastLog = time.Now()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("taxonomy: ingest: %w", err)
	}
	slog.Info("taxonomy: genomes ingested", "genomes", genomes, "memberships", memberships)

	next := d.gen + 1
	if err := d.writeGeneration(ctx, next, tree, rankMaps, rankIndex); err != nil {
		return err
	}
	if err := d.publish(ctx, next); err != nil {
		return err
	}
	old := d.gen
	d.gen = next
	d.rankIndex = rankIndex
	d.rankMaps = make(map[string]*RankMap)
	if err := blob.DeletePrefix(ctx, d.store, genPrefix(old)); err != nil {
		slog.Warn("taxonomy: could not remove old generation", "generation", old, "error", err)
	}
	slog.Info("taxonomy: directory saved", "generation", next, "groups", len(rankIndex), "links", tree.Len())
	return nil
}

// Clear removes every key and leaves an empty generation behind.
func (d *Directory) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := blob.DeletePrefix(ctx, d.store, ""); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrStore, err)
	}
	if err := d.writeGeneration(ctx, 0, NewTree(), emptyRankMaps(), map[int]string{}); err != nil {
		return err
	}
	if err := d.publish(ctx, 0); err != nil {
		return err
	}
	d.gen = 0
	d.rankIndex = map[int]string{}
	d.rankMaps = make(map[string]*RankMap)
	slog.Info("taxonomy: directory cleared")
	return nil
}

func (d *Directory) put(ctx context.Context, key string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("taxonomy: encode %s: %w", key, err)
	}
	if err := d.store.Put(ctx, key, &buf); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStore, key, err)
	}
	return nil
}

func (d *Directory) writeGeneration(ctx context.Context, gen int, tree *Tree, rankMaps []*RankMap, rankIndex map[int]string) error {
	prefix := genPrefix(gen)
	for i, rank := range Ranks {
		if err := d.put(ctx, prefix+rank+rankFileSuffix, rankMaps[i].Write); err != nil {
			return err
		}
	}
	if err := d.put(ctx, prefix+treeName, tree.Write); err != nil {
		return err
	}
	return d.put(ctx, prefix+rankIndexName, func(w io.Writer) error {
		return writeRankIndex(w, rankIndex)
	})
}

func (d *Directory) publish(ctx context.Context, gen int) error {
	if err := blob.PutString(ctx, d.store, currentKey, strings.TrimSuffix(genPrefix(gen), "/")+"\n"); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStore, currentKey, err)
	}
	return nil
}

func writeRankIndex(w io.Writer, idx map[int]string) error {
	tw, err := tabfile.NewWriter(w, "tax_id", "rank_name")
	if err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(idx)) {
		if err := tw.Write(strconv.Itoa(id), idx[id]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
