package geospatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// pointSize gives point entries a non-zero extent; the R-tree rejects empty rects.
const pointSize = 1e-6

type entry[T Located] struct {
	item T
	seq  int
	rect rtreego.Rect
}

func (e *entry[T]) Bounds() rtreego.Rect { return e.rect }

// Index is an immutable R-tree over items keyed by canonical longitude
// ([-180,180)) and latitude. Safe for concurrent readers.
type Index[T Located] struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex builds an index over items. Items whose position cannot form a
// rect are skipped.
func NewIndex[T Located](items []T) *Index[T] {
	objs := make([]rtreego.Spatial, 0, len(items))
	for i, it := range items {
		lat, lon := it.Position()
		rect, err := rtreego.NewRect(rtreego.Point{lon, lat}, []float64{pointSize, pointSize})
		if err != nil {
			continue
		}
		objs = append(objs, &entry[T]{item: it, seq: i, rect: rect})
	}
	return &Index[T]{tree: rtreego.NewTree(2, 25, 50, objs...), size: len(objs)}
}

// Len returns the number of indexed items.
func (x *Index[T]) Len() int { return x.size }

// InBounds returns the items inside b in insertion order. A bound whose
// Min longitude is greater than its Max crosses the antimeridian and is
// queried as two boxes.
func (x *Index[T]) InBounds(b orb.Bound) []T {
	if x == nil || x.size == 0 {
		return nil
	}
	var hits []rtreego.Spatial
	if b.Min[0] > b.Max[0] {
		hits = append(hits, x.search(b.Min[0], 180, b.Min[1], b.Max[1])...)
		hits = append(hits, x.search(-180, b.Max[0], b.Min[1], b.Max[1])...)
	} else {
		hits = x.search(b.Min[0], b.Max[0], b.Min[1], b.Max[1])
	}

	entries := make([]*entry[T], 0, len(hits))
	for _, h := range hits {
		e := h.(*entry[T])
		if contains(b, e.item) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.item)
	}
	return out
}

func (x *Index[T]) search(minLon, maxLon, minLat, maxLat float64) []rtreego.Spatial {
	w, h := maxLon-minLon, maxLat-minLat
	if w <= 0 {
		w = pointSize
	}
	if h <= 0 {
		h = pointSize
	}
	q, err := rtreego.NewRect(rtreego.Point{minLon, minLat}, []float64{w, h})
	if err != nil {
		return nil
	}
	return x.tree.SearchIntersect(q)
}

func contains[T Located](b orb.Bound, it T) bool {
	lat, lon := it.Position()
	if lat < b.Min[1] || lat > b.Max[1] {
		return false
	}
	if b.Min[0] > b.Max[0] {
		return lon >= b.Min[0] || lon <= b.Max[0]
	}
	return lon >= b.Min[0] && lon <= b.Max[0]
}
