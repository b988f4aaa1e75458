package alignment

import (
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// Resolver resolves and applies corrections for datasets.
type Resolver struct {
	table *Table
}

// NewResolver returns a resolver reading from t.
func NewResolver(t *Table) *Resolver {
	return &Resolver{table: t}
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table { return r.table }

// Resolve returns the correction for d at (lat, zoom) and where it came from.
// Datasets without any record resolve to Identity with SourceNone.
func (r *Resolver) Resolve(d domain.Dataset, lat float64, zoom domain.OptionalFloat) (Resolved, Source) {
	rec, _, src := r.table.Lookup(d)
	if src == SourceNone {
		return Identity(), SourceNone
	}
	return ResolveAt(rec, lat, zoom), src
}

// ApplyForward corrects a canonical (lat, lon) before projection. The pixel
// stage is returned for the caller to apply after projection.
func (r *Resolver) ApplyForward(d domain.Dataset, lat, lon float64, zoom domain.OptionalFloat) (float64, float64, PixelStage, Source) {
	res, src := r.Resolve(d, lat, zoom)
	ll, px := res.Stages()
	lat, lon = ll.Forward(lat, lon)
	return lat, lon, px, src
}

// ResolveInverse returns the correction that the forward leg applied to
// produce the corrected latitude, as ResolveInverseAt does.
func (r *Resolver) ResolveInverse(d domain.Dataset, corrected float64, zoom domain.OptionalFloat) (Resolved, Source) {
	rec, _, src := r.table.Lookup(d)
	if src == SourceNone {
		return Identity(), SourceNone
	}
	return ResolveInverseAt(rec, corrected, zoom), src
}

// ApplyInverse undoes the lat/lon stage on a corrected (lat', lon') taken
// from the projection. The correction is the one whose forward leg lands on
// lat', so points pushed out of their latitude band come back to it.
func (r *Resolver) ApplyInverse(d domain.Dataset, lat, lon float64, zoom domain.OptionalFloat) (float64, float64, Source) {
	res, src := r.ResolveInverse(d, lat, zoom)
	ll, _ := res.Stages()
	lat, lon = ll.Inverse(lat, lon)
	return lat, lon, src
}
