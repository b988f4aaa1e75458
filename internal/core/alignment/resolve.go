// Package alignment resolves per-point registration corrections between
// mosaics and applies them around the projection.
//
// A correction is two independent stages. The lat/lon stage is affine and
// runs before projection; the pixel stage is a translation in image space and
// runs after it. Each stage inverts on its own. Inverting a full round trip is
// exact when both legs resolve the same zoom bracket. Latitude bands are
// reconciled by ResolveInverseAt, which searches for the uncorrected
// latitude whose own correction lands on the corrected one.
package alignment

import (
	"math"
	"sort"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
)

// Resolved is the correction in effect at one point. The zero value is not
// the identity; use Identity.
type Resolved struct {
	LatOffset float64 `json:"lat_offset"`
	LonOffset float64 `json:"lon_offset"`
	Scale     float64 `json:"scale"`
	PixelX    float64 `json:"pixel_x"`
	PixelY    float64 `json:"pixel_y"`
}

// Identity is the no-op correction.
func Identity() Resolved { return Resolved{Scale: 1} }

// IsIdentity reports whether r leaves every coordinate unchanged.
func (r Resolved) IsIdentity() bool { return r == Identity() }

// Resolve computes the correction at lat ignoring zoom breakpoints.
func Resolve(rec domain.AlignmentCorrection, lat float64) Resolved {
	return ResolveAt(rec, lat, domain.OptionalFloat{})
}

// ResolveAt computes the correction at (lat, zoom): the static record, plus
// the offsets of every latitude band containing lat, plus the zoom
// breakpoints interpolated at zoom when zoom is set. Missing fields add 0 and
// a missing or zero scale is 1.
func ResolveAt(rec domain.AlignmentCorrection, lat float64, zoom domain.OptionalFloat) Resolved {
	r := Resolved{
		LatOffset: rec.LatOffset.Or(0),
		LonOffset: rec.LonOffset.Or(0),
		Scale:     rec.Scale.Or(1),
		PixelX:    rec.Pixel.X.Or(0),
		PixelY:    rec.Pixel.Y.Or(0),
	}
	if r.Scale == 0 {
		r.Scale = 1
	}
	if rec.Dynamic == nil {
		return r
	}

	if !math.IsNaN(lat) {
		for _, b := range rec.Dynamic.Bands {
			if b.Contains(lat) {
				r.LatOffset += b.LatOffset.Or(0)
				r.LonOffset += b.LonOffset.Or(0)
			}
		}
	}

	if zoom.Valid() {
		if bp, ok := interpolate(rec.Dynamic.Zoom, zoom.Value); ok {
			r.LatOffset += bp.lat
			r.LonOffset += bp.lon
			r.PixelX += bp.px
			r.PixelY += bp.py
		}
	}
	return r
}

// ResolveInverseAt returns the correction whose lat/lon stage maps some
// uncorrected latitude onto corrected, resolved at that uncorrected latitude.
// Band corrections are piecewise constant, so every distinct band set is
// tried and kept when inverting with it lands back inside the same set.
// When several preimages exist the one covered by the most bands wins, then
// the one closest to corrected. Without a consistent preimage the correction
// at corrected is returned.
func ResolveInverseAt(rec domain.AlignmentCorrection, corrected float64, zoom domain.OptionalFloat) Resolved {
	base := ResolveAt(rec, corrected, zoom)
	if rec.Dynamic == nil || len(rec.Dynamic.Bands) == 0 || math.IsNaN(corrected) {
		return base
	}

	var (
		best      Resolved
		bestBands int
		bestDist  float64
		found     bool
	)
	for _, lat := range bandSamples(rec.Dynamic.Bands, corrected) {
		cand := ResolveAt(rec, lat, zoom)
		ll, _ := cand.Stages()
		lat0, _ := ll.Inverse(corrected, 0)
		if ResolveAt(rec, lat0, zoom) != cand {
			continue
		}
		n := containingBands(rec.Dynamic.Bands, lat0)
		dist := math.Abs(lat0 - corrected)
		if !found || n > bestBands || (n == bestBands && dist < bestDist) {
			best, bestBands, bestDist, found = cand, n, dist, true
		}
	}
	if !found {
		return base
	}
	return best
}

// bandSamples returns one latitude inside every region the band edges cut
// [-90, 90] into, the edges themselves, and extra.
func bandSamples(bands []domain.LatitudeBand, extra float64) []float64 {
	edges := []float64{-90, 90}
	for _, b := range bands {
		edges = append(edges, b.MinLat.Or(-90), b.MaxLat.Or(90))
	}
	sort.Float64s(edges)
	out := []float64{extra}
	for i, e := range edges {
		if i > 0 && e == edges[i-1] {
			continue
		}
		out = append(out, e)
		if i+1 < len(edges) && edges[i+1] > e {
			out = append(out, (e+edges[i+1])/2)
		}
	}
	return out
}

func containingBands(bands []domain.LatitudeBand, lat float64) int {
	n := 0
	for _, b := range bands {
		if b.Contains(lat) {
			n++
		}
	}
	return n
}

type point struct {
	zoom, lat, lon, px, py float64
}

// interpolate evaluates the piecewise-linear breakpoint curve at zoom,
// clamping to the end points outside their range.
func interpolate(bps []domain.ZoomBreakpoint, zoom float64) (point, bool) {
	pts := make([]point, 0, len(bps))
	for _, bp := range bps {
		if !bp.Zoom.Valid() {
			continue
		}
		pts = append(pts, point{
			zoom: bp.Zoom.Value,
			lat:  bp.LatOffset.Or(0),
			lon:  bp.LonOffset.Or(0),
			px:   bp.Pixel.X.Or(0),
			py:   bp.Pixel.Y.Or(0),
		})
	}
	if len(pts) == 0 {
		return point{}, false
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].zoom < pts[j].zoom })

	first, last := pts[0], pts[len(pts)-1]
	if zoom <= first.zoom {
		return first, true
	}
	if zoom >= last.zoom {
		return last, true
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].zoom > zoom }) - 1
	lo, hi := pts[i], pts[i+1]
	t := (zoom - lo.zoom) / (hi.zoom - lo.zoom)
	return point{
		zoom: zoom,
		lat:  lerp(lo.lat, hi.lat, t),
		lon:  lerp(lo.lon, hi.lon, t),
		px:   lerp(lo.px, hi.px, t),
		py:   lerp(lo.py, hi.py, t),
	}, true
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// LatLonStage is the affine correction applied before projection.
type LatLonStage struct {
	LatOffset float64
	LonOffset float64
	Scale     float64
}

// Forward applies lat' = lat*scale + lat_offset and likewise for lon.
// Longitudes are left unwrapped; the projection canonicalizes them.
func (s LatLonStage) Forward(lat, lon float64) (float64, float64) {
	return lat*s.Scale + s.LatOffset, lon*s.Scale + s.LonOffset
}

// Inverse undoes Forward.
func (s LatLonStage) Inverse(lat, lon float64) (float64, float64) {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return (lat - s.LatOffset) / scale, (lon - s.LonOffset) / scale
}

// PixelStage is the translation applied after projection.
type PixelStage struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Forward shifts p by the offset.
func (s PixelStage) Forward(p projection.Pixel) projection.Pixel {
	return projection.Pixel{X: p.X + s.DX, Y: p.Y + s.DY}
}

// Inverse undoes Forward.
func (s PixelStage) Inverse(p projection.Pixel) projection.Pixel {
	return projection.Pixel{X: p.X - s.DX, Y: p.Y - s.DY}
}

// Stages splits r into its two independently invertible stages.
func (r Resolved) Stages() (LatLonStage, PixelStage) {
	return LatLonStage{LatOffset: r.LatOffset, LonOffset: r.LonOffset, Scale: r.Scale},
		PixelStage{DX: r.PixelX, DY: r.PixelY}
}
