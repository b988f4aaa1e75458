package domain

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// Bounds is a geographic bounding box. MinLon > MaxLon denotes a box that
// crosses the antimeridian.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// CrossesAntimeridian reports whether the box wraps past ±180.
func (b Bounds) CrossesAntimeridian() bool { return b.MinLon > b.MaxLon }

// Bound converts b to an orb.Bound with canonical longitudes. The
// antimeridian-crossing form (Min lon > Max lon) is preserved.
func (b Bounds) Bound() orb.Bound {
	minLon, maxLon := b.MinLon, b.MaxLon
	if maxLon-minLon < 360 {
		minLon, maxLon = angle.Wrap180(minLon), angle.Wrap180(maxLon)
		// Wrap180 maps 180 to -180; a box ending on the date line keeps 180.
		if b.MaxLon != b.MinLon && maxLon == -180 {
			maxLon = 180
		}
	} else {
		minLon, maxLon = -180, 180
	}
	return orb.Bound{
		Min: orb.Point{minLon, b.MinLat},
		Max: orb.Point{maxLon, b.MaxLat},
	}
}

// Coordinate is a lat/lon pair tagged with the longitude convention it uses.
type Coordinate struct {
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	Convention angle.Convention `json:"convention"`
}
