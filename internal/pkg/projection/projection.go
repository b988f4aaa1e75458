// Package projection implements the simple-cylindrical (equirectangular)
// mapping between planetocentric coordinates, the unit square, and pixels.
//
// The forward chain is fixed: sanitize, canonicalize the input longitude,
// subtract the prime-meridian offset and then the central meridian in the
// canonical frame, re-canonicalize, and only then convert to the body's
// native convention. Reordering the offset subtraction and the domain
// conversion misplaces 360-domain imagery.
package projection

import (
	"math"

	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// Params describes a body's projection. Offsets are canonical degrees.
type Params struct {
	RadiusKm            float64
	Native              angle.Convention
	CentralMeridian     float64
	PrimeMeridianOffset float64
}

// Context is an immutable, concurrency-safe projection for one body.
type Context struct {
	p Params
}

// NewContext canonicalizes the offsets in p and returns a Context.
func NewContext(p Params) *Context {
	p.CentralMeridian = angle.Wrap180(p.CentralMeridian)
	p.PrimeMeridianOffset = angle.Wrap180(p.PrimeMeridianOffset)
	return &Context{p: p}
}

// Params returns the canonicalized parameters.
func (c *Context) Params() Params { return c.p }

// RadiusKm returns the body's mean radius.
func (c *Context) RadiusKm() float64 { return c.p.RadiusKm }

// Normalized is a position in the unit square. U grows with the native
// longitude value from the origin column; V is 0 at the north pole.
type Normalized struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Pixel is a position in full-resolution image pixels.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dims is the full-resolution pixel size of an image.
type Dims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToNormalized maps (lat, lon) given in convention in onto the unit square.
func (c *Context) ToNormalized(lat, lon float64, in angle.Convention) (Normalized, angle.Warning) {
	lat, wLat := angle.SanitizeLat(lat)
	lon, wLon := angle.SanitizeLon(lon)

	canonical := angle.Canonicalize(angle.Angle{Value: lon, Convention: in}).Value
	shifted := angle.Wrap180(canonical - c.p.PrimeMeridianOffset)
	shifted = angle.Wrap180(shifted - c.p.CentralMeridian)
	native := angle.Convert(shifted, angle.Canonical, c.p.Native)

	return Normalized{
		U: frac(native / 360),
		V: (90 - lat) / 180,
	}, wLat | wLon
}

// ToLatLon is the exact inverse of ToNormalized, with the longitude
// expressed in convention out. U wraps; V is clamped to [0,1].
func (c *Context) ToLatLon(n Normalized, out angle.Convention) (lat, lon float64) {
	u := frac(n.U)
	v := clamp(n.V, 0, 1)
	if math.IsNaN(v) {
		v = 0.5
	}

	nativeDomain360 := angle.Convention{Direction: c.p.Native.Direction, Domain: angle.Domain360}
	shifted := angle.Convert(u*360, nativeDomain360, angle.Canonical)
	canonical := angle.Wrap180(shifted + c.p.CentralMeridian)
	canonical = angle.Wrap180(canonical + c.p.PrimeMeridianOffset)

	return 90 - v*180, angle.Convert(canonical, angle.Canonical, out)
}

// ToPixel scales a normalized position to pixel space.
func ToPixel(n Normalized, d Dims) Pixel {
	return Pixel{X: n.U * d.Width, Y: n.V * d.Height}
}

// FromPixel maps a pixel back to the unit square. X wraps horizontally
// because longitude is periodic; Y does not.
func FromPixel(p Pixel, d Dims) Normalized {
	if d.Width <= 0 || d.Height <= 0 {
		return Normalized{}
	}
	return Normalized{
		U: frac(p.X / d.Width),
		V: clamp(p.Y/d.Height, 0, 1),
	}
}

// LatLonToPixel composes ToNormalized and ToPixel.
func (c *Context) LatLonToPixel(lat, lon float64, in angle.Convention, d Dims) (Pixel, angle.Warning) {
	n, w := c.ToNormalized(lat, lon, in)
	return ToPixel(n, d), w
}

// PixelToLatLon composes FromPixel and ToLatLon.
func (c *Context) PixelToLatLon(p Pixel, d Dims, out angle.Convention) (lat, lon float64) {
	return c.ToLatLon(FromPixel(p, d), out)
}

// frac returns x mod 1 in [0,1). Non-finite input yields 0.
func frac(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f := x - math.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
