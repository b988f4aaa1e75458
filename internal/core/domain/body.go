package domain

import (
	"fmt"
	"strings"

	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// Body identifies a supported planetary body.
type Body uint8

const (
	BodyUnknown Body = iota
	BodyMoon
	BodyMars
	BodyMercury
	BodyCeres
	BodyVesta
	BodyEarth

	numBodies
)

// KnownBodies lists every supported body, in table order.
var KnownBodies = []Body{BodyMoon, BodyMars, BodyMercury, BodyCeres, BodyVesta, BodyEarth}

// BodyProjection holds the static projection metadata of a body.
//
// CentralMeridian is the longitude at the origin column of the body's
// mosaics; PrimeMeridianOffset shifts the body's coordinate system relative
// to the one its imagery was registered in. Both are canonical degrees.
type BodyProjection struct {
	Body                Body             `json:"-"`
	Key                 string           `json:"id"`
	Name                string           `json:"name"`
	RadiusKm            float64          `json:"radius_km"`
	Native              angle.Convention `json:"native_convention"`
	CentralMeridian     float64          `json:"central_meridian"`
	PrimeMeridianOffset float64          `json:"prime_meridian_offset"`
}

// bodyTable is indexed by Body. The array length makes a missing row a compile error.
var bodyTable = [numBodies]BodyProjection{
	BodyUnknown: {Key: "unknown", Name: "Unknown body", RadiusKm: 1, Native: angle.Canonical, CentralMeridian: -180},
	BodyMoon:    {Key: "moon", Name: "Moon", RadiusKm: 1737.4, Native: angle.Canonical, CentralMeridian: -180},
	BodyMars:    {Key: "mars", Name: "Mars", RadiusKm: 3389.5, Native: angle.Canonical, CentralMeridian: -180},
	BodyMercury: {Key: "mercury", Name: "Mercury", RadiusKm: 2439.7, Native: angle.Canonical, CentralMeridian: -180},
	BodyCeres:   {Key: "ceres", Name: "Ceres", RadiusKm: 469.7, Native: angle.Convention{Direction: angle.East, Domain: angle.Domain360}},
	BodyVesta:   {Key: "vesta", Name: "Vesta", RadiusKm: 262.7, Native: angle.Convention{Direction: angle.East, Domain: angle.Domain360}},
	BodyEarth:   {Key: "earth", Name: "Earth", RadiusKm: 6371.0, Native: angle.Canonical, CentralMeridian: -180},
}

// String returns the body's lookup key.
func (b Body) String() string {
	if b >= numBodies {
		return bodyTable[BodyUnknown].Key
	}
	return bodyTable[b].Key
}

// Known reports whether b is a supported body.
func (b Body) Known() bool { return b > BodyUnknown && b < numBodies }

// DefaultProjection returns the compiled-in metadata for b.
// Out-of-range values yield the unknown record.
func DefaultProjection(b Body) BodyProjection {
	if b >= numBodies {
		b = BodyUnknown
	}
	p := bodyTable[b]
	p.Body = b
	return p
}

// ParseBody resolves a case-insensitive body key. Unknown keys return
// BodyUnknown together with ErrUnknownBody so callers can decide explicitly.
func ParseBody(key string) (Body, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for b := BodyMoon; b < numBodies; b++ {
		if bodyTable[b].Key == k {
			return b, nil
		}
	}
	return BodyUnknown, fmt.Errorf("%w: %q", ErrUnknownBody, key)
}

// CorrectionKey is the fallback alignment-correction key for the body.
func (b Body) CorrectionKey() string { return "body:" + b.String() }

// MarshalText implements encoding.TextMarshaler.
func (b Body) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Unknown keys decode to
// BodyUnknown without error; stored data must not fail to load over a typo.
func (b *Body) UnmarshalText(text []byte) error {
	parsed, _ := ParseBody(string(text))
	*b = parsed
	return nil
}
