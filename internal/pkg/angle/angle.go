// Package angle canonicalizes longitudes and converts them between the
// east/west and [-180,180)/[0,360) conventions used by imagery providers.
//
// Every conversion pivots through the canonical form: east-positive,
// half-open [-180,180). The antimeridian is always represented as -180.
package angle

import (
	"fmt"
	"math"
	"strings"
)

// Direction is the sense in which longitude values increase.
type Direction uint8

const (
	East Direction = iota
	West
)

func (d Direction) String() string {
	if d == West {
		return "west"
	}
	return "east"
}

// Domain is the numeric range longitude values are expressed in.
type Domain uint8

const (
	Domain180 Domain = iota // [-180,180)
	Domain360               // [0,360)
)

func (d Domain) String() string {
	if d == Domain360 {
		return "360"
	}
	return "180"
}

// Convention pairs a direction with a domain.
type Convention struct {
	Direction Direction `json:"direction"`
	Domain    Domain    `json:"domain"`
}

// Canonical is the pivot convention for all conversions.
var Canonical = Convention{Direction: East, Domain: Domain180}

// String renders the convention as "east-180", "west-360", etc.
func (c Convention) String() string {
	return c.Direction.String() + "-" + c.Domain.String()
}

// ParseConvention parses the form produced by Convention.String.
func ParseConvention(s string) (Convention, error) {
	dir, dom, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	if !ok {
		return Convention{}, fmt.Errorf("invalid longitude convention %q", s)
	}
	var c Convention
	switch dir {
	case "east", "e":
		c.Direction = East
	case "west", "w":
		c.Direction = West
	default:
		return Convention{}, fmt.Errorf("invalid longitude direction %q", dir)
	}
	switch dom {
	case "180":
		c.Domain = Domain180
	case "360":
		c.Domain = Domain360
	default:
		return Convention{}, fmt.Errorf("invalid longitude domain %q", dom)
	}
	return c, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Convention) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Convention) UnmarshalText(b []byte) error {
	parsed, err := ParseConvention(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Angle is a longitude value tagged with the convention it is expressed in.
type Angle struct {
	Value      float64
	Convention Convention
}

// Wrap180 wraps v into [-180,180). +180 maps to -180.
func Wrap180(v float64) float64 {
	r := math.Mod(v+180, 360)
	if r < 0 {
		r += 360
	}
	// r+360 can round up to exactly 360 for tiny negative r.
	if r >= 360 {
		r -= 360
	}
	return r - 180
}

// Wrap360 wraps v into [0,360).
func Wrap360(v float64) float64 {
	r := math.Mod(v, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r -= 360
	}
	return r
}

// Canonicalize returns a in the canonical convention.
func Canonicalize(a Angle) Angle {
	return Angle{Value: toCanonical(a.Value, a.Convention), Convention: Canonical}
}

// ToDomain360 returns the east-positive [0,360) value of a.
func ToDomain360(a Angle) float64 {
	return Wrap360(toCanonical(a.Value, a.Convention))
}

// Convert re-expresses value, given in from, in the to convention.
func Convert(value float64, from, to Convention) float64 {
	return fromCanonical(toCanonical(value, from), to)
}

// In converts a to the target convention.
func (a Angle) In(to Convention) Angle {
	return Angle{Value: Convert(a.Value, a.Convention, to), Convention: to}
}

func toCanonical(v float64, from Convention) float64 {
	if from.Direction == West {
		v = -v
	}
	return Wrap180(v)
}

func fromCanonical(c float64, to Convention) float64 {
	if to.Direction == West {
		c = -c
	}
	if to.Domain == Domain360 {
		return Wrap360(c)
	}
	return Wrap180(c)
}

// InferConvention guesses a convention from magnitude alone: values beyond
// ±180 must be 360-domain, everything else is assumed to be 180-domain.
//
// This is a last resort for values with no provenance. A 360-domain value
// that happens to fall in [0,180] is indistinguishable from a 180-domain one,
// so callers that know the convention from metadata must pass it explicitly.
func InferConvention(value float64) Convention {
	if math.Abs(value) > 180 {
		return Convention{Direction: East, Domain: Domain360}
	}
	return Canonical
}

// Diff returns the signed shortest angular difference a-b in degrees, in [-180,180).
func Diff(a, b float64) float64 {
	return Wrap180(a - b)
}
