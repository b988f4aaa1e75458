package angle

import (
	"math"
	"strings"
)

// Warning is a set of input problems that were repaired instead of failing.
type Warning uint8

const (
	WarnLatClamped Warning = 1 << iota
	WarnLatNonFinite
	WarnLonNonFinite
)

// Has reports whether all bits of w2 are set in w.
func (w Warning) Has(w2 Warning) bool { return w&w2 == w2 }

func (w Warning) String() string {
	if w == 0 {
		return "none"
	}
	var parts []string
	if w.Has(WarnLatClamped) {
		parts = append(parts, "lat_clamped")
	}
	if w.Has(WarnLatNonFinite) {
		parts = append(parts, "lat_non_finite")
	}
	if w.Has(WarnLonNonFinite) {
		parts = append(parts, "lon_non_finite")
	}
	return strings.Join(parts, ",")
}

// Kinds lists the individual warnings set in w.
func (w Warning) Kinds() []Warning {
	var out []Warning
	for _, k := range []Warning{WarnLatClamped, WarnLatNonFinite, WarnLonNonFinite} {
		if w.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// SanitizeLat clamps lat to [-90,90]. NaN becomes 0, ±Inf the matching pole.
func SanitizeLat(lat float64) (float64, Warning) {
	switch {
	case math.IsNaN(lat):
		return 0, WarnLatNonFinite
	case math.IsInf(lat, 1):
		return 90, WarnLatNonFinite
	case math.IsInf(lat, -1):
		return -90, WarnLatNonFinite
	case lat > 90:
		return 90, WarnLatClamped
	case lat < -90:
		return -90, WarnLatClamped
	}
	return lat, 0
}

// SanitizeLon replaces a non-finite longitude with 0.
func SanitizeLon(lon float64) (float64, Warning) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, WarnLonNonFinite
	}
	return lon, 0
}
