package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// OptionalFloat is a numeric field that may be absent. It decodes leniently:
// numbers and numeric strings are accepted, anything else (null, missing,
// garbage, non-finite) is treated as unset rather than failing the record.
type OptionalFloat struct {
	Value float64
	Set   bool
}

// Float returns a set OptionalFloat.
func Float(v float64) OptionalFloat { return OptionalFloat{Value: v, Set: true} }

// Or returns the value when set and finite, def otherwise.
func (o OptionalFloat) Or(def float64) float64 {
	if !o.Set || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return def
	}
	return o.Value
}

// Valid reports whether the field is set to a finite number.
func (o OptionalFloat) Valid() bool {
	return o.Set && !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0)
}

// MarshalJSON writes null for unset values.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON never fails; unparseable input leaves the field unset.
func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	*o = OptionalFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*o = OptionalFloat{Value: f, Set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*o = OptionalFloat{Value: f, Set: true}
		}
	}
	return nil
}

// PixelOffset is a translation in full-resolution pixel space.
type PixelOffset struct {
	X OptionalFloat `json:"x"`
	Y OptionalFloat `json:"y"`
}

// ZoomBreakpoint is one control point of a zoom-dependent correction.
type ZoomBreakpoint struct {
	Zoom      OptionalFloat `json:"zoom"`
	LatOffset OptionalFloat `json:"lat_offset"`
	LonOffset OptionalFloat `json:"lon_offset"`
	Pixel     PixelOffset   `json:"pixel_offset"`
}

// LatitudeBand applies an additive offset to points with MinLat <= lat <= MaxLat.
type LatitudeBand struct {
	MinLat    OptionalFloat `json:"min_lat"`
	MaxLat    OptionalFloat `json:"max_lat"`
	LatOffset OptionalFloat `json:"lat_offset"`
	LonOffset OptionalFloat `json:"lon_offset"`
}

// Contains reports whether lat lies in the band. Missing bounds are open.
func (b LatitudeBand) Contains(lat float64) bool {
	return lat >= b.MinLat.Or(-90) && lat <= b.MaxLat.Or(90)
}

// DynamicCorrection holds the zoom- and latitude-dependent components.
type DynamicCorrection struct {
	Zoom  []ZoomBreakpoint `json:"zoom_breakpoints,omitempty"`
	Bands []LatitudeBand   `json:"latitude_bands,omitempty"`
}

// AlignmentCorrection compensates registration error between mosaics.
// Records are replaced whole, never mutated in place.
type AlignmentCorrection struct {
	Pixel     PixelOffset        `json:"pixel_offset"`
	LatOffset OptionalFloat      `json:"lat_offset"`
	LonOffset OptionalFloat      `json:"lon_offset"`
	Scale     OptionalFloat      `json:"scale"`
	Dynamic   *DynamicCorrection `json:"dynamic,omitempty"`
	Note      string             `json:"note,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of c.
func (c AlignmentCorrection) Clone() AlignmentCorrection {
	if c.Dynamic != nil {
		d := DynamicCorrection{
			Zoom:  append([]ZoomBreakpoint(nil), c.Dynamic.Zoom...),
			Bands: append([]LatitudeBand(nil), c.Dynamic.Bands...),
		}
		c.Dynamic = &d
	}
	return c
}

// Validate rejects records that would make the correction non-invertible.
// Missing fields are always acceptable.
func (c AlignmentCorrection) Validate() error {
	if c.Scale.Set {
		s := c.Scale.Or(0)
		if s == 0 {
			return fmt.Errorf("%w: scale must be finite and non-zero", ErrInvalidCorrection)
		}
	}
	if c.Dynamic != nil {
		for i, b := range c.Dynamic.Bands {
			if b.MinLat.Or(-90) > b.MaxLat.Or(90) {
				return fmt.Errorf("%w: latitude band %d has min_lat > max_lat", ErrInvalidCorrection, i)
			}
		}
		for i, bp := range c.Dynamic.Zoom {
			if !bp.Zoom.Valid() {
				return fmt.Errorf("%w: zoom breakpoint %d has no zoom", ErrInvalidCorrection, i)
			}
		}
	}
	return nil
}

// DecodeCorrection parses a stored record. Only malformed JSON structure is
// an error; bad numeric fields decode as unset.
func DecodeCorrection(data []byte) (AlignmentCorrection, error) {
	var c AlignmentCorrection
	if err := json.Unmarshal(data, &c); err != nil {
		return AlignmentCorrection{}, fmt.Errorf("decode correction: %w", err)
	}
	return c, nil
}
