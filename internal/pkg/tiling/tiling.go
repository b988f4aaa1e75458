// Package tiling maps virtual pyramid coordinates to provider tile addresses.
package tiling

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrOffGrid means the requested row is outside the pyramid. Rows never wrap.
	ErrOffGrid = errors.New("tile is off grid")

	// ErrLevelOutOfRange means the level is negative or above the dataset's max zoom.
	ErrLevelOutOfRange = errors.New("tile level out of range")
)

// Scheme is the provider's tiling scheme.
type Scheme string

const (
	SchemeWMTS Scheme = "wmts"
	SchemeXYZ  Scheme = "xyz"
)

// YAxis is the direction rows are numbered in.
type YAxis string

const (
	// NorthDown numbers row 0 at the north edge (WMTS, XYZ).
	NorthDown YAxis = "north-down"
	// SouthUp numbers row 0 at the south edge (TMS).
	SouthUp YAxis = "south-up"
)

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(s)) {
	case SchemeWMTS:
		return SchemeWMTS, nil
	case SchemeXYZ:
		return SchemeXYZ, nil
	}
	return "", fmt.Errorf("invalid tiling scheme %q", s)
}

// ParseYAxis validates a y-axis orientation. Empty means north-down.
func ParseYAxis(s string) (YAxis, error) {
	switch YAxis(strings.ToLower(s)) {
	case "", NorthDown:
		return NorthDown, nil
	case SouthUp:
		return SouthUp, nil
	}
	return "", fmt.Errorf("invalid y axis %q", s)
}

// Pyramid holds the addressing parameters of a dataset.
type Pyramid struct {
	MinZoom int
	MaxZoom int
	YAxis   YAxis
}

// Address is a provider tile address.
type Address struct {
	Z   int `json:"z"`
	Col int `json:"col"`
	Row int `json:"row"`
}

// maxLevel keeps 1<<level within int range on every platform.
const maxLevel = 30

// Resolve maps virtual pyramid (level, x, y) to a provider address.
// Columns wrap (longitude is periodic); rows outside [0, 2^level) do not exist.
func Resolve(p Pyramid, level, x, y int) (Address, error) {
	if level < 0 || level > maxLevel || level+p.MinZoom > p.MaxZoom {
		return Address{}, fmt.Errorf("%w: level %d (zoom range %d-%d)", ErrLevelOutOfRange, level, p.MinZoom, p.MaxZoom)
	}
	n := 1 << uint(level)
	if y < 0 || y >= n {
		return Address{}, fmt.Errorf("%w: level %d row %d", ErrOffGrid, level, y)
	}
	col := ((x % n) + n) % n
	row := y
	if p.YAxis == SouthUp {
		row = n - 1 - y
	}
	return Address{Z: level + p.MinZoom, Col: col, Row: row}, nil
}

// TileAtNormalized returns the virtual (x, y) of the tile containing the
// unit-square point (u, v) at level.
func TileAtNormalized(u, v float64, level int) (x, y int) {
	if level < 0 || level > maxLevel {
		return 0, 0
	}
	n := 1 << uint(level)
	x = int(math.Floor(u * float64(n)))
	y = int(math.Floor(v * float64(n)))
	// v == 1 is the south pole, which belongs to the last row.
	if y >= n {
		y = n - 1
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// Template is a tile URL template using {z}, {x}/{col} and {y}/{row} placeholders.
type Template string

// Expand fills the template for addr.
func (t Template) Expand(a Address) string {
	col := strconv.Itoa(a.Col)
	row := strconv.Itoa(a.Row)
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(a.Z),
		"{x}", col,
		"{col}", col,
		"{y}", row,
		"{row}", row,
	)
	return r.Replace(string(t))
}
