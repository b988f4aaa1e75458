package tiling

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_HorizontalWrap(t *testing.T) {
	for _, axis := range []YAxis{NorthDown, SouthUp} {
		p := Pyramid{MinZoom: 1, MaxZoom: 8, YAxis: axis}
		for level := 0; level <= 5; level++ {
			n := 1 << level
			for x := -n; x < 2*n; x++ {
				for y := 0; y < n; y++ {
					a, err := Resolve(p, level, x, y)
					require.NoError(t, err)
					b, err := Resolve(p, level, x+n, y)
					require.NoError(t, err)
					require.Equal(t, a, b, "axis %s level %d x %d y %d", axis, level, x, y)
					require.GreaterOrEqual(t, a.Col, 0)
					require.Less(t, a.Col, n)
				}
			}
		}
	}
}

func TestResolve_NoVerticalWrap(t *testing.T) {
	p := Pyramid{MinZoom: 0, MaxZoom: 10}
	for level := 0; level <= 6; level++ {
		n := 1 << level
		for _, y := range []int{-1, n} {
			t.Run(fmt.Sprintf("level %d y %d", level, y), func(t *testing.T) {
				_, err := Resolve(p, level, 0, y)
				assert.ErrorIs(t, err, ErrOffGrid)
			})
		}
	}
}

func TestResolve_SouthUpFlip(t *testing.T) {
	north := Pyramid{MinZoom: 0, MaxZoom: 5, YAxis: NorthDown}
	south := Pyramid{MinZoom: 0, MaxZoom: 5, YAxis: SouthUp}

	a, err := Resolve(north, 2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Address{Z: 2, Col: 1, Row: 0}, a)

	b, err := Resolve(south, 2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Address{Z: 2, Col: 1, Row: 3}, b)
}

func TestResolve_ZoomOffsetAndRange(t *testing.T) {
	p := Pyramid{MinZoom: 3, MaxZoom: 7}

	a, err := Resolve(p, 0, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, Address{Z: 3, Col: 0, Row: 0}, a)

	_, err = Resolve(p, 5, 0, 0)
	assert.ErrorIs(t, err, ErrLevelOutOfRange)
	_, err = Resolve(p, -1, 0, 0)
	assert.ErrorIs(t, err, ErrLevelOutOfRange)
}

func TestTileAtNormalized(t *testing.T) {
	x, y := TileAtNormalized(0.5, 0.5, 2)
	assert.Equal(t, 2, x)
	assert.Equal(t, 2, y)

	x, y = TileAtNormalized(0.999, 1, 3)
	assert.Equal(t, 7, x)
	assert.Equal(t, 7, y)

	x, y = TileAtNormalized(0, 0, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestTemplate_Expand(t *testing.T) {
	a := Address{Z: 4, Col: 11, Row: 3}
	tests := []struct {
		tmpl Template
		want string
	}{
		{"https://tiles.example/{z}/{x}/{y}.png", "https://tiles.example/4/11/3.png"},
		{"https://trek.example/default/{z}/{row}/{col}.jpg", "https://trek.example/default/4/3/11.jpg"},
		{"no-placeholders", "no-placeholders"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tmpl.Expand(a))
	}
}

func TestParseSchemeAndYAxis(t *testing.T) {
	s, err := ParseScheme("WMTS")
	require.NoError(t, err)
	assert.Equal(t, SchemeWMTS, s)
	_, err = ParseScheme("tms")
	assert.Error(t, err)

	y, err := ParseYAxis("")
	require.NoError(t, err)
	assert.Equal(t, NorthDown, y)
	y, err = ParseYAxis("south-up")
	require.NoError(t, err)
	assert.Equal(t, SouthUp, y)
	_, err = ParseYAxis("up")
	assert.Error(t, err)
}
