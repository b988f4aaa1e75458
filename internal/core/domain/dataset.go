package domain

import (
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
	"github.com/samirrijal/stellarcanvas/internal/pkg/tiling"
)

// Dataset describes one tiled imagery mosaic.
type Dataset struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Body             Body          `json:"body"`
	URLTemplate      string        `json:"tile_url_template"`
	Scheme           tiling.Scheme `json:"tiling"`
	YAxis            tiling.YAxis  `json:"y_axis"`
	TileSize         int           `json:"tile_size"`
	MinZoom          int           `json:"min_zoom"`
	MaxZoom          int           `json:"max_zoom"`
	Projection       string        `json:"projection"`
	CompatibilityKey string        `json:"compatibility_key,omitempty"`
	Attribution      string        `json:"attribution,omitempty"`
	Width            float64       `json:"width"`
	Height           float64       `json:"height"`
}

// Levels is the number of virtual pyramid levels above level 0.
func (d Dataset) Levels() int { return d.MaxZoom - d.MinZoom }

// Dims returns the full-resolution pixel size of the virtual image.
func (d Dataset) Dims() projection.Dims {
	if d.Width > 0 && d.Height > 0 {
		return projection.Dims{Width: d.Width, Height: d.Height}
	}
	side := float64(d.TileSize) * float64(int64(1)<<uint(max(d.Levels(), 0)))
	return projection.Dims{Width: side, Height: side}
}

// Pyramid returns the tile addressing parameters of the dataset.
func (d Dataset) Pyramid() tiling.Pyramid {
	return tiling.Pyramid{MinZoom: d.MinZoom, MaxZoom: d.MaxZoom, YAxis: d.YAxis}
}

// AlignedWith reports whether d and other share a pixel grid. Datasets are
// only aligned through an explicit, non-empty compatibility key; identical
// templates alone do not count.
func (d Dataset) AlignedWith(other Dataset) bool {
	return d.CompatibilityKey != "" && d.CompatibilityKey == other.CompatibilityKey
}

// CorrectionKeys lists the alignment-correction keys for d, most specific first.
func (d Dataset) CorrectionKeys() []string {
	keys := []string{d.ID}
	if d.CompatibilityKey != "" {
		keys = append(keys, "compat:"+d.CompatibilityKey)
	}
	return append(keys, d.Body.CorrectionKey())
}
