package gazetteerfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// Attribute names recognised in the .dbf table, lower-cased. The first
// present column wins.
var (
	nameColumns     = []string{"name", "clean_name", "feature"}
	diameterColumns = []string{"diameter", "diam_km", "diameter_km"}
	categoryColumns = []string{"type", "feature_ty", "category"}
	originColumns   = []string{"origin"}
	latColumns      = []string{"center_lat", "lat"}
	lonColumns      = []string{"center_lon", "lon"}
)

// ReadShapefile reads point or polygon features from a shapefile. Polygons
// are reduced to the centre of their bounding box unless the attribute
// table carries explicit centre coordinates.
func ReadShapefile(path string, opts Options) (Result, error) {
	r, err := shp.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	cols := make(map[string]int)
	for i, f := range r.Fields() {
		cols[strings.ToLower(clean(f.String()))] = i
	}
	attr := func(row int, names []string) string {
		for _, n := range names {
			if i, ok := cols[n]; ok {
				return clean(r.ReadAttribute(row, i))
			}
		}
		return ""
	}

	var res Result
	for r.Next() {
		row, shape := r.Shape()

		lat, lon, ok := position(shape)
		if la, errLat := strconv.ParseFloat(attr(row, latColumns), 64); errLat == nil {
			if lo, errLon := strconv.ParseFloat(attr(row, lonColumns), 64); errLon == nil {
				lat, lon, ok = la, lo, true
			}
		}
		if !ok {
			res.Skipped++
			continue
		}

		raw := domain.GazetteerFeature{
			Name:     attr(row, nameColumns),
			Body:     opts.Body,
			Lat:      lat,
			Lon:      lon,
			Category: attr(row, categoryColumns),
			Origin:   attr(row, originColumns),
		}
		if d, err := strconv.ParseFloat(attr(row, diameterColumns), 64); err == nil && d > 0 {
			raw.DiameterKm = &d
		}
		f, ok := normalize(raw, opts)
		if !ok {
			res.Skipped++
			continue
		}
		res.Features = append(res.Features, f)
	}
	if err := r.Err(); err != nil {
		return res, fmt.Errorf("read shapefile: %w", err)
	}
	return res, nil
}

// position returns (lat, lon) for a shape; shapefile X is longitude.
func position(s shp.Shape) (lat, lon float64, ok bool) {
	switch g := s.(type) {
	case *shp.Point:
		return g.Y, g.X, true
	case *shp.PointZ:
		return g.Y, g.X, true
	case *shp.PointM:
		return g.Y, g.X, true
	case nil:
		return 0, 0, false
	}
	b := s.BBox()
	return (b.MinY + b.MaxY) / 2, (b.MinX + b.MaxX) / 2, true
}

// clean strips dBase padding.
func clean(s string) string {
	return strings.Trim(s, " \x00")
}
