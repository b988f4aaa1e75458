// Package gazetteerfile reads gazetteer features from JSON feature lists and
// ESRI shapefiles. Longitudes are converted from an explicit source
// convention to canonical degrees; nothing is inferred from the values.
package gazetteerfile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor shapefiles.
var ErrUnsupportedFormat = errors.New("unsupported gazetteer file format")

// Options controls how a file is interpreted.
type Options struct {
	// Body keeps only features of this body. Features without a body of
	// their own are assigned to it.
	Body domain.Body
	// Convention is the longitude convention of the source file.
	Convention angle.Convention
	// Origin is recorded on features that don't name one.
	Origin string
	// RequireBody drops records that name no body instead of assigning Body.
	RequireBody bool
}

// Result is the outcome of reading one file.
type Result struct {
	Features []domain.GazetteerFeature
	// Skipped counts records dropped for a missing name, non-finite
	// coordinates or a different body.
	Skipped int
}

// Reader implements the workflow's feature file activity.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader { return &Reader{} }

// ReadFile dispatches on the file extension.
func (r *Reader) ReadFile(ctx context.Context, path string, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSONFile(path, opts)
	case ".shp":
		return ReadShapefile(path, opts)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// normalize validates one raw record and converts its longitude.
func normalize(f domain.GazetteerFeature, opts Options) (domain.GazetteerFeature, bool) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return f, false
	}
	if math.IsNaN(f.Lat) || math.IsInf(f.Lat, 0) || math.IsNaN(f.Lon) || math.IsInf(f.Lon, 0) {
		return f, false
	}
	if f.Lat < -90 || f.Lat > 90 {
		return f, false
	}
	f.Lon = angle.Canonicalize(angle.Angle{Value: f.Lon, Convention: opts.Convention}).Value
	if f.Origin == "" {
		f.Origin = opts.Origin
	}
	if f.Category == "" {
		f.Category = "Feature"
	}
	return f, true
}
