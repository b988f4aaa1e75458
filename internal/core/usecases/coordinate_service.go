package usecases

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/stellarcanvas/internal/core/alignment"
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
	"github.com/samirrijal/stellarcanvas/internal/pkg/telemetry"
)

// ProjectRequest asks for the pixel of a coordinate in a dataset.
type ProjectRequest struct {
	DatasetID  string
	Lat        float64
	Lon        float64
	Convention angle.Convention
	Zoom       domain.OptionalFloat
}

// ProjectResult is the corrected pixel position of a coordinate.
type ProjectResult struct {
	DatasetID  string                `json:"dataset_id"`
	Pixel      projection.Pixel      `json:"pixel"`
	Normalized projection.Normalized `json:"normalized"`
	Dims       projection.Dims       `json:"dims"`
	Correction alignment.Resolved    `json:"correction"`
	Source     alignment.Source      `json:"correction_source"`
	Warnings   string                `json:"warnings,omitempty"`
}

// UnprojectRequest asks for the coordinate under a dataset pixel.
type UnprojectRequest struct {
	DatasetID  string
	X          float64
	Y          float64
	Convention angle.Convention
	Zoom       domain.OptionalFloat
}

// UnprojectResult is the coordinate under a pixel, in the requested convention.
type UnprojectResult struct {
	DatasetID  string             `json:"dataset_id"`
	Lat        float64            `json:"lat"`
	Lon        float64            `json:"lon"`
	Convention angle.Convention   `json:"convention"`
	Correction alignment.Resolved `json:"correction"`
	Source     alignment.Source   `json:"correction_source"`
}

// CoordinateService composes sanitization, alignment correction and
// projection into the forward and inverse chains.
type CoordinateService struct {
	catalog  *domain.Catalog
	resolver *alignment.Resolver
}

// NewCoordinateService creates a new CoordinateService.
func NewCoordinateService(catalog *domain.Catalog, resolver *alignment.Resolver) *CoordinateService {
	return &CoordinateService{catalog: catalog, resolver: resolver}
}

// Convert re-expresses a coordinate in another longitude convention.
// Latitude is sanitized; it has no convention.
func (s *CoordinateService) Convert(ctx context.Context, c domain.Coordinate, to angle.Convention) domain.Coordinate {
	lat, wLat := angle.SanitizeLat(c.Lat)
	lon, wLon := angle.SanitizeLon(c.Lon)
	s.report(ctx, "convert", "", wLat|wLon)
	return domain.Coordinate{Lat: lat, Lon: angle.Convert(lon, c.Convention, to), Convention: to}
}

// Project maps a coordinate to a corrected pixel: sanitize, lat/lon
// correction, projection, then the pixel-space correction.
func (s *CoordinateService) Project(ctx context.Context, req ProjectRequest) (ProjectResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CoordinateService.Project")
	defer span.End()
	span.SetAttributes(attribute.String("dataset", req.DatasetID))

	d, err := s.catalog.Dataset(req.DatasetID)
	if err != nil {
		return ProjectResult{}, err
	}

	lat, wLat := angle.SanitizeLat(req.Lat)
	lon, wLon := angle.SanitizeLon(req.Lon)
	lon = angle.Convert(lon, req.Convention, angle.Canonical)

	res, src := s.resolver.Resolve(d, lat, req.Zoom)
	metrics.CorrectionLookups.WithLabelValues(src.String()).Inc()
	ll, pixelStage := res.Stages()
	clat, clon := ll.Forward(lat, lon)

	dims := d.Dims()
	n, wProj := s.catalog.Projection(d.Body).ToNormalized(clat, clon, angle.Canonical)
	px := pixelStage.Forward(projection.ToPixel(n, dims))

	w := wLat | wLon | wProj
	s.report(ctx, "project", d.ID, w)

	out := ProjectResult{
		DatasetID:  d.ID,
		Pixel:      px,
		Normalized: n,
		Dims:       dims,
		Correction: res,
		Source:     src,
	}
	if w != 0 {
		out.Warnings = w.String()
	}
	return out, nil
}

// Unproject maps a corrected pixel back to a coordinate by undoing the pixel
// stage, the projection and the lat/lon stage in that order. The lat/lon
// stage is the one whose forward leg lands on the projected latitude, so
// points moved across a latitude band edge return to where they started.
func (s *CoordinateService) Unproject(ctx context.Context, req UnprojectRequest) (UnprojectResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CoordinateService.Unproject")
	defer span.End()
	span.SetAttributes(attribute.String("dataset", req.DatasetID))

	d, err := s.catalog.Dataset(req.DatasetID)
	if err != nil {
		return UnprojectResult{}, err
	}
	proj := s.catalog.Projection(d.Body)
	dims := d.Dims()

	// The pixel stage does not vary with latitude, so any latitude resolves it.
	raw := projection.Pixel{X: req.X, Y: req.Y}
	approxLat, _ := proj.PixelToLatLon(raw, dims, angle.Canonical)
	res, src := s.resolver.Resolve(d, approxLat, req.Zoom)
	metrics.CorrectionLookups.WithLabelValues(src.String()).Inc()
	_, pixelStage := res.Stages()
	clat, clon := proj.PixelToLatLon(pixelStage.Inverse(raw), dims, angle.Canonical)

	res, _ = s.resolver.ResolveInverse(d, clat, req.Zoom)
	ll, _ := res.Stages()
	lat, lon := ll.Inverse(clat, clon)

	lat, w := angle.SanitizeLat(lat)
	s.report(ctx, "unproject", d.ID, w)

	return UnprojectResult{
		DatasetID:  d.ID,
		Lat:        lat,
		Lon:        angle.Convert(lon, angle.Canonical, req.Convention),
		Convention: req.Convention,
		Correction: res,
		Source:     src,
	}, nil
}

// Compatible reports whether two datasets share a pixel grid.
func (s *CoordinateService) Compatible(a, b string) (bool, error) {
	da, err := s.catalog.Dataset(a)
	if err != nil {
		return false, err
	}
	db, err := s.catalog.Dataset(b)
	if err != nil {
		return false, err
	}
	return da.AlignedWith(db), nil
}

func (s *CoordinateService) report(ctx context.Context, op, dataset string, w angle.Warning) {
	if w == 0 {
		return
	}
	for _, k := range w.Kinds() {
		metrics.CoordinateWarnings.WithLabelValues(k.String()).Inc()
	}
	slog.WarnContext(ctx, "coordinate input repaired",
		"op", op,
		"dataset", dataset,
		"warnings", w.String(),
	)
}
