package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/stellarcanvas/internal/core/alignment"
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
	"github.com/samirrijal/stellarcanvas/internal/pkg/telemetry"
)

const maxCorrectionKeyLen = 128

// KeyedCorrection is a stored record with its key.
type KeyedCorrection struct {
	Key    string                     `json:"key"`
	Record domain.AlignmentCorrection `json:"record"`
}

// DatasetCorrection is the record in effect for a dataset.
type DatasetCorrection struct {
	DatasetID string                      `json:"dataset_id"`
	Key       string                      `json:"key,omitempty"`
	Source    alignment.Source            `json:"source"`
	Record    *domain.AlignmentCorrection `json:"record,omitempty"`
}

// ApplyRequest runs one leg of the lat/lon correction for a dataset.
type ApplyRequest struct {
	DatasetID  string
	Lat        float64
	Lon        float64
	Convention angle.Convention
	Zoom       domain.OptionalFloat
	Inverse    bool
}

// ApplyResult is the corrected coordinate plus the pixel stage the caller
// applies after projection.
type ApplyResult struct {
	Lat        float64              `json:"lat"`
	Lon        float64              `json:"lon"`
	Convention angle.Convention     `json:"convention"`
	Pixel      alignment.PixelStage `json:"pixel_offset"`
	Source     alignment.Source     `json:"source"`
}

// CorrectionService manages alignment corrections: the in-memory table used
// by readers, the backing store, and change propagation between instances.
type CorrectionService struct {
	catalog   *domain.Catalog
	resolver  *alignment.Resolver
	store     ports.CorrectionStore
	publisher ports.EventPublisher
	origin    string
	now       func() time.Time
}

// NewCorrectionService creates a new CorrectionService. store and publisher
// may be nil; origin identifies this instance in change events.
func NewCorrectionService(
	catalog *domain.Catalog,
	resolver *alignment.Resolver,
	store ports.CorrectionStore,
	publisher ports.EventPublisher,
	origin string,
) *CorrectionService {
	return &CorrectionService{
		catalog:   catalog,
		resolver:  resolver,
		store:     store,
		publisher: publisher,
		origin:    origin,
		now:       time.Now,
	}
}

// Load merges every stored record over the seeded defaults. On failure the
// table is left untouched so the engine keeps running on its defaults.
func (s *CorrectionService) Load(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	recs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corrections: %w", err)
	}
	s.resolver.Table().Merge(recs)
	return len(recs), nil
}

// Get returns the record stored under key.
func (s *CorrectionService) Get(key string) (domain.AlignmentCorrection, error) {
	rec, ok := s.resolver.Table().Get(key)
	if !ok {
		return domain.AlignmentCorrection{}, fmt.Errorf("%w: %q", domain.ErrNoCorrection, key)
	}
	return rec, nil
}

// List returns every record ordered by key.
func (s *CorrectionService) List() []KeyedCorrection {
	t := s.resolver.Table()
	keys := t.Keys()
	out := make([]KeyedCorrection, 0, len(keys))
	for _, k := range keys {
		if rec, ok := t.Get(k); ok {
			out = append(out, KeyedCorrection{Key: k, Record: rec})
		}
	}
	return out
}

// ForDataset reports which record applies to a dataset, if any.
func (s *CorrectionService) ForDataset(id string) (DatasetCorrection, error) {
	d, err := s.catalog.Dataset(id)
	if err != nil {
		return DatasetCorrection{}, err
	}
	rec, key, src := s.resolver.Table().Lookup(d)
	out := DatasetCorrection{DatasetID: d.ID, Key: key, Source: src}
	if src != alignment.SourceNone {
		out.Record = &rec
	}
	return out, nil
}

// Resolve returns the correction for a dataset at (lat, zoom). Unknown
// datasets yield Identity with SourceNone alongside the error.
func (s *CorrectionService) Resolve(datasetID string, lat float64, zoom domain.OptionalFloat) (alignment.Resolved, alignment.Source, error) {
	d, err := s.catalog.Dataset(datasetID)
	if err != nil {
		return alignment.Identity(), alignment.SourceNone, err
	}
	lat, _ = angle.SanitizeLat(lat)
	res, src := s.resolver.Resolve(d, lat, zoom)
	return res, src, nil
}

// Apply runs the forward or inverse lat/lon stage for a coordinate.
func (s *CorrectionService) Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error) {
	d, err := s.catalog.Dataset(req.DatasetID)
	if err != nil {
		return ApplyResult{}, err
	}
	lat, wLat := angle.SanitizeLat(req.Lat)
	lon, wLon := angle.SanitizeLon(req.Lon)
	if w := wLat | wLon; w != 0 {
		slog.WarnContext(ctx, "correction input repaired", "dataset", d.ID, "warnings", w.String())
	}
	lon = angle.Convert(lon, req.Convention, angle.Canonical)

	var (
		px  alignment.PixelStage
		src alignment.Source
	)
	if req.Inverse {
		lat, lon, src = s.resolver.ApplyInverse(d, lat, lon, req.Zoom)
		res, _ := s.resolver.Resolve(d, lat, req.Zoom)
		_, px = res.Stages()
	} else {
		lat, lon, px, src = s.resolver.ApplyForward(d, lat, lon, req.Zoom)
	}
	metrics.CorrectionLookups.WithLabelValues(src.String()).Inc()

	return ApplyResult{
		Lat:        lat,
		Lon:        angle.Convert(lon, angle.Canonical, req.Convention),
		Convention: req.Convention,
		Pixel:      px,
		Source:     src,
	}, nil
}

// Set validates rec, writes it to the store and then swaps it into the
// table. A store failure leaves the table unchanged.
func (s *CorrectionService) Set(ctx context.Context, key string, rec domain.AlignmentCorrection) (domain.AlignmentCorrection, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CorrectionService.Set")
	defer span.End()

	if err := s.validateKey(key); err != nil {
		return domain.AlignmentCorrection{}, err
	}
	if err := rec.Validate(); err != nil {
		return domain.AlignmentCorrection{}, err
	}
	rec.UpdatedAt = s.now().UTC()

	if s.store != nil {
		if err := s.store.Set(ctx, key, rec); err != nil {
			return domain.AlignmentCorrection{}, fmt.Errorf("store correction %q: %w", key, err)
		}
	}
	s.resolver.Table().Set(key, rec)
	metrics.CorrectionUpdates.WithLabelValues("set", "local").Inc()

	stored := rec.Clone()
	s.publish(ctx, ports.CorrectionChange{Key: key, Record: &stored, Origin: s.origin})
	return rec, nil
}

// Delete removes the record under key.
func (s *CorrectionService) Delete(ctx context.Context, key string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "CorrectionService.Delete")
	defer span.End()

	if _, ok := s.resolver.Table().Get(key); !ok {
		return fmt.Errorf("%w: %q", domain.ErrNoCorrection, key)
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete correction %q: %w", key, err)
		}
	}
	s.resolver.Table().Delete(key)
	metrics.CorrectionUpdates.WithLabelValues("delete", "local").Inc()

	s.publish(ctx, ports.CorrectionChange{Key: key, Deleted: true, Origin: s.origin})
	return nil
}

// ApplyRemoteChange folds a change published by another instance into the
// table. Events from this instance are ignored.
func (s *CorrectionService) ApplyRemoteChange(ctx context.Context, change ports.CorrectionChange) error {
	if change.Origin == s.origin {
		return nil
	}
	if change.Key == "" {
		return fmt.Errorf("%w: change without key", domain.ErrInvalidCorrection)
	}
	if change.Deleted {
		s.resolver.Table().Delete(change.Key)
		metrics.CorrectionUpdates.WithLabelValues("delete", "remote").Inc()
		return nil
	}

	var rec domain.AlignmentCorrection
	switch {
	case change.Record != nil:
		rec = *change.Record
	case s.store != nil:
		r, err := s.store.Get(ctx, change.Key)
		if err != nil {
			return fmt.Errorf("fetch changed correction %q: %w", change.Key, err)
		}
		rec = r
	default:
		return fmt.Errorf("%w: change for %q carries no record", domain.ErrInvalidCorrection, change.Key)
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	s.resolver.Table().Set(change.Key, rec)
	metrics.CorrectionUpdates.WithLabelValues("set", "remote").Inc()
	return nil
}

func (s *CorrectionService) publish(ctx context.Context, change ports.CorrectionChange) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCorrectionChanged(ctx, change); err != nil {
		slog.WarnContext(ctx, "publish correction change failed", "key", change.Key, "error", err)
	}
}

func (s *CorrectionService) validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", domain.ErrInvalidCorrection)
	case len(key) > maxCorrectionKeyLen:
		return fmt.Errorf("%w: key longer than %d bytes", domain.ErrInvalidCorrection, maxCorrectionKeyLen)
	case strings.ContainsAny(key, " \t\r\n"):
		return fmt.Errorf("%w: key contains whitespace", domain.ErrInvalidCorrection)
	}
	if name, ok := strings.CutPrefix(key, "body:"); ok {
		if _, err := domain.ParseBody(name); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidCorrection, err)
		}
	}
	if name, ok := strings.CutPrefix(key, "compat:"); ok && name == "" {
		return fmt.Errorf("%w: empty compatibility key", domain.ErrInvalidCorrection)
	}
	return nil
}
