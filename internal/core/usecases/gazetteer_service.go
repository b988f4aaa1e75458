package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/geospatial"
	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
	"github.com/samirrijal/stellarcanvas/internal/pkg/telemetry"
)

// Search match scores.
const (
	scoreExactName    = 100
	scoreNameContains = 50
	scoreKeyword      = 25
	scoreCategory     = 10
)

// GazetteerOptions tunes loading and caching.
type GazetteerOptions struct {
	// LoadRate and LoadBurst throttle loads from the feature source.
	LoadRate  rate.Limit
	LoadBurst int
	// LoadTimeout bounds a single load independently of any caller.
	LoadTimeout time.Duration
	// SearchTTL is how long search results stay in the cache.
	SearchTTL time.Duration
}

func (o GazetteerOptions) withDefaults() GazetteerOptions {
	if o.LoadRate <= 0 {
		o.LoadRate = rate.Every(time.Second)
	}
	if o.LoadBurst <= 0 {
		o.LoadBurst = len(domain.KnownBodies)
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 30 * time.Second
	}
	if o.SearchTTL <= 0 {
		o.SearchTTL = 5 * time.Minute
	}
	return o
}

// NearestRequest asks for the feature closest to a point on a body.
type NearestRequest struct {
	Body       string
	Lat        float64
	Lon        float64
	Convention angle.Convention
	// MaxDistanceKm is optional; when unset any distance matches.
	MaxDistanceKm domain.OptionalFloat
}

type bodyGazetteer struct {
	features []domain.GazetteerFeature
	index    *geospatial.Index[domain.GazetteerFeature]
	loadedAt time.Time
}

// GazetteerService answers nearest-feature, search and viewport queries
// against an in-memory copy of each body's gazetteer. Each body is loaded
// lazily, at most once concurrently.
type GazetteerService struct {
	catalog *domain.Catalog
	source  ports.FeatureSource
	cache   ports.CacheService
	opts    GazetteerOptions
	limiter *rate.Limiter
	loads   singleflight.Group

	mu         sync.RWMutex
	bodies     map[domain.Body]*bodyGazetteer
	generation map[domain.Body]uint64
}

// NewGazetteerService creates a new GazetteerService. cache may be nil.
func NewGazetteerService(catalog *domain.Catalog, source ports.FeatureSource, cache ports.CacheService, opts GazetteerOptions) *GazetteerService {
	opts = opts.withDefaults()
	return &GazetteerService{
		catalog:    catalog,
		source:     source,
		cache:      cache,
		opts:       opts,
		limiter:    rate.NewLimiter(opts.LoadRate, opts.LoadBurst),
		bodies:     make(map[domain.Body]*bodyGazetteer),
		generation: make(map[domain.Body]uint64),
	}
}

// Features returns the full gazetteer of body, loading it on first use.
func (s *GazetteerService) Features(ctx context.Context, body string) ([]domain.GazetteerFeature, error) {
	b, err := domain.ParseBody(body)
	if err != nil {
		return nil, err
	}
	g, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}
	return g.features, nil
}

// Loaded reports which bodies are currently held in memory and how many
// features each has.
func (s *GazetteerService) Loaded() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.bodies))
	for b, g := range s.bodies {
		out[b.String()] = len(g.features)
	}
	return out
}

// load returns the cached gazetteer of b or loads it. Concurrent callers
// share one load; a caller whose ctx ends stops waiting without cancelling
// the load for the others.
func (s *GazetteerService) load(ctx context.Context, b domain.Body) (*bodyGazetteer, error) {
	if g := s.cached(b); g != nil {
		return g, nil
	}

	ch := s.loads.DoChan(b.String(), func() (any, error) {
		if g := s.cached(b); g != nil {
			return g, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.fetch(lctx, b)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*bodyGazetteer), nil
	}
}

func (s *GazetteerService) cached(b domain.Body) *bodyGazetteer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bodies[b]
}

func (s *GazetteerService) fetch(ctx context.Context, b domain.Body) (*bodyGazetteer, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "GazetteerService.load")
	defer span.End()
	span.SetAttributes(attribute.String("body", b.String()))

	if err := s.limiter.Wait(ctx); err != nil {
		metrics.GazetteerLoads.WithLabelValues(b.String(), "throttled").Inc()
		return nil, fmt.Errorf("gazetteer load %s: %w", b, err)
	}

	s.mu.RLock()
	gen := s.generation[b]
	s.mu.RUnlock()

	start := time.Now()
	features, err := s.source.LoadFeatures(ctx, b)
	metrics.GazetteerLoadDuration.WithLabelValues(b.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GazetteerLoads.WithLabelValues(b.String(), "error").Inc()
		return nil, fmt.Errorf("gazetteer load %s: %w", b, err)
	}

	g := &bodyGazetteer{
		features: features,
		index:    geospatial.NewIndex(features),
		loadedAt: time.Now(),
	}
	s.mu.Lock()
	// An Invalidate during the load means the data may already be stale.
	if s.generation[b] == gen {
		s.bodies[b] = g
	}
	s.mu.Unlock()

	metrics.GazetteerLoads.WithLabelValues(b.String(), "ok").Inc()
	metrics.GazetteerFeatures.WithLabelValues(b.String()).Set(float64(len(features)))
	slog.InfoContext(ctx, "gazetteer loaded", "body", b.String(), "features", len(features), "took", time.Since(start).String())
	return g, nil
}

// Invalidate drops the in-memory gazetteer of body so the next query reloads
// it, and retires cached search results.
func (s *GazetteerService) Invalidate(body domain.Body) {
	s.mu.Lock()
	delete(s.bodies, body)
	s.generation[body]++
	s.mu.Unlock()
	s.loads.Forget(body.String())
	metrics.GazetteerFeatures.WithLabelValues(body.String()).Set(0)
}

// Nearest returns the feature closest to the requested point, measured on a
// sphere with the body's own radius.
func (s *GazetteerService) Nearest(ctx context.Context, req NearestRequest) (domain.FeatureMatch, error) {
	b, err := domain.ParseBody(req.Body)
	if err != nil {
		return domain.FeatureMatch{}, err
	}
	g, err := s.load(ctx, b)
	if err != nil {
		return domain.FeatureMatch{}, err
	}

	lat, wLat := angle.SanitizeLat(req.Lat)
	lon, wLon := angle.SanitizeLon(req.Lon)
	if w := wLat | wLon; w != 0 {
		slog.WarnContext(ctx, "nearest input repaired", "body", b.String(), "warnings", w.String())
	}
	lon = angle.Convert(lon, req.Convention, angle.Canonical)

	radius := s.catalog.Body(b).RadiusKm
	m, ok := geospatial.Nearest(lat, lon, g.features, radius)
	if !ok {
		return domain.FeatureMatch{}, fmt.Errorf("%w: no features for %s", domain.ErrNotFound, b)
	}
	if req.MaxDistanceKm.Valid() && m.DistanceKm > req.MaxDistanceKm.Value {
		return domain.FeatureMatch{}, fmt.Errorf("%w: nearest feature is %.1f km away", domain.ErrNotFound, m.DistanceKm)
	}
	return domain.FeatureMatch{Feature: m.Item, DistanceKm: m.DistanceKm}, nil
}

// InBounds returns up to limit features of body inside the viewport.
func (s *GazetteerService) InBounds(ctx context.Context, body string, bounds domain.Bounds, limit int) ([]domain.GazetteerFeature, error) {
	b, err := domain.ParseBody(body)
	if err != nil {
		return nil, err
	}
	if bounds.MinLat > bounds.MaxLat {
		return nil, fmt.Errorf("%w: min_lat greater than max_lat", domain.ErrInvalidInput)
	}
	g, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}
	out := g.index.InBounds(bounds.Bound())
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search ranks the features of body against query: exact name, name
// substring, keyword substring, then category substring.
func (s *GazetteerService) Search(ctx context.Context, body, query string, limit int) ([]domain.ScoredFeature, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	b, err := domain.ParseBody(body)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	gen := s.generation[b]
	s.mu.RUnlock()
	cacheKey := fmt.Sprintf("gazetteer:search:%s:%d:%d:%s", b, gen, limit, q)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var hits []domain.ScoredFeature
			if err := json.Unmarshal(data, &hits); err == nil {
				metrics.CacheHits.WithLabelValues("gazetteer_search").Inc()
				return hits, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("gazetteer_search").Inc()
	}

	g, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}
	hits := rank(g.features, q, limit)

	if s.cache != nil {
		if data, err := json.Marshal(hits); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(s.opts.SearchTTL.Seconds()))
		}
	}
	return hits, nil
}

func rank(features []domain.GazetteerFeature, q string, limit int) []domain.ScoredFeature {
	hits := make([]domain.ScoredFeature, 0, limit)
	for _, f := range features {
		if score := matchScore(f, q); score > 0 {
			hits = append(hits, domain.ScoredFeature{GazetteerFeature: f, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func matchScore(f domain.GazetteerFeature, q string) int {
	name := strings.ToLower(f.Name)
	switch {
	case name == q:
		return scoreExactName
	case strings.Contains(name, q):
		return scoreNameContains
	}
	for _, kw := range f.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return scoreKeyword
		}
	}
	if strings.Contains(strings.ToLower(f.Category), q) {
		return scoreCategory
	}
	return 0
}
