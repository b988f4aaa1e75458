package usecases_test

import (
	"context"
	"sync"
	"testing"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/pkg/tiling"
)

// --- Mock CorrectionStore ---

type mockCorrectionStore struct {
	getFn    func(ctx context.Context, key string) (domain.AlignmentCorrection, error)
	setFn    func(ctx context.Context, key string, rec domain.AlignmentCorrection) error
	deleteFn func(ctx context.Context, key string) error
	listFn   func(ctx context.Context) (map[string]domain.AlignmentCorrection, error)
}

func (m *mockCorrectionStore) Get(ctx context.Context, key string) (domain.AlignmentCorrection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return domain.AlignmentCorrection{}, domain.ErrNotFound
}

func (m *mockCorrectionStore) Set(ctx context.Context, key string, rec domain.AlignmentCorrection) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, rec)
	}
	return nil
}

func (m *mockCorrectionStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockCorrectionStore) List(ctx context.Context) (map[string]domain.AlignmentCorrection, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu      sync.Mutex
	changes []ports.CorrectionChange
	bodies  []domain.Body
}

func (m *mockPublisher) PublishCorrectionChanged(ctx context.Context, change ports.CorrectionChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *mockPublisher) PublishGazetteerUpdated(ctx context.Context, body domain.Body) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

// --- Mock FeatureSource ---

type mockFeatureSource struct {
	loadFn func(ctx context.Context, body domain.Body) ([]domain.GazetteerFeature, error)
}

func (m *mockFeatureSource) LoadFeatures(ctx context.Context, body domain.Body) ([]domain.GazetteerFeature, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, body)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.hits++
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Fixtures ---

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog(nil, []domain.Dataset{
		{
			ID:               "moon-lro",
			Title:            "LRO WAC Global Mosaic",
			Body:             domain.BodyMoon,
			URLTemplate:      "https://tiles.example/moon/lro/{z}/{y}/{x}.png",
			Scheme:           tiling.SchemeWMTS,
			YAxis:            tiling.NorthDown,
			TileSize:         256,
			MinZoom:          0,
			MaxZoom:          7,
			CompatibilityKey: "moon-global",
		},
		{
			ID:               "moon-lola",
			Title:            "LOLA Shaded Relief",
			Body:             domain.BodyMoon,
			URLTemplate:      "https://tiles.example/moon/lola/{z}/{y}/{x}.png",
			Scheme:           tiling.SchemeWMTS,
			YAxis:            tiling.NorthDown,
			TileSize:         256,
			MinZoom:          0,
			MaxZoom:          7,
			CompatibilityKey: "moon-global",
		},
		{
			ID:          "mars-viking",
			Title:       "Viking MDIM 2.1",
			Body:        domain.BodyMars,
			URLTemplate: "https://tiles.example/mars/{z}/{col}/{row}.jpg",
			Scheme:      tiling.SchemeXYZ,
			YAxis:       tiling.SouthUp,
			TileSize:    256,
			MinZoom:     1,
			MaxZoom:     6,
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}
