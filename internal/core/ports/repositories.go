package ports

import (
	"context"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// CorrectionStore persists alignment corrections by key (dataset id,
// compat:<key> or body:<name>).
type CorrectionStore interface {
	Get(ctx context.Context, key string) (domain.AlignmentCorrection, error)
	Set(ctx context.Context, key string, rec domain.AlignmentCorrection) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]domain.AlignmentCorrection, error)
}

// FeatureRepository persists gazetteer features.
type FeatureRepository interface {
	ReplaceBody(ctx context.Context, body domain.Body, features []domain.GazetteerFeature) (int, error)
	Count(ctx context.Context, body domain.Body) (int, error)
}

// FeatureSource loads the full gazetteer of one body.
type FeatureSource interface {
	LoadFeatures(ctx context.Context, body domain.Body) ([]domain.GazetteerFeature, error)
}
