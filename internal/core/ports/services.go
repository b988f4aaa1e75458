package ports

import (
	"context"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// CorrectionChange announces that the correction under Key was replaced or
// deleted on some instance.
type CorrectionChange struct {
	Key     string                      `json:"key"`
	Deleted bool                        `json:"deleted"`
	Record  *domain.AlignmentCorrection `json:"record,omitempty"`
	Origin  string                      `json:"origin"`
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCorrectionChanged(ctx context.Context, change CorrectionChange) error
	PublishGazetteerUpdated(ctx context.Context, body domain.Body) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCorrectionChanges(ctx context.Context, handler func(ctx context.Context, change CorrectionChange) error) error
	SubscribeGazetteerUpdates(ctx context.Context, handler func(ctx context.Context, body domain.Body) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
