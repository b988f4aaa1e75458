// Package memory holds in-process adapters for single-instance deployments
// and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// CorrectionStore implements ports.CorrectionStore in memory.
type CorrectionStore struct {
	mu   sync.RWMutex
	recs map[string]domain.AlignmentCorrection
}

// NewCorrectionStore returns an empty store.
func NewCorrectionStore() *CorrectionStore {
	return &CorrectionStore{recs: make(map[string]domain.AlignmentCorrection)}
}

func (s *CorrectionStore) Get(ctx context.Context, key string) (domain.AlignmentCorrection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	if !ok {
		return domain.AlignmentCorrection{}, fmt.Errorf("correction %q: %w", key, domain.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *CorrectionStore) Set(ctx context.Context, key string, rec domain.AlignmentCorrection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[key] = rec.Clone()
	return nil
}

func (s *CorrectionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, key)
	return nil
}

func (s *CorrectionStore) List(ctx context.Context) (map[string]domain.AlignmentCorrection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.AlignmentCorrection, len(s.recs))
	for k, v := range s.recs {
		out[k] = v.Clone()
	}
	return out, nil
}
