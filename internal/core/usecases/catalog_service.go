package usecases

import (
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// CatalogService exposes body and dataset metadata.
type CatalogService struct {
	catalog *domain.Catalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog *domain.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Bodies returns every supported body.
func (s *CatalogService) Bodies() []domain.BodyProjection {
	return s.catalog.Bodies()
}

// Body returns the metadata for key. Unknown keys fail with ErrUnknownBody.
func (s *CatalogService) Body(key string) (domain.BodyProjection, error) {
	return s.catalog.LookupBody(key)
}

// Datasets returns all datasets, or only those of body when it is non-empty.
func (s *CatalogService) Datasets(body string) ([]domain.Dataset, error) {
	if body == "" {
		return s.catalog.Datasets(), nil
	}
	b, err := domain.ParseBody(body)
	if err != nil {
		return nil, err
	}
	return s.catalog.DatasetsForBody(b), nil
}

// Dataset returns one dataset by id.
func (s *CatalogService) Dataset(id string) (domain.Dataset, error) {
	return s.catalog.Dataset(id)
}
