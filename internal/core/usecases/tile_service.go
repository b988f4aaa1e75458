package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
	"github.com/samirrijal/stellarcanvas/internal/pkg/tiling"
)

// TileRef is a provider tile and its URL.
type TileRef struct {
	DatasetID string `json:"dataset_id"`
	Level     int    `json:"level"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	tiling.Address
	URL string `json:"url"`
}

// PointTile is the tile holding a coordinate, with the coordinate's pixel.
type PointTile struct {
	TileRef
	Pixel projection.Pixel `json:"pixel"`
}

// TileService resolves virtual pyramid coordinates to provider tiles.
type TileService struct {
	catalog *domain.Catalog
	coords  *CoordinateService
}

// NewTileService creates a new TileService.
func NewTileService(catalog *domain.Catalog, coords *CoordinateService) *TileService {
	return &TileService{catalog: catalog, coords: coords}
}

// Tile maps (level, x, y) of the dataset's virtual pyramid to a provider
// tile. Columns wrap; rows outside the pyramid fail with tiling.ErrOffGrid.
func (s *TileService) Tile(datasetID string, level, x, y int) (TileRef, error) {
	d, err := s.catalog.Dataset(datasetID)
	if err != nil {
		return TileRef{}, err
	}
	return s.tile(d, level, x, y)
}

func (s *TileService) tile(d domain.Dataset, level, x, y int) (TileRef, error) {
	addr, err := tiling.Resolve(d.Pyramid(), level, x, y)
	if err != nil {
		if errors.Is(err, tiling.ErrOffGrid) {
			metrics.OffGridTiles.Inc()
		}
		return TileRef{}, err
	}
	return TileRef{
		DatasetID: d.ID,
		Level:     level,
		X:         x,
		Y:         y,
		Address:   addr,
		URL:       tiling.Template(d.URLTemplate).Expand(addr),
	}, nil
}

// TileForPoint returns the tile at level containing the corrected position
// of (lat, lon).
func (s *TileService) TileForPoint(ctx context.Context, datasetID string, lat, lon float64, conv angle.Convention, level int) (PointTile, error) {
	d, err := s.catalog.Dataset(datasetID)
	if err != nil {
		return PointTile{}, err
	}
	if level < 0 || level > d.Levels() {
		return PointTile{}, fmt.Errorf("%w: level %d (dataset has %d levels)", tiling.ErrLevelOutOfRange, level, d.Levels())
	}
	p, err := s.coords.Project(ctx, ProjectRequest{
		DatasetID:  d.ID,
		Lat:        lat,
		Lon:        lon,
		Convention: conv,
		Zoom:       domain.Float(float64(level + d.MinZoom)),
	})
	if err != nil {
		return PointTile{}, err
	}

	n := projection.FromPixel(p.Pixel, p.Dims)
	x, y := tiling.TileAtNormalized(n.U, n.V, level)
	ref, err := s.tile(d, level, x, y)
	if err != nil {
		return PointTile{}, err
	}
	return PointTile{TileRef: ref, Pixel: p.Pixel}, nil
}
