package gazetteerfile

import (
	"context"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// FileSource implements ports.FeatureSource over a single feature list
// covering every body, as in deployments without a database.
type FileSource struct {
	path string
	conv angle.Convention
}

// NewFileSource returns a source reading path on every load.
func NewFileSource(path string, conv angle.Convention) *FileSource {
	return &FileSource{path: path, conv: conv}
}

// LoadFeatures reads the file and keeps the features of body.
func (s *FileSource) LoadFeatures(ctx context.Context, body domain.Body) ([]domain.GazetteerFeature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := ReadJSONFile(s.path, Options{Body: body, Convention: s.conv, RequireBody: true})
	if err != nil {
		return nil, err
	}
	return res.Features, nil
}
