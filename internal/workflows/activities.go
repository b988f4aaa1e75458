package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/stellarcanvas/internal/adapters/gazetteerfile"
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// FileReader reads a gazetteer file into canonical features.
type FileReader interface {
	ReadFile(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error)
}

// ImportActivities holds the activity implementations for the gazetteer import workflow.
type ImportActivities struct {
	Reader    FileReader
	Features  ports.FeatureRepository
	Publisher ports.EventPublisher
}

// ImportFeatures reads the file and replaces the body's stored gazetteer
// with its contents. Reading and writing share one activity so the feature
// list never travels through workflow history.
func (a *ImportActivities) ImportFeatures(ctx context.Context, in ImportInput) (ImportResult, error) {
	body, err := domain.ParseBody(in.Body)
	if err != nil {
		return ImportResult{}, temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}
	conv, err := angle.ParseConvention(in.Convention)
	if err != nil {
		return ImportResult{}, temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}

	res, err := a.Reader.ReadFile(ctx, in.Path, gazetteerfile.Options{
		Body:       body,
		Convention: conv,
		Origin:     in.Origin,
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("read %s: %w", in.Path, err)
	}
	if len(res.Features) == 0 {
		// An empty file would wipe the body; refuse instead of retrying.
		return ImportResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%s has no %s features (%d skipped)", in.Path, body, res.Skipped), errTypeEmptyImport, nil)
	}

	n, err := a.Features.ReplaceBody(ctx, body, res.Features)
	if err != nil {
		return ImportResult{}, fmt.Errorf("replace %s gazetteer: %w", body, err)
	}
	slog.Info("gazetteer imported", "body", body.String(), "path", in.Path, "written", n, "skipped", res.Skipped)
	return ImportResult{Body: body.String(), Written: n, Skipped: res.Skipped}, nil
}

// VerifyFeatureCount checks that the store holds exactly want features for body.
func (a *ImportActivities) VerifyFeatureCount(ctx context.Context, body string, want int) error {
	b, err := domain.ParseBody(body)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}
	got, err := a.Features.Count(ctx, b)
	if err != nil {
		return fmt.Errorf("count %s features: %w", b, err)
	}
	if got != want {
		return fmt.Errorf("%s gazetteer holds %d features, expected %d", b, got, want)
	}
	return nil
}

// PublishGazetteerUpdated tells API instances to drop their cached copy of the body.
func (a *ImportActivities) PublishGazetteerUpdated(ctx context.Context, body string) error {
	b, err := domain.ParseBody(body)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}
	if a.Publisher == nil {
		slog.Warn("no event publisher, API instances keep their cached gazetteer", "body", body)
		return nil
	}
	return a.Publisher.PublishGazetteerUpdated(ctx, b)
}
