package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/stellarcanvas/internal/adapters/gazetteerfile"
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// ---- Mocks ----

type mockReader struct {
	readFn func(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error)
}

func (m *mockReader) ReadFile(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error) {
	return m.readFn(ctx, path, opts)
}

type mockFeatureRepo struct {
	stored map[domain.Body][]domain.GazetteerFeature
	// countDelta skews Count to simulate a concurrent writer.
	countDelta int
}

func (m *mockFeatureRepo) ReplaceBody(ctx context.Context, body domain.Body, features []domain.GazetteerFeature) (int, error) {
	if m.stored == nil {
		m.stored = make(map[domain.Body][]domain.GazetteerFeature)
	}
	m.stored[body] = features
	return len(features), nil
}

func (m *mockFeatureRepo) Count(ctx context.Context, body domain.Body) (int, error) {
	return len(m.stored[body]) + m.countDelta, nil
}

type mockPublisher struct {
	err    error
	bodies []domain.Body
}

func (m *mockPublisher) PublishCorrectionChanged(ctx context.Context, change ports.CorrectionChange) error {
	return nil
}

func (m *mockPublisher) PublishGazetteerUpdated(ctx context.Context, body domain.Body) error {
	m.bodies = append(m.bodies, body)
	return m.err
}

// ---- Helpers ----

func twoCraters(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error) {
	return gazetteerfile.Result{
		Features: []domain.GazetteerFeature{
			{Name: "Tycho", Body: opts.Body, Lat: -43.31, Lon: -11.22, Category: "Crater"},
			{Name: "Copernicus", Body: opts.Body, Lat: 9.62, Lon: -20.08, Category: "Crater"},
		},
		Skipped: 1,
	}, nil
}

func runImport(t *testing.T, acts *ImportActivities, in ImportInput) (ImportResult, error) {
	t.Helper()
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GazetteerImportWorkflow)
	env.RegisterActivity(acts)

	env.ExecuteWorkflow(GazetteerImportWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	if err := env.GetWorkflowError(); err != nil {
		return ImportResult{}, err
	}
	var res ImportResult
	require.NoError(t, env.GetWorkflowResult(&res))
	return res, nil
}

var moonInput = ImportInput{Body: "moon", Path: "all_features.json", Convention: "east-360", Origin: "IAU"}

// ---- Tests ----

func TestGazetteerImport_Success(t *testing.T) {
	var gotOpts gazetteerfile.Options
	repo := &mockFeatureRepo{}
	pub := &mockPublisher{}
	acts := &ImportActivities{
		Reader: &mockReader{readFn: func(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error) {
			gotOpts = opts
			return twoCraters(ctx, path, opts)
		}},
		Features:  repo,
		Publisher: pub,
	}

	res, err := runImport(t, acts, moonInput)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Body: "moon", Written: 2, Skipped: 1, Published: true}, res)
	assert.Len(t, repo.stored[domain.BodyMoon], 2)
	assert.Equal(t, []domain.Body{domain.BodyMoon}, pub.bodies)

	assert.Equal(t, domain.BodyMoon, gotOpts.Body)
	assert.Equal(t, angle.Convention{Direction: angle.East, Domain: angle.Domain360}, gotOpts.Convention)
	assert.Equal(t, "IAU", gotOpts.Origin)
}

func TestGazetteerImport_EmptyFileIsNotRetried(t *testing.T) {
	calls := 0
	repo := &mockFeatureRepo{}
	acts := &ImportActivities{
		Reader: &mockReader{readFn: func(ctx context.Context, path string, opts gazetteerfile.Options) (gazetteerfile.Result, error) {
			calls++
			return gazetteerfile.Result{Skipped: 4}, nil
		}},
		Features: repo,
	}

	_, err := runImport(t, acts, moonInput)
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errTypeEmptyImport, appErr.Type())
	assert.Equal(t, 1, calls)
	assert.Empty(t, repo.stored)
}

func TestGazetteerImport_InvalidInput(t *testing.T) {
	acts := &ImportActivities{
		Reader:   &mockReader{readFn: twoCraters},
		Features: &mockFeatureRepo{},
	}
	for _, in := range []ImportInput{
		{Body: "pluto", Path: "x.json", Convention: "east-180"},
		{Body: "moon", Path: "x.json", Convention: "east"},
	} {
		_, err := runImport(t, acts, in)
		var appErr *temporal.ApplicationError
		require.True(t, errors.As(err, &appErr), "input %+v", in)
		assert.Equal(t, errTypeInvalidInput, appErr.Type())
	}
}

func TestGazetteerImport_CountMismatchFails(t *testing.T) {
	pub := &mockPublisher{}
	acts := &ImportActivities{
		Reader:    &mockReader{readFn: twoCraters},
		Features:  &mockFeatureRepo{countDelta: 1},
		Publisher: pub,
	}
	_, err := runImport(t, acts, moonInput)
	require.Error(t, err)
	assert.Empty(t, pub.bodies, "a failed verification must not be announced")
}

func TestGazetteerImport_PublishFailureKeepsImport(t *testing.T) {
	repo := &mockFeatureRepo{}
	acts := &ImportActivities{
		Reader:    &mockReader{readFn: twoCraters},
		Features:  repo,
		Publisher: &mockPublisher{err: errors.New("nats down")},
	}
	res, err := runImport(t, acts, moonInput)
	require.NoError(t, err)
	assert.False(t, res.Published)
	assert.Equal(t, 2, res.Written)
	assert.Len(t, repo.stored[domain.BodyMoon], 2)
}

func TestPublishGazetteerUpdated_NoPublisher(t *testing.T) {
	acts := &ImportActivities{}
	assert.NoError(t, acts.PublishGazetteerUpdated(context.Background(), "mars"))
}
