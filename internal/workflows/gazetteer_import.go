package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Application error types raised by the import activities.
const (
	errTypeInvalidInput = "InvalidInput"
	errTypeEmptyImport  = "EmptyImport"
)

// ImportInput is the input for the gazetteer import workflow.
type ImportInput struct {
	Body string
	Path string
	// Convention is the longitude convention of the file, e.g. "east-360".
	Convention string
	Origin     string
}

// ImportResult summarises a completed import.
type ImportResult struct {
	Body      string
	Written   int
	Skipped   int
	Published bool
}

// GazetteerImportWorkflow replaces a body's gazetteer from a file, checks
// the stored row count, and then announces the update. A failed
// announcement does not fail the import; the result reports it instead.
func GazetteerImportWorkflow(ctx workflow.Context, input ImportInput) (ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting gazetteer import", "body", input.Body, "path", input.Path)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{errTypeInvalidInput, errTypeEmptyImport},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: read and store
	var res ImportResult
	if err := workflow.ExecuteActivity(ctx, "ImportFeatures", input).Get(ctx, &res); err != nil {
		return ImportResult{}, err
	}

	// Step 2: verify
	verifyCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	if err := workflow.ExecuteActivity(verifyCtx, "VerifyFeatureCount", res.Body, res.Written).Get(ctx, nil); err != nil {
		return res, err
	}

	// Step 3: announce
	pubCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 5},
	})
	if err := workflow.ExecuteActivity(pubCtx, "PublishGazetteerUpdated", res.Body).Get(ctx, nil); err != nil {
		logger.Warn("gazetteer update not announced", "body", res.Body, "error", err)
		return res, nil
	}
	res.Published = true

	logger.Info("Gazetteer import complete", "body", res.Body, "written", res.Written, "skipped", res.Skipped)
	return res, nil
}
