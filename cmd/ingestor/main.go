package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/config"
	"github.com/samirrijal/stellarcanvas/internal/pkg/logging"
	"github.com/samirrijal/stellarcanvas/internal/workflows"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists the gazetteer files to import, one per body.
type Manifest struct {
	Source string      `json:"source"`
	Files  []FileEntry `json:"files"`
}

type FileEntry struct {
	Body string `json:"body"`
	Path string `json:"path"`
	// Convention of the file's longitudes; defaults to gazetteer.file_convention.
	Convention string `json:"convention,omitempty"`
	Origin     string `json:"origin,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("stellar-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := loadManifest(manifestPath, cfg.Gazetteer.FileConvention)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	// Filter bodies (optional CLI arg: body list)
	bodyFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, b := range strings.Split(os.Args[2], ",") {
			bodyFilter[strings.ToLower(strings.TrimSpace(b))] = true
		}
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	slog.Info("starting gazetteer imports", "files", len(manifest.Files), "source", manifest.Source)

	ctx := context.Background()
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent imports

	for _, f := range manifest.Files {
		if len(bodyFilter) > 0 && !bodyFilter[f.Body] {
			continue
		}

		wg.Add(1)
		go func(f FileEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := runImport(ctx, c, cfg.Temporal.TaskQueue, f); err != nil {
				slog.Error("import failed", "body", f.Body, "path", f.Path, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(f)
	}

	wg.Wait()
	if failed > 0 {
		log.Fatalf("%d import(s) failed", failed)
	}
	slog.Info("ingestion complete")
}

// loadManifest reads and checks the manifest. Bodies and conventions are
// validated up front so a typo fails before any workflow starts.
func loadManifest(path, defaultConvention string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for i := range m.Files {
		f := &m.Files[i]
		b, err := domain.ParseBody(f.Body)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
		f.Body = b.String()
		if seen[f.Body] {
			return nil, fmt.Errorf("files[%d]: body %s listed twice", i, f.Body)
		}
		seen[f.Body] = true
		if f.Path == "" {
			return nil, fmt.Errorf("files[%d]: path is required", i)
		}
		if f.Convention == "" {
			f.Convention = defaultConvention
		}
		if _, err := angle.ParseConvention(f.Convention); err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
	}
	return &m, nil
}

// runImport starts the import workflow for one file and waits for it.
// The workflow id is per body, so two imports of a body never overlap.
func runImport(ctx context.Context, c client.Client, taskQueue string, f FileEntry) error {
	opts := client.StartWorkflowOptions{
		ID:                                       "gazetteer-import-" + f.Body,
		TaskQueue:                                taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, workflows.GazetteerImportWorkflow, workflows.ImportInput{
		Body:       f.Body,
		Path:       f.Path,
		Convention: f.Convention,
		Origin:     f.Origin,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("import started", "body", f.Body, "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var res workflows.ImportResult
	if err := run.Get(ctx, &res); err != nil {
		return err
	}
	slog.Info("import finished",
		"body", res.Body,
		"written", res.Written,
		"skipped", res.Skipped,
		"published", res.Published,
	)
	return nil
}
