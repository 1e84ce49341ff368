package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Lllllllleong/leadflow/internal/gcp"
	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/google/uuid"
)

// UploadNotifierConfig holds configuration for the storage-triggered notifier.
type UploadNotifierConfig struct {
	ProjectID        string
	DocumentsBucket  string
	WorkflowLocation string
	WorkflowID       string
	WebhookURL       string
}

// LoadUploadNotifierConfig loads and validates the upload notifier's environment.
func LoadUploadNotifierConfig() (*UploadNotifierConfig, error) {
	config := &UploadNotifierConfig{
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		DocumentsBucket:  gcp.GetEnv("DOCUMENTS_BUCKET", "documents"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "lead-enrichment"),
		WebhookURL:       gcp.GetEnv("WORKFLOW_WEBHOOK_URL", ""),
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return config, nil
}

// UploadNotifierFunction starts a workflow run for every CSV stored under
// the public prefix of the documents bucket.
type UploadNotifierFunction struct {
	runner WorkflowRunner
	config UploadNotifierConfig
}

// NewUploadNotifier creates an UploadNotifierFunction.
func NewUploadNotifier(runner WorkflowRunner, config UploadNotifierConfig) *UploadNotifierFunction {
	return &UploadNotifierFunction{runner: runner, config: config}
}

// NewUploadNotifierFromEnv builds a Cloud Workflows runner from the environment.
func NewUploadNotifierFromEnv(ctx context.Context) (*UploadNotifierFunction, error) {
	config, err := LoadUploadNotifierConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	runner, err := gcp.NewWorkflowsRunner(ctx, config.ProjectID, config.WorkflowLocation)
	if err != nil {
		return nil, err
	}
	slog.Info("Upload notifier initialized.", "workflowId", config.WorkflowID, "bucket", config.DocumentsBucket)
	return NewUploadNotifier(runner, *config), nil
}

// DocumentIDFromObject returns the document id encoded in an object name of
// the form public/<uuid>.csv.
func DocumentIDFromObject(name string) (string, bool) {
	if !strings.HasPrefix(name, StoragePrefix) || path.Dir(name) != strings.TrimSuffix(StoragePrefix, "/") {
		return "", false
	}
	id, ok := strings.CutSuffix(path.Base(name), ".csv")
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Process starts one workflow run for the stored CSV. Events for other
// buckets or object names are skipped and the returned run is nil.
func (f *UploadNotifierFunction) Process(ctx context.Context, e models.StorageObjectEvent) (*models.WorkflowRunResponse, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if e.Bucket != f.config.DocumentsBucket {
		logCtx.Info("Skipping object outside the documents bucket.")
		return nil, nil
	}
	documentID, ok := DocumentIDFromObject(e.Name)
	if !ok {
		logCtx.Info("Skipping object that is not an uploaded CSV.")
		return nil, nil
	}
	logCtx = logCtx.With("documentId", documentID)

	run, err := f.runner.RunWorkflow(ctx, models.WorkflowRunRequest{
		WorkflowID: f.config.WorkflowID,
		WebhookURL: f.config.WebhookURL,
		Input: models.WorkflowInput{
			CSV:        fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name),
			DocumentID: documentID,
		},
	})
	if err != nil {
		logCtx.Error("Failed to trigger workflow for upload.", "error", err)
		return nil, fmt.Errorf("failed to trigger workflow for %s: %w", documentID, err)
	}

	logCtx.Info("Hand-off to workflow complete.", "executionId", run.ID, "state", run.Status)
	return run, nil
}
