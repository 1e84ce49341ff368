package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/leadflow/internal/gcp"
	"github.com/Lllllllleong/leadflow/internal/leap"
	"github.com/Lllllllleong/leadflow/internal/models"
)

// LeapWorkflowID is the Leap workflow the notifier starts.
const LeapWorkflowID = "wkf_LhHiATZN4uI11H"

// notifierInput is the fixed input sent with every run. The request body
// does not feed into it.
var notifierInput = models.WorkflowInput{
	CSV:        "furqan@thirdweb.com",
	DocumentID: "string",
}

// ErrLeapUnauthorized means Leap rejected the configured API key.
var ErrLeapUnauthorized = errors.New("leap rejected the api key")

// WorkflowRunner starts a run on a workflow automation backend.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error)
}

// NotifierConfig holds configuration for the Leap notifier.
type NotifierConfig struct {
	LeapAPIKey  string
	LeapWebhook string
	LeapBaseURL string
}

// LoadNotifierConfig loads and validates the Leap notifier's environment.
func LoadNotifierConfig() (*NotifierConfig, error) {
	config := &NotifierConfig{
		LeapAPIKey:  gcp.GetEnv("LEAP_API_KEY", ""),
		LeapWebhook: gcp.GetEnv("LEAP_WEBHOOK", ""),
		LeapBaseURL: gcp.GetEnv("LEAP_API_BASE_URL", leap.DefaultBaseURL),
	}
	if config.LeapAPIKey == "" {
		return nil, fmt.Errorf("LEAP_API_KEY environment variable must be set")
	}
	return config, nil
}

// NotifierFunction relays requests to the Leap workflow service.
type NotifierFunction struct {
	runner     WorkflowRunner
	webhookURL string
}

// NewNotifier creates a NotifierFunction that starts runs through runner.
func NewNotifier(runner WorkflowRunner, webhookURL string) *NotifierFunction {
	return &NotifierFunction{runner: runner, webhookURL: webhookURL}
}

// NewNotifierFromEnv builds the Leap client from the environment.
func NewNotifierFromEnv() (*NotifierFunction, error) {
	config, err := LoadNotifierConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	client := leap.NewClient(config.LeapAPIKey,
		leap.WithBaseURL(config.LeapBaseURL),
		leap.WithTimeout(30*time.Second),
	)
	slog.Info("Leap notifier initialized.", "workflowId", LeapWorkflowID, "webhookConfigured", config.LeapWebhook != "")
	return NewNotifier(client, config.LeapWebhook), nil
}

// Process logs the request body and starts one run of LeapWorkflowID with
// the fixed input. Malformed or empty bodies are logged and otherwise ignored.
func (f *NotifierFunction) Process(ctx context.Context, body []byte) (*models.WorkflowRunResponse, error) {
	logCtx := slog.With("workflowId", LeapWorkflowID)

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		logCtx.Warn("Request body is not valid JSON.", "error", err, "body", string(body))
	} else {
		logCtx.Info("Received workflow request.", "body", payload)
	}

	run, err := f.runner.RunWorkflow(ctx, models.WorkflowRunRequest{
		WorkflowID: LeapWorkflowID,
		WebhookURL: f.webhookURL,
		Input:      notifierInput,
	})
	if leap.IsUnauthorized(err) {
		logCtx.Error("Leap rejected the API key. Check LEAP_API_KEY.", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrLeapUnauthorized, err)
	}
	if err != nil {
		logCtx.Error("Failed to start workflow run.", "error", err)
		return nil, fmt.Errorf("failed to start workflow run: %w", err)
	}

	logCtx.Info("Workflow run started.", "runId", run.ID, "status", run.Status)
	return run, nil
}
