package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/leadflow/internal/models"
)

// WorkflowsRunner starts Google Cloud Workflows executions.
type WorkflowsRunner struct {
	client    *executions.Client
	projectID string
	location  string
}

// NewWorkflowsRunner creates an executions client for workflows in projectID/location.
func NewWorkflowsRunner(ctx context.Context, projectID, location string) (*WorkflowsRunner, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("NewWorkflowsRunner: projectID and location cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowsRunner{client: client, projectID: projectID, location: location}, nil
}

// RunWorkflow creates one execution of req.WorkflowID. The webhook URL and
// input travel in the execution argument.
func (r *WorkflowsRunner) RunWorkflow(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error) {
	argument, err := executionArgument(req)
	if err != nil {
		return nil, err
	}

	exec, err := r.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", r.projectID, r.location, req.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: argument,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to trigger workflow execution: %w", err)
	}

	return &models.WorkflowRunResponse{
		ID:         exec.GetName(),
		WorkflowID: req.WorkflowID,
		Status:     exec.GetState().String(),
	}, nil
}


func executionArgument(req models.WorkflowRunRequest) (string, error) {
	payload := map[string]any{
		"workflowId": req.WorkflowID,
		"webhookUrl": req.WebhookURL,
		"input":      req.Input,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	return string(b), nil
}
