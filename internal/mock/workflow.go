package mock

import (
	"context"

	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
)

var _ services.WorkflowRunner = (*WorkflowRunner)(nil)

// WorkflowRunner is a mock implementation of services.WorkflowRunner.
type WorkflowRunner struct {
	RunWorkflowFn func(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error)
}

func (r *WorkflowRunner) RunWorkflow(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error) {
	return r.RunWorkflowFn(ctx, req)
}
