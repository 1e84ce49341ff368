package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/leadflow/internal/mock"
	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadedID = "6f1c2a4e-8a0b-4b7e-9d61-3f2b5c7d9e10"

func TestDocumentIDFromObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		object string
		wantID string
		wantOK bool
	}{
		{"uploaded csv", "public/" + uploadedID + ".csv", uploadedID, true},
		{"nested folder", "public/archive/" + uploadedID + ".csv", "", false},
		{"other prefix", "private/" + uploadedID + ".csv", "", false},
		{"other extension", "public/" + uploadedID + ".txt", "", false},
		{"not a uuid", "public/visitors.csv", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := services.DocumentIDFromObject(tt.object)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestUploadNotifierFunction_Process(t *testing.T) {
	t.Parallel()

	config := services.UploadNotifierConfig{
		ProjectID:        "proj",
		DocumentsBucket:  "documents",
		WorkflowLocation: "us-central1",
		WorkflowID:       "lead-enrichment",
		WebhookURL:       "https://hooks.example.com/done",
	}

	t.Run("starts a run with the real document id", func(t *testing.T) {
		t.Parallel()

		var got []models.WorkflowRunRequest
		runner := &mock.WorkflowRunner{
			RunWorkflowFn: func(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error) {
				got = append(got, req)
				return &models.WorkflowRunResponse{ID: "executions/1", Status: "ACTIVE"}, nil
			},
		}

		run, err := services.NewUploadNotifier(runner, config).Process(context.Background(), models.StorageObjectEvent{
			Bucket: "documents",
			Name:   "public/" + uploadedID + ".csv",
		})

		require.NoError(t, err)
		require.NotNil(t, run)
		require.Len(t, got, 1)
		assert.Equal(t, models.WorkflowRunRequest{
			WorkflowID: "lead-enrichment",
			WebhookURL: "https://hooks.example.com/done",
			Input: models.WorkflowInput{
				CSV:        "gs://documents/public/" + uploadedID + ".csv",
				DocumentID: uploadedID,
			},
		}, got[0])
	})

	t.Run("skips other buckets and objects", func(t *testing.T) {
		t.Parallel()

		runner := &mock.WorkflowRunner{
			RunWorkflowFn: func(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error) {
				t.Fatal("RunWorkflow should not be called")
				return nil, nil
			},
		}
		notifier := services.NewUploadNotifier(runner, config)

		run, err := notifier.Process(context.Background(), models.StorageObjectEvent{Bucket: "other", Name: "public/" + uploadedID + ".csv"})
		require.NoError(t, err)
		assert.Nil(t, run)

		run, err = notifier.Process(context.Background(), models.StorageObjectEvent{Bucket: "documents", Name: "exports/report.csv"})
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("returns runner errors", func(t *testing.T) {
		t.Parallel()

		runnerErr := errors.New("permission denied")
		runner := &mock.WorkflowRunner{
			RunWorkflowFn: func(ctx context.Context, req models.WorkflowRunRequest) (*models.WorkflowRunResponse, error) {
				return nil, runnerErr
			},
		}

		_, err := services.NewUploadNotifier(runner, config).Process(context.Background(), models.StorageObjectEvent{
			Bucket: "documents",
			Name:   "public/" + uploadedID + ".csv",
		})
		assert.ErrorIs(t, err, runnerErr)
	})
}
