package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	uploadNotifierInstance *services.UploadNotifierFunction
	once                   sync.Once
	initErr                error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by google.cloud.storage.object.v1.finalized on the documents bucket.
	functions.CloudEvent("NotifyOnUpload", notifyOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func notifyOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		uploadNotifierInstance, initErr = services.NewUploadNotifierFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	return handleEvent(ctx, uploadNotifierInstance, e)
}

// handleEvent decodes the GCS object payload and hands it to the notifier.
func handleEvent(ctx context.Context, notifier *services.UploadNotifierFunction, e cloudevents.Event) error {
	var gcsEvent models.StorageObjectEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// The error is already logged with context within the Process method.
	_, err := notifier.Process(ctx, gcsEvent)
	return err
}
