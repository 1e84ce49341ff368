package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/leadflow/internal/services"
	"github.com/Lllllllleong/leadflow/internal/web"
)

var (
	handlerInstance http.Handler
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleLeadCapture", handleLeadCapture)
}

// main is required by the Go Functions Framework.
func main() {}

// handleLeadCapture serves the landing page, the upload endpoint and the results view.
func handleLeadCapture(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var uploader *services.UploaderFunction
		uploader, initErr = services.NewUploaderFromEnv(context.Background())
		if initErr == nil {
			handlerInstance = web.NewHandler(uploader)
		}
	})
	if initErr != nil {
		slog.Error("Critical: Uploader initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	handlerInstance.ServeHTTP(w, r)
}
