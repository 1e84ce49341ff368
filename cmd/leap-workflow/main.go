package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/leadflow/internal/services"
)

var (
	notifierInstance *services.NotifierFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Served at POST /api/leap/workflow.
	functions.HTTP("HandleLeapWorkflow", handleLeapWorkflow)
}

// main is required by the Go Functions Framework.
func main() {}

func handleLeapWorkflow(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		notifierInstance, initErr = services.NewNotifierFromEnv()
	})
	if initErr != nil {
		slog.Error("Critical: Notifier initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	workflowHandler(notifierInstance).ServeHTTP(w, r)
}

// workflowHandler relays every POST to the notifier. A successful relay
// writes no body.
func workflowHandler(notifier *services.NotifierFunction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			slog.Warn("Could not read request body", "error", err)
		}

		if _, err := notifier.Process(r.Context(), body); err != nil {
			// Error is already logged with context in the Process method.
			http.Error(w, "Internal Server Error: workflow request failed", http.StatusInternalServerError)
		}
	}
}
