package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// UploadStep names one backend call in the persistence sequence.
type UploadStep string

const (
	StepStorageUpload  UploadStep = "storage_upload"
	StepDocumentInsert UploadStep = "document_insert"
	StepLeadInsert     UploadStep = "lead_insert"
)

// UploadResult is the outcome of one upload: which steps completed, which
// one failed, and what was left behind.
type UploadResult struct {
	DocumentID  string
	StoragePath string
	LeadCount   int
	Completed   []UploadStep
	Failed      UploadStep
	Err         error
}

// OK reports whether every step completed.
func (r *UploadResult) OK() bool {
	return r.Err == nil && r.Failed == ""
}

// OrphanedObject reports whether the file was stored but no document references it.
func (r *UploadResult) OrphanedObject() bool {
	return r.Failed == StepDocumentInsert
}

// DocumentWithoutLeads reports whether the document exists but none of its leads do.
func (r *UploadResult) DocumentWithoutLeads() bool {
	return r.Failed == StepLeadInsert
}

// Ran reports whether step completed.
func (r *UploadResult) Ran(step UploadStep) bool {
	return slices.Contains(r.Completed, step)
}

// RedirectPath is where the client is sent after a successful upload.
func (r *UploadResult) RedirectPath() string {
	return "/view/" + r.DocumentID
}

type uploadStep struct {
	name     UploadStep
	sentinel error
	run      func(ctx context.Context) error
}

// run executes steps in order and stops at the first failure. The failure is
// recorded as both the step's sentinel and the backend error.
func (r *UploadResult) run(ctx context.Context, logCtx *slog.Logger, steps []uploadStep) {
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			r.Failed = s.name
			r.Err = fmt.Errorf("%w: %w", s.sentinel, err)
			logCtx.Error("Upload step failed.",
				"step", string(s.name),
				"completed", r.Completed,
				"orphanedObject", r.OrphanedObject(),
				"documentWithoutLeads", r.DocumentWithoutLeads(),
				"error", err,
			)
			return
		}
		r.Completed = append(r.Completed, s.name)
	}
}
