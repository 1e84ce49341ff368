package models

// These structs define the payloads exchanged between the HTTP/CloudEvent
// functions, the upload service and the workflow backends.

// UploadRequest is the input for the CSV upload service.
type UploadRequest struct {
	Filename string
	Content  []byte
	// Owner is the authenticated user id, nil when the caller is anonymous.
	Owner *string
}

// WorkflowInput is the input object handed to a workflow run.
type WorkflowInput struct {
	CSV        string `json:"csv"`
	DocumentID string `json:"document_id"`
}

// WorkflowRunRequest starts one run of a workflow.
type WorkflowRunRequest struct {
	WorkflowID string        `json:"workflow_id"`
	WebhookURL string        `json:"webhook_url,omitempty"`
	Input      WorkflowInput `json:"input"`
}

// WorkflowRunResponse is what the workflow backend reports back for a started run.
type WorkflowRunResponse struct {
	ID         string `json:"id"`
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// StorageObjectEvent is the data payload of a GCS object CloudEvent.
type StorageObjectEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}
