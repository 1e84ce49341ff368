package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Lllllllleong/leadflow/internal/gcp"
	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/postgres"
)

const (
	// StoragePrefix is the folder uploaded CSVs land in inside the documents bucket.
	StoragePrefix  = "public/"
	csvContentType = "text/csv"
)

var (
	// ErrNotCSV is returned for uploads whose filename lacks a .csv suffix.
	ErrNotCSV = errors.New("only .csv files are accepted")
	// ErrStorageUpload marks a failed raw file upload.
	ErrStorageUpload = errors.New("storage upload failed")
	// ErrDocumentInsert marks a failed documents insert.
	ErrDocumentInsert = errors.New("document insert failed")
	// ErrLeadInsert marks a failed leads insert.
	ErrLeadInsert = errors.New("lead insert failed")
)

// ObjectStore receives the raw uploaded file.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, content []byte, contentType string) error
}

// LeadStore persists documents and their leads.
type LeadStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	InsertLeads(ctx context.Context, leads []models.Lead) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListLeads(ctx context.Context, documentID string) ([]models.Lead, error)
}

// UploaderConfig holds configuration for the upload service.
type UploaderConfig struct {
	ProjectID           string
	DocumentsBucket     string
	StoreBackend        string
	DocumentsCollection string
	LeadsCollection     string
	DatabaseURL         string
}

// LoadUploaderConfig loads and validates the upload service's environment.
func LoadUploaderConfig() (*UploaderConfig, error) {
	config := &UploaderConfig{
		ProjectID:           gcp.GetEnv("PROJECT_ID", ""),
		DocumentsBucket:     gcp.GetEnv("DOCUMENTS_BUCKET", "documents"),
		StoreBackend:        gcp.GetEnv("STORE_BACKEND", "firestore"),
		DocumentsCollection: gcp.GetEnv("DOCUMENTS_COLLECTION", "documents"),
		LeadsCollection:     gcp.GetEnv("LEADS_COLLECTION", "leads"),
		DatabaseURL:         gcp.GetEnv("DATABASE_URL", ""),
	}

	switch config.StoreBackend {
	case "firestore":
		if config.ProjectID == "" {
			return nil, fmt.Errorf("PROJECT_ID environment variable must be set for the firestore backend")
		}
	case "postgres":
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", config.StoreBackend)
	}
	return config, nil
}

// UploaderFunction holds dependencies for the CSV upload logic.
type UploaderFunction struct {
	objects ObjectStore
	store   LeadStore
	newID   func() string
	now     func() time.Time
}

// NewUploader wires an UploaderFunction from already constructed clients.
func NewUploader(objects ObjectStore, store LeadStore) *UploaderFunction {
	return &UploaderFunction{
		objects: objects,
		store:   store,
		newID:   NewDocumentID,
		now:     time.Now,
	}
}

// NewUploaderFromEnv creates the GCS and lead store clients named by the environment.
func NewUploaderFromEnv(ctx context.Context) (*UploaderFunction, error) {
	config, err := LoadUploaderConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	objects := gcp.NewBucketStore(storageClient, config.DocumentsBucket)

	var store LeadStore
	switch config.StoreBackend {
	case "postgres":
		pg, err := postgres.Open(ctx, postgres.Config{DSN: config.DatabaseURL, DialTimeout: 10 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		store = pg
	default:
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, err
		}
		store = gcp.NewFirestoreStore(firestoreClient, config.DocumentsCollection, config.LeadsCollection)
	}

	slog.Info("Uploader initialized.", "bucket", config.DocumentsBucket, "storeBackend", config.StoreBackend)
	return NewUploader(objects, store), nil
}

// StoragePath is the object name an upload with the given document id is stored under.
func StoragePath(documentID string) string {
	return StoragePrefix + documentID + ".csv"
}

// Process validates, parses and scans the uploaded CSV, then runs the upload,
// document insert and lead insert steps in order. A failed step stops the
// sequence; nothing already written is undone.
func (f *UploaderFunction) Process(ctx context.Context, req *models.UploadRequest) (*UploadResult, error) {
	logCtx := slog.With("filename", req.Filename, "bytes", len(req.Content))

	if !strings.HasSuffix(req.Filename, ".csv") {
		logCtx.Warn("Rejected upload without .csv suffix.")
		return nil, ErrNotCSV
	}

	rows, err := ParseCSV(bytes.NewReader(req.Content))
	if err != nil {
		logCtx.Error("Failed to parse CSV.", "error", err)
		return nil, err
	}
	emails, err := ExtractEmails(rows)
	if err != nil {
		logCtx.Warn("No emails found in upload.", "rows", len(rows))
		return nil, err
	}

	id := f.newID()
	now := f.now().UTC()
	logCtx = logCtx.With("documentId", id)
	logCtx.Info("Extracted emails.", "rows", len(rows), "emailCount", len(emails))

	doc := &models.Document{
		ID:          id,
		StoragePath: StoragePath(id),
		Owner:       req.Owner,
		CreatedAt:   now,
	}
	leads := make([]models.Lead, 0, len(emails))
	for _, email := range emails.Sorted() {
		leads = append(leads, models.Lead{Email: email, DocumentID: id, CreatedAt: now})
	}

	res := &UploadResult{DocumentID: id, StoragePath: doc.StoragePath, LeadCount: len(leads)}
	res.run(ctx, logCtx, []uploadStep{
		{name: StepStorageUpload, sentinel: ErrStorageUpload, run: func(ctx context.Context) error {
			return f.objects.Upload(ctx, doc.StoragePath, req.Content, csvContentType)
		}},
		{name: StepDocumentInsert, sentinel: ErrDocumentInsert, run: func(ctx context.Context) error {
			return f.store.InsertDocument(ctx, doc)
		}},
		{name: StepLeadInsert, sentinel: ErrLeadInsert, run: func(ctx context.Context) error {
			return f.store.InsertLeads(ctx, leads)
		}},
	})
	if res.Err != nil {
		return res, res.Err
	}

	logCtx.Info("Upload complete.", "leadCount", res.LeadCount)
	return res, nil
}

// DocumentView is a document together with its leads, ordered by email.
type DocumentView struct {
	Document *models.Document
	Leads    []models.Lead
}

// View loads a document and its leads for the results page.
func (f *UploaderFunction) View(ctx context.Context, documentID string) (*DocumentView, error) {
	doc, err := f.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	leads, err := f.store.ListLeads(ctx, documentID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(leads, func(a, b models.Lead) int {
		return strings.Compare(a.Email, b.Email)
	})
	return &DocumentView{Document: doc, Leads: leads}, nil
}
