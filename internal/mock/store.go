package mock

import (
	"context"

	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
)

var (
	_ services.ObjectStore = (*ObjectStore)(nil)
	_ services.LeadStore   = (*LeadStore)(nil)
)

// ObjectStore is a mock implementation of services.ObjectStore.
type ObjectStore struct {
	UploadFn func(ctx context.Context, objectName string, content []byte, contentType string) error
}

func (s *ObjectStore) Upload(ctx context.Context, objectName string, content []byte, contentType string) error {
	return s.UploadFn(ctx, objectName, content, contentType)
}

// LeadStore is a mock implementation of services.LeadStore.
type LeadStore struct {
	InsertDocumentFn func(ctx context.Context, doc *models.Document) error
	InsertLeadsFn    func(ctx context.Context, leads []models.Lead) error
	GetDocumentFn    func(ctx context.Context, id string) (*models.Document, error)
	ListLeadsFn      func(ctx context.Context, documentID string) ([]models.Lead, error)
}

func (s *LeadStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	return s.InsertDocumentFn(ctx, doc)
}

func (s *LeadStore) InsertLeads(ctx context.Context, leads []models.Lead) error {
	return s.InsertLeadsFn(ctx, leads)
}

func (s *LeadStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.GetDocumentFn(ctx, id)
}

func (s *LeadStore) ListLeads(ctx context.Context, documentID string) ([]models.Lead, error) {
	return s.ListLeadsFn(ctx, documentID)
}
