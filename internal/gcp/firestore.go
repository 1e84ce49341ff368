package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/leadflow/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxWritesPerTransaction is Firestore's limit on writes in a single commit.
const maxWritesPerTransaction = 500

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore keeps documents and leads in two top-level collections.
type FirestoreStore struct {
	client    *firestore.Client
	documents string
	leads     string
}

// NewFirestoreStore returns a store over the given collection names.
func NewFirestoreStore(client *firestore.Client, documentsCollection, leadsCollection string) *FirestoreStore {
	return &FirestoreStore{
		client:    client,
		documents: documentsCollection,
		leads:     leadsCollection,
	}
}

// InsertDocument creates the document keyed by its id. An existing id is an error.
func (s *FirestoreStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.client.Collection(s.documents).Doc(doc.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}
	return nil
}

// InsertLeads writes the leads with auto-generated ids, one transaction per
// 500 leads. Transactions are not retried.
func (s *FirestoreStore) InsertLeads(ctx context.Context, leads []models.Lead) error {
	coll := s.client.Collection(s.leads)
	for start := 0; start < len(leads); start += maxWritesPerTransaction {
		end := min(start+maxWritesPerTransaction, len(leads))
		chunk := leads[start:end]

		err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for i := range chunk {
				if err := tx.Create(coll.NewDoc(), chunk[i]); err != nil {
					return err
				}
			}
			return nil
		}, firestore.MaxAttempts(1))
		if err != nil {
			return fmt.Errorf("failed to insert leads %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// GetDocument loads one document by id.
func (s *FirestoreStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	snap, err := s.client.Collection(s.documents).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, models.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

// ListLeads returns every lead recorded for documentID.
func (s *FirestoreStore) ListLeads(ctx context.Context, documentID string) ([]models.Lead, error) {
	it := s.client.Collection(s.leads).Where("document_id", "==", documentID).Documents(ctx)
	defer it.Stop()

	var leads []models.Lead
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list leads for %s: %w", documentID, err)
		}
		var lead models.Lead
		if err := snap.DataTo(&lead); err != nil {
			return nil, fmt.Errorf("failed to decode lead %s: %w", snap.Ref.ID, err)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
