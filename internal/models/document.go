package models

import (
	"errors"
	"time"
)

// ErrDocumentNotFound is returned by stores when no document has the requested id.
var ErrDocumentNotFound = errors.New("document not found")

// Document is the metadata record for one uploaded CSV file.
// It is written once per successful upload and never mutated.
type Document struct {
	ID          string    `firestore:"id" db:"id" json:"id"`
	StoragePath string    `firestore:"storage_path" db:"storage_path" json:"storage_path"`
	Owner       *string   `firestore:"owner,omitempty" db:"owner" json:"owner,omitempty"`
	CreatedAt   time.Time `firestore:"created_at" db:"created_at" json:"created_at"`
}

// Lead is one prospective contact email tied to the document it was extracted from.
type Lead struct {
	Email      string    `firestore:"email" db:"email" json:"email"`
	DocumentID string    `firestore:"document_id" db:"document_id" json:"document_id"`
	CreatedAt  time.Time `firestore:"created_at" db:"created_at" json:"created_at"`
}
