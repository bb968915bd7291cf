package repository

import (
	"context"
	"errors"

	"bms/internal/model"
)

// ErrNotFound is returned when no row matches the lookup or guarded mutation.
var ErrNotFound = errors.New("record not found")

// DocumentRepository defines data access for document metadata using SQL queries only.
// No business logic here, only persistence.
type DocumentRepository interface {
	// Create inserts a new document record. The store generates ID and timestamps.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByFilePath returns the document stored under the given object key.
	FindByFilePath(ctx context.Context, path string) (*model.Document, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, f DocumentFilter) ([]model.Document, error)

	// UpdateStatus applies a review decision when the row is owned by u.LandlordID
	// and currently in one of u.From. Returns ErrNotFound when no row qualified.
	UpdateStatus(ctx context.Context, u StatusUpdate) (*model.Document, error)

	// DeleteOwned removes the row when owned by tenantID and in one of from,
	// returning the deleted record. Returns ErrNotFound when no row qualified.
	DeleteOwned(ctx context.Context, id, tenantID string, from []model.Status) (*model.Document, error)
}

// DocumentFilter scopes a listing. Exactly one of TenantID or LandlordID is set.
// An empty Status means every status.
type DocumentFilter struct {
	TenantID   string
	LandlordID string
	Status     model.Status
}

// StatusUpdate describes one review transition.
type StatusUpdate struct {
	ID              string
	LandlordID      string
	Status          model.Status
	RejectionReason *string
	From            []model.Status
}
