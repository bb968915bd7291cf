package repository

import (
	"context"

	"bms/internal/model"
)

// LeaseRepository reads the tenant/landlord linkage.
type LeaseRepository interface {
	// LatestForTenant returns the most recently created lease for the tenant.
	LatestForTenant(ctx context.Context, tenantID string) (*model.Lease, error)

	// Create inserts a lease record.
	Create(ctx context.Context, lease *model.Lease) (*model.Lease, error)
}

// DocumentTypeRepository manages the document classification table.
type DocumentTypeRepository interface {
	List(ctx context.Context) ([]model.DocumentType, error)
	Create(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error)
}
