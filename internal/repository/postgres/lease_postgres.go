package postgres

import (
	"context"
	"database/sql"

	"bms/internal/model"
	"bms/internal/repository"
)

// LeasePostgres is a PostgreSQL implementation of repository.LeaseRepository.
type LeasePostgres struct {
	db *sql.DB
}

// NewLeasePostgres creates a new LeasePostgres repository.
func NewLeasePostgres(db *sql.DB) *LeasePostgres {
	return &LeasePostgres{db: db}
}

var _ repository.LeaseRepository = (*LeasePostgres)(nil)

func scanLease(s scanner) (*model.Lease, error) {
	var (
		l        model.Lease
		landlord sql.NullString
	)
	if err := s.Scan(&l.ID, &l.TenantID, &landlord, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.LandlordID = landlord.String
	return &l, nil
}

// LatestForTenant returns the lease with the newest created_at for the tenant.
func (r *LeasePostgres) LatestForTenant(ctx context.Context, tenantID string) (*model.Lease, error) {
	const q = `
		SELECT id, tenant_id, landlord_id, created_at
		FROM leases
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	l, err := scanLease(r.db.QueryRowContext(ctx, q, tenantID))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return l, nil
}

// Create inserts a lease row and returns the stored record.
func (r *LeasePostgres) Create(ctx context.Context, lease *model.Lease) (*model.Lease, error) {
	const q = `
		INSERT INTO leases (tenant_id, landlord_id)
		VALUES ($1, NULLIF($2, ''))
		RETURNING id, tenant_id, landlord_id, created_at
	`
	return scanLease(r.db.QueryRowContext(ctx, q, lease.TenantID, lease.LandlordID))
}
