package model

import "time"

// Lease links a tenant to the landlord responsible for them.
// LandlordID may be empty for leases recorded without a landlord.
type Lease struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	LandlordID string    `json:"landlord_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentType classifies uploaded documents (ID card, payslip, ...).
type DocumentType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
