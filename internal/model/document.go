package model

import "time"

// Status is the review state of a tenant document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a review may move a document from s to next.
// Approving an approved document is an idempotent refresh; decided documents are otherwise final.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusApproved:
		return s == StatusPending || s == StatusApproved
	case StatusRejected:
		return s == StatusPending
	}
	return false
}

// SourcesFor lists the statuses from which a transition to next is allowed.
func SourcesFor(next Status) []Status {
	out := make([]Status, 0, 2)
	for _, s := range allStatuses {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Deletable reports whether a tenant may still remove a document in status s.
func (s Status) Deletable() bool {
	return s == StatusPending || s == StatusRejected
}

// DeletableStatuses lists every status for which Deletable holds.
func DeletableStatuses() []Status {
	out := make([]Status, 0, 2)
	for _, s := range allStatuses {
		if s.Deletable() {
			out = append(out, s)
		}
	}
	return out
}

// Document is the metadata record for one uploaded tenant file.
// The binary lives in object storage under FilePath.
type Document struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	LandlordID      string    `json:"landlord_id"`
	DocumentTypeID  string    `json:"document_type_id"`
	FileName        string    `json:"file_name"`
	FilePath        string    `json:"file_path"`
	FileSize        int64     `json:"file_size"`
	PageCount       *int      `json:"page_count,omitempty"`
	Status          Status    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
