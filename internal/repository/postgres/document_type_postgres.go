package postgres

import (
	"context"
	"database/sql"

	"bms/internal/model"
	"bms/internal/repository"
)

// DocumentTypePostgres is a PostgreSQL implementation of repository.DocumentTypeRepository.
type DocumentTypePostgres struct {
	db *sql.DB
}

// NewDocumentTypePostgres creates a new DocumentTypePostgres repository.
func NewDocumentTypePostgres(db *sql.DB) *DocumentTypePostgres {
	return &DocumentTypePostgres{db: db}
}

var _ repository.DocumentTypeRepository = (*DocumentTypePostgres)(nil)

// List returns all document types ordered by name.
func (r *DocumentTypePostgres) List(ctx context.Context) ([]model.DocumentType, error) {
	const q = `SELECT id, name, description, created_at FROM document_types ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentType, 0)
	for rows.Next() {
		var dt model.DocumentType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.Description, &dt.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a document type and returns the stored record.
func (r *DocumentTypePostgres) Create(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error) {
	const q = `
		INSERT INTO document_types (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, created_at
	`
	var out model.DocumentType
	if err := r.db.QueryRowContext(ctx, q, dt.ID, dt.Name, dt.Description).
		Scan(&out.ID, &out.Name, &out.Description, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
