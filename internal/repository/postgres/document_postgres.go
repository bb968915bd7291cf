package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"bms/internal/model"
	"bms/internal/repository"
)

const documentColumns = `id, tenant_id, landlord_id, document_type_id, file_name, file_path, file_size,
		page_count, status, rejection_reason, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	var status string
	if err := s.Scan(
		&d.ID,
		&d.TenantID,
		&d.LandlordID,
		&d.DocumentTypeID,
		&d.FileName,
		&d.FilePath,
		&d.FileSize,
		&d.PageCount,
		&status,
		&d.RejectionReason,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = model.Status(status)
	return &d, nil
}

// invalidTextRepresentation is raised when a lookup key is not a valid UUID.
const invalidTextRepresentation = "22P02"

// mapNoRows converts sql.ErrNoRows into repository.ErrNotFound. A malformed id
// cannot name any row either, so the UUID cast failure maps the same way.
func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return repository.ErrNotFound
	}
	return err
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (tenant_id, landlord_id, document_type_id, file_name, file_path, file_size, page_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.TenantID,
		doc.LandlordID,
		doc.DocumentTypeID,
		doc.FileName,
		doc.FilePath,
		doc.FileSize,
		doc.PageCount,
		string(doc.Status),
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return d, nil
}

// FindByFilePath fetches the document stored at the given object key.
func (r *DocumentPostgres) FindByFilePath(ctx context.Context, path string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE file_path = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, path))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return d, nil
}

// List returns the documents visible under the filter ordered newest first.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	var (
		where []string
		args  []any
	)
	if f.TenantID != "" {
		args = append(args, f.TenantID)
		where = append(where, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if f.LandlordID != "" {
		args = append(args, f.LandlordID)
		where = append(where, fmt.Sprintf("landlord_id = $%d", len(args)))
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("document listing requires a tenant or landlord scope")
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + documentColumns + ` FROM documents WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus performs a guarded review transition in a single statement.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, u repository.StatusUpdate) (*model.Document, error) {
	args := []any{string(u.Status), u.RejectionReason, u.ID, u.LandlordID}
	in := statusPlaceholders(u.From, &args)

	q := `
		UPDATE documents
		SET status = $1, rejection_reason = $2, updated_at = now()
		WHERE id = $3 AND landlord_id = $4 AND status IN (` + in + `)
		RETURNING ` + documentColumns
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return d, nil
}

// DeleteOwned deletes a tenant's document while it is in an allowed status.
func (r *DocumentPostgres) DeleteOwned(ctx context.Context, id, tenantID string, from []model.Status) (*model.Document, error) {
	args := []any{id, tenantID}
	in := statusPlaceholders(from, &args)

	q := `
		DELETE FROM documents
		WHERE id = $1 AND tenant_id = $2 AND status IN (` + in + `)
		RETURNING ` + documentColumns
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return d, nil
}

// statusPlaceholders appends statuses to args and returns the matching "$n, $m" list.
func statusPlaceholders(statuses []model.Status, args *[]any) string {
	ph := make([]string, 0, len(statuses))
	for _, s := range statuses {
		*args = append(*args, string(s))
		ph = append(ph, fmt.Sprintf("$%d", len(*args)))
	}
	if len(ph) == 0 {
		return "NULL"
	}
	return strings.Join(ph, ", ")
}
