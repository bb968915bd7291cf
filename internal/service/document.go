package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bms/internal/logger"
	"bms/internal/metrics"
	"bms/internal/model"
	"bms/internal/pdf"
	"bms/internal/repository"
	"bms/internal/storage"
)

const (
	// MaxFileSize is the upload ceiling in bytes (10 MiB).
	MaxFileSize = 10 * 1024 * 1024
	// SignedURLExpiry is the lifetime of download links. It is not configurable.
	SignedURLExpiry = 3600 * time.Second
	PDFContentType  = "application/pdf"
)

var tracer = otel.Tracer("bms/internal/service")

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ListQuery is a scoped listing request. Caller fields come from the resolved identity,
// User fields from the query string.
type ListQuery struct {
	CallerID   string
	CallerRole string
	UserID     string
	UserRole   string
	Status     string
}

// DocumentService defines the tenant document workflow.
type DocumentService interface {
	// Upload validates the submission, resolves the landlord from the tenant's latest lease,
	// writes the object and then its metadata record. A failed insert removes the object again.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns documents scoped by role, newest first.
	List(ctx context.Context, q ListQuery) ([]model.Document, error)

	// Approve marks a pending document of the landlord as approved.
	Approve(ctx context.Context, landlordID, documentID string) (*model.Document, error)

	// Reject marks a pending document of the landlord as rejected with a reason.
	Reject(ctx context.Context, landlordID, documentID, reason string) (*model.Document, error)

	// DownloadURL returns a signed link for a document the caller is a party to.
	DownloadURL(ctx context.Context, callerID, filePath string) (string, error)

	// Delete removes a tenant's own pending or rejected document and its object.
	Delete(ctx context.Context, tenantID, documentID string) error

	// ListTypes returns the document classifications.
	ListTypes(ctx context.Context) ([]model.DocumentType, error)
}

// Option customizes a documentService.
type Option func(*documentService)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *documentService) { s.log = l }
}

func WithMetrics(m *metrics.DocumentMetrics) Option {
	return func(s *documentService) { s.metrics = m }
}

func WithInspector(i pdf.Inspector) Option {
	return func(s *documentService) { s.inspector = i }
}

// WithClock overrides the time source used for storage keys.
func WithClock(now func() time.Time) Option {
	return func(s *documentService) { s.now = now }
}

type documentService struct {
	store     storage.Storage
	docs      repository.DocumentRepository
	leases    repository.LeaseRepository
	types     repository.DocumentTypeRepository
	inspector pdf.Inspector
	metrics   *metrics.DocumentMetrics
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	leases repository.LeaseRepository,
	types repository.DocumentTypeRepository,
	opts ...Option,
) DocumentService {
	s := &documentService{
		store:     store,
		docs:      docs,
		leases:    leases,
		types:     types,
		inspector: pdf.New(),
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "document_service")
	return s
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "document.upload")
	defer span.End()
	span.SetAttributes(attribute.String("bms.tenant_id", in.TenantID))

	doc, err := s.upload(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		if isClientError(err) {
			s.metrics.Upload(metrics.ResultRejected)
		} else {
			s.metrics.Upload(metrics.ResultFailed)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("bms.document_id", doc.ID))
	s.metrics.Upload(metrics.ResultSuccess)
	return doc, nil
}

func (s *documentService) upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if err := validateUpload(ctx, in); err != nil {
		return nil, err
	}
	if in.CallerID == "" || in.CallerID != in.TenantID {
		return nil, ErrUnauthorized
	}
	if in.File.Content == nil {
		return nil, invalid("file is required")
	}

	// The declared size is client-supplied; enforce the ceiling on what is actually read.
	data, err := io.ReadAll(io.LimitReader(in.File.Content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	landlordID, err := s.resolveLandlord(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	key := objectKey(in.TenantID, in.DocumentTypeID, in.File.Name, s.now())
	log := logger.FromContext(ctx, s.log).WithFields(logrus.Fields{"tenant_id": in.TenantID, "storage_key": key})

	var pageCount *int
	if n, err := s.inspector.PageCount(data); err != nil {
		log.WithError(err).Warn("pdf page count unavailable")
	} else {
		pageCount = &n
	}

	obj, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: PDFContentType,
		Metadata: map[string]string{
			"original-filename": in.File.Name,
			"tenant-id":         in.TenantID,
		},
		NoOverwrite: true,
	})
	if err != nil {
		log.WithError(err).WithField("stage", "storage_put").Error("document upload failed")
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	log.WithField("etag", obj.ETag).Debug("object stored")

	stored, err := s.docs.Create(ctx, &model.Document{
		TenantID:       in.TenantID,
		LandlordID:     landlordID,
		DocumentTypeID: in.DocumentTypeID,
		FileName:       in.File.Name,
		FilePath:       key,
		FileSize:       int64(len(data)),
		PageCount:      pageCount,
		Status:         model.StatusPending,
	})
	if err != nil {
		log.WithError(err).WithField("stage", "metadata_insert").Error("document upload failed")
		s.compensate(ctx, key)
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// compensate removes an object whose metadata insert failed. Its own failure is only logged.
// The delete runs even if the request context is already canceled.
func (s *documentService) compensate(ctx context.Context, key string) {
	log := logger.FromContext(ctx, s.log).WithFields(logrus.Fields{"stage": "compensation", "storage_key": key})
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.metrics.Compensation(metrics.ResultFailed)
		log.WithError(err).Error("orphaned object could not be removed")
		return
	}
	s.metrics.Compensation(metrics.ResultSuccess)
	log.Warn("removed object after failed metadata insert")
}

// resolveLandlord returns the landlord of the tenant's most recently created lease.
func (s *documentService) resolveLandlord(ctx context.Context, tenantID string) (string, error) {
	lease, err := s.leases.LatestForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNoActiveLease
		}
		return "", fmt.Errorf("lookup lease: %w", err)
	}
	if lease.LandlordID == "" {
		return "", ErrNoActiveLease
	}
	return lease.LandlordID, nil
}

// objectKey builds {tenant}/{type}/{name}_{unix millis}.pdf. The ids are kept as given
// and only path-escaped so each stays a single key segment; the file name is sanitized.
func objectKey(tenantID, docTypeID, fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	name := sanitize(base)
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s/%s/%s_%d.pdf", url.PathEscape(tenantID), url.PathEscape(docTypeID), name, at.UnixMilli())
}

func sanitize(s string) string {
	return unsafeKeyChars.ReplaceAllString(s, "_")
}

func (s *documentService) List(ctx context.Context, q ListQuery) ([]model.Document, error) {
	if q.UserID == "" || q.UserRole == "" {
		return nil, invalid("userId and userRole are required")
	}
	role, ok := model.ParseRole(q.UserRole)
	if !ok {
		return nil, ErrInvalidRole
	}
	if q.CallerID != q.UserID {
		return nil, ErrUnauthorized
	}
	if q.CallerRole != "" && q.CallerRole != string(role) {
		return nil, ErrUnauthorized
	}

	var f repository.DocumentFilter
	switch role {
	case model.RoleTenant:
		f.TenantID = q.UserID
	case model.RoleLandlord:
		f.LandlordID = q.UserID
	}
	if q.Status != "" && q.Status != "all" {
		st := model.Status(q.Status)
		if !st.Valid() {
			// No document can carry an unknown status.
			return []model.Document{}, nil
		}
		f.Status = st
	}

	docs, err := s.docs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Approve(ctx context.Context, landlordID, documentID string) (*model.Document, error) {
	if documentID == "" {
		return nil, invalid("documentId is required")
	}
	return s.review(ctx, landlordID, documentID, model.StatusApproved, nil)
}

func (s *documentService) Reject(ctx context.Context, landlordID, documentID, reason string) (*model.Document, error) {
	if documentID == "" {
		return nil, invalid("documentId is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("rejectionReason is required")
	}
	return s.review(ctx, landlordID, documentID, model.StatusRejected, &reason)
}

// review applies a guarded transition. The status precondition and landlord ownership are
// checked by the update itself; a miss is classified afterwards as not found or conflict.
func (s *documentService) review(ctx context.Context, landlordID, id string, next model.Status, reason *string) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "document.review")
	defer span.End()
	span.SetAttributes(attribute.String("bms.document_id", id), attribute.String("bms.status", string(next)))

	doc, err := s.docs.UpdateStatus(ctx, repository.StatusUpdate{
		ID:              id,
		LandlordID:      landlordID,
		Status:          next,
		RejectionReason: reason,
		From:            model.SourcesFor(next),
	})
	if err == nil {
		s.metrics.Review(string(next))
		return doc, nil
	}
	span.RecordError(err)
	if !errors.Is(err, repository.ErrNotFound) {
		logger.FromContext(ctx, s.log).WithError(err).WithFields(logrus.Fields{"document_id": id, "stage": "review"}).
			Errorf("failed to mark document %s", next)
		return nil, fmt.Errorf("update status: %w", err)
	}

	current, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup document: %w", err)
	}
	if current.LandlordID != landlordID {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, next)
}

func (s *documentService) DownloadURL(ctx context.Context, callerID, filePath string) (string, error) {
	if filePath == "" {
		return "", invalid("filePath is required")
	}
	doc, err := s.docs.FindByFilePath(ctx, filePath)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup document: %w", err)
	}
	if callerID == "" || (doc.TenantID != callerID && doc.LandlordID != callerID) {
		return "", ErrNotFound
	}

	url, err := s.store.PresignGet(ctx, doc.FilePath, SignedURLExpiry)
	if err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithFields(logrus.Fields{"storage_key": doc.FilePath, "stage": "presign"}).
			Error("failed to create signed url")
		return "", fmt.Errorf("presign: %w", err)
	}
	return url, nil
}

// Delete removes the record first so a storage failure can never leave a record without its object.
func (s *documentService) Delete(ctx context.Context, tenantID, documentID string) error {
	if documentID == "" {
		return invalid("documentId is required")
	}

	doc, err := s.docs.DeleteOwned(ctx, documentID, tenantID, model.DeletableStatuses())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("delete document: %w", err)
		}
		current, ferr := s.docs.FindByID(ctx, documentID)
		if ferr != nil {
			if errors.Is(ferr, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lookup document: %w", ferr)
		}
		if current.TenantID != tenantID {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s documents cannot be deleted", ErrInvalidTransition, current.Status)
	}

	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithFields(logrus.Fields{
			"document_id": doc.ID,
			"storage_key": doc.FilePath,
			"stage":       "storage_delete",
		}).Error("document record deleted but object removal failed")
		return fmt.Errorf("delete storage: %w", err)
	}
	return nil
}

func (s *documentService) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	return types, nil
}

func isClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnauthorized)
}
