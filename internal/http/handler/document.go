package handler

import (
	"github.com/gofiber/fiber/v2"

	"bms/internal/http/middleware"
	"bms/internal/model"
	"bms/internal/service"
)

type documentResponse struct {
	Success  bool            `json:"success"`
	Document *model.Document `json:"document"`
}

type documentListResponse struct {
	Documents []model.Document `json:"documents"`
}

type documentTypesResponse struct {
	DocumentTypes []model.DocumentType `json:"documentTypes"`
}

type signedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type approveRequest struct {
	DocumentID string `json:"documentId"`
}

type rejectRequest struct {
	DocumentID      string `json:"documentId"`
	RejectionReason string `json:"rejectionReason"`
}

type downloadRequest struct {
	FilePath string `json:"filePath"`
}

type deleteRequest struct {
	DocumentID string `json:"documentId"`
}

// caller returns the id and role of the authenticated identity.
func caller(c *fiber.Ctx) (string, string, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.ID == "" {
		return "", "", false
	}
	return id.ID, id.Role, true
}

func unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
}

// UploadDocument accepts a tenant's PDF (multipart/form-data).
//
// @Summary  Upload a tenant document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    file           formData file   true "PDF file, at most 10MB"
// @Param    documentTypeId formData string true "document type id"
// @Param    tenantId       formData string true "tenant id, must match the token"
// @Success  201 {object} documentResponse
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/upload [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, _, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		in := service.UploadInput{
			CallerID:       callerID,
			TenantID:       c.FormValue("tenantId"),
			DocumentTypeID: c.FormValue("documentTypeId"),
		}

		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			in.File = &service.FileInput{
				Name:        fh.Filename,
				ContentType: fh.Header.Get(fiber.HeaderContentType),
				Size:        fh.Size,
				Content:     f,
			}
		}

		doc, err := svc.Upload(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err, "failed to save document")
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{Success: true, Document: doc})
	}
}

// ListDocuments returns documents scoped by role, newest first.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Security BearerAuth
// @Param    userId   query string true  "caller id"
// @Param    userRole query string true  "tenant or landlord"
// @Param    status   query string false "pending, approved, rejected or all"
// @Success  200 {object} documentListResponse
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/list [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, callerRole, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		docs, err := svc.List(c.UserContext(), service.ListQuery{
			CallerID:   callerID,
			CallerRole: callerRole,
			UserID:     c.Query("userId"),
			UserRole:   c.Query("userRole"),
			Status:     c.Query("status"),
		})
		if err != nil {
			return writeServiceError(c, err, "failed to fetch documents")
		}
		return c.JSON(documentListResponse{Documents: docs})
	}
}

// ApproveDocument marks a pending document as approved.
//
// @Summary  Approve a document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body approveRequest true "document to approve"
// @Success  200 {object} documentResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/approve [patch]
func ApproveDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, _, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}
		var req approveRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}

		doc, err := svc.Approve(c.UserContext(), callerID, req.DocumentID)
		if err != nil {
			return writeServiceError(c, err, "failed to approve document")
		}
		return c.JSON(documentResponse{Success: true, Document: doc})
	}
}

// RejectDocument marks a pending document as rejected with a reason.
//
// @Summary  Reject a document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body rejectRequest true "document and reason"
// @Success  200 {object} documentResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/reject [patch]
func RejectDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, _, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}
		var req rejectRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}

		doc, err := svc.Reject(c.UserContext(), callerID, req.DocumentID, req.RejectionReason)
		if err != nil {
			return writeServiceError(c, err, "failed to reject document")
		}
		return c.JSON(documentResponse{Success: true, Document: doc})
	}
}

// DownloadDocument returns a signed URL valid for one hour.
//
// @Summary  Create a download link
// @Tags     documents
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body downloadRequest true "stored file path"
// @Success  200 {object} signedURLResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/download [post]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, _, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}
		var req downloadRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}

		url, err := svc.DownloadURL(c.UserContext(), callerID, req.FilePath)
		if err != nil {
			return writeServiceError(c, err, "failed to create download link")
		}
		return c.JSON(signedURLResponse{SignedURL: url})
	}
}

// DeleteDocument removes the caller's own pending or rejected document.
//
// @Summary  Delete a document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body deleteRequest true "document to delete"
// @Success  200 {object} successResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/delete [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, _, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}
		var req deleteRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}

		if err := svc.Delete(c.UserContext(), callerID, req.DocumentID); err != nil {
			return writeServiceError(c, err, "failed to delete document")
		}
		return c.JSON(successResponse{Success: true})
	}
}

// ListDocumentTypes returns the document classifications for the upload form.
//
// @Summary  List document types
// @Tags     documents
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} documentTypesResponse
// @Failure  500 {object} errorPayload
// @Router   /api/documents/types [get]
func ListDocumentTypes(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.ListTypes(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "failed to fetch document types")
		}
		return c.JSON(documentTypesResponse{DocumentTypes: types})
	}
}
