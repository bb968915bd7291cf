package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"bms/internal/auth"
	authMocks "bms/internal/auth/mocks"
	"bms/internal/http/middleware"
	"bms/internal/model"
	"bms/internal/service"
	serviceMocks "bms/internal/service/mocks"
	storageMocks "bms/internal/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// withIdentity stands in for middleware.Authenticate in handler tests.
func withIdentity(id *auth.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != nil {
			c.Locals(middleware.IdentityLocalKey, id)
		}
		return c.Next()
	}
}

func newApp(id *auth.Identity) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(withIdentity(id))
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadForm(t *testing.T, fileName, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		part.Write(content)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeError(t *testing.T, r io.Reader) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(r).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db, nil))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})
}

func TestHealthCheck_Storage(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	store := new(storageMocks.MockStorage)
	app := fiber.New()
	app.Get("/health", HealthCheck(db, store))

	t.Run("bucket reachable", func(t *testing.T) {
		dbMock.ExpectPing()
		store.On("Ping", mock.Anything).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("bucket unreachable", func(t *testing.T) {
		dbMock.ExpectPing()
		store.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})

	store.AssertExpectations(t)
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadDocument(t *testing.T) {
	tenant := &auth.Identity{ID: "T", Role: "tenant"}
	fields := map[string]string{"tenantId": "T", "documentTypeId": "dt1"}
	content := []byte("%PDF-1.7 test")

	t.Run("created", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/upload", UploadDocument(mockSvc))

		expected := &model.Document{ID: "doc-1", TenantID: "T", LandlordID: "L", FilePath: "T/dt1/id_1.pdf", Status: model.StatusPending}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.CallerID == "T" &&
				in.TenantID == "T" &&
				in.DocumentTypeID == "dt1" &&
				in.File != nil &&
				in.File.Name == "id.pdf" &&
				in.File.ContentType == "application/pdf" &&
				in.File.Size == int64(len(content))
		})).Return(expected, nil).Once()

		body, ct := uploadForm(t, "id.pdf", "application/pdf", content, fields)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result struct {
			Success  bool           `json:"success"`
			Document model.Document `json:"document"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Success)
		assert.Equal(t, "doc-1", result.Document.ID)
		assert.Equal(t, "L", result.Document.LandlordID)
		assert.Equal(t, model.StatusPending, result.Document.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file reaches service as validation error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/upload", UploadDocument(mockSvc))

		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.File == nil
		})).Return(nil, &service.ValidationError{Message: "file is required"}).Once()

		body, ct := uploadForm(t, "", "", nil, fields)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Equal(t, "file is required", res.Error.Message)
		assert.NotEmpty(t, res.RequestID)
	})

	t.Run("no lease", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/upload", UploadDocument(mockSvc))
		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, service.ErrNoActiveLease).Once()

		body, ct := uploadForm(t, "id.pdf", "application/pdf", content, fields)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "NO_ACTIVE_LEASE", res.Error.Code)
		assert.Contains(t, res.Error.Message, "active lease")
	})

	t.Run("identity mismatch", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/upload", UploadDocument(mockSvc))
		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, service.ErrUnauthorized).Once()

		body, ct := uploadForm(t, "id.pdf", "application/pdf", content, map[string]string{"tenantId": "other", "documentTypeId": "dt1"})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(nil)
		app.Post("/upload", UploadDocument(mockSvc))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/upload", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/upload", UploadDocument(mockSvc))
		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("db save failed: boom")).Once()

		body, ct := uploadForm(t, "id.pdf", "application/pdf", content, fields)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		assert.Equal(t, "failed to save document", res.Error.Message)
		assert.Empty(t, res.Error.Details)
	})
}

func TestListDocuments(t *testing.T) {
	landlord := &auth.Identity{ID: "L", Role: "landlord"}

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(landlord)
		app.Get("/list", ListDocuments(mockSvc))

		docs := []model.Document{{ID: "b", LandlordID: "L"}, {ID: "a", LandlordID: "L"}}
		mockSvc.On("List", mock.Anything, service.ListQuery{
			CallerID:   "L",
			CallerRole: "landlord",
			UserID:     "L",
			UserRole:   "landlord",
			Status:     "pending",
		}).Return(docs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/list?userId=L&userRole=landlord&status=pending", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Documents []model.Document `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Len(t, result.Documents, 2)
		assert.Equal(t, "b", result.Documents[0].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid role", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(landlord)
		app.Get("/list", ListDocuments(mockSvc))
		mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidRole).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/list?userId=L&userRole=admin", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ROLE", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("service error with debug details", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(landlord)
		app.Use(middleware.DebugErrors(true))
		app.Get("/list", ListDocuments(mockSvc))
		mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("list documents: db fail")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/list?userId=L&userRole=landlord", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "failed to fetch documents", res.Error.Message)
		assert.Equal(t, "list documents: db fail", res.Error.Details)
	})
}

func TestReviewDocuments(t *testing.T) {
	landlord := &auth.Identity{ID: "L", Role: "landlord"}
	reason := "blurry scan"

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		setup      func(m *serviceMocks.MockDocumentService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "approve",
			method: http.MethodPatch,
			path:   "/approve",
			body:   map[string]string{"documentId": "doc-1"},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Approve", mock.Anything, "L", "doc-1").Return(&model.Document{ID: "doc-1", Status: model.StatusApproved}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "approve missing id",
			method: http.MethodPatch,
			path:   "/approve",
			body:   map[string]string{},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Approve", mock.Anything, "L", "").Return(nil, &service.ValidationError{Message: "documentId is required"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:   "approve foreign document",
			method: http.MethodPatch,
			path:   "/approve",
			body:   map[string]string{"documentId": "doc-9"},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Approve", mock.Anything, "L", "doc-9").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:   "approve store failure",
			method: http.MethodPatch,
			path:   "/approve",
			body:   map[string]string{"documentId": "doc-1"},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Approve", mock.Anything, "L", "doc-1").Return(nil, errors.New("update status: db fail"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:   "reject",
			method: http.MethodPatch,
			path:   "/reject",
			body:   map[string]string{"documentId": "doc-1", "rejectionReason": reason},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Reject", mock.Anything, "L", "doc-1", reason).
					Return(&model.Document{ID: "doc-1", Status: model.StatusRejected, RejectionReason: &reason}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "reject decided document",
			method: http.MethodPatch,
			path:   "/reject",
			body:   map[string]string{"documentId": "doc-1", "rejectionReason": reason},
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Reject", mock.Anything, "L", "doc-1", reason).
					Return(nil, fmt.Errorf("%w: approved to rejected", service.ErrInvalidTransition))
			},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_TRANSITION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockDocumentService)
			app := newApp(landlord)
			app.Patch("/approve", ApproveDocument(mockSvc))
			app.Patch("/reject", RejectDocument(mockSvc))
			tt.setup(mockSvc)

			resp, _ := app.Test(jsonRequest(tt.method, tt.path, tt.body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp.Body).Error.Code)
			} else {
				var result documentResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.True(t, result.Success)
				assert.NotNil(t, result.Document)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestReviewDocuments_InvalidBody(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newApp(&auth.Identity{ID: "L"})
	app.Patch("/reject", RejectDocument(mockSvc))

	req := httptest.NewRequest(http.MethodPatch, "/reject", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp.Body).Error.Code)
	mockSvc.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDownloadDocument(t *testing.T) {
	tenant := &auth.Identity{ID: "T"}

	t.Run("signed url", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/download", DownloadDocument(mockSvc))
		mockSvc.On("DownloadURL", mock.Anything, "T", "T/dt1/id_1.pdf").Return("https://minio/signed", nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/download", map[string]string{"filePath": "T/dt1/id_1.pdf"}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "https://minio/signed", result["signedUrl"])
	})

	t.Run("missing path", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/download", DownloadDocument(mockSvc))
		mockSvc.On("DownloadURL", mock.Anything, "T", "").Return("", &service.ValidationError{Message: "filePath is required"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/download", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("presign failure", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(tenant)
		app.Post("/download", DownloadDocument(mockSvc))
		mockSvc.On("DownloadURL", mock.Anything, "T", "p").Return("", errors.New("presign: down")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/download", map[string]string{"filePath": "p"}))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestDeleteDocument(t *testing.T) {
	tenant := &auth.Identity{ID: "T", Role: "tenant"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not found", err: service.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "approved", err: fmt.Errorf("%w: approved documents cannot be deleted", service.ErrInvalidTransition), wantStatus: http.StatusConflict, wantCode: "INVALID_TRANSITION"},
		{name: "service error", err: errors.New("delete storage: boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockDocumentService)
			app := newApp(tenant)
			app.Delete("/delete", DeleteDocument(mockSvc))
			mockSvc.On("Delete", mock.Anything, "T", "doc-1").Return(tt.err).Once()

			resp, _ := app.Test(jsonRequest(http.MethodDelete, "/delete", map[string]string{"documentId": "doc-1"}))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp.Body).Error.Code)
			} else {
				var result successResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.True(t, result.Success)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestListDocumentTypes(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newApp(&auth.Identity{ID: "T"})
	app.Get("/types", ListDocumentTypes(mockSvc))
	mockSvc.On("ListTypes", mock.Anything).Return([]model.DocumentType{{ID: "dt1", Name: "ID card"}}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/types", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result documentTypesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.DocumentTypes, 1)
	assert.Equal(t, "dt1", result.DocumentTypes[0].ID)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	authn := new(authMocks.MockAuthenticator)
	authn.On("Resolve", mock.Anything, "good").Return(&auth.Identity{ID: "T", Role: "tenant"}, nil)
	authn.On("Resolve", mock.Anything, mock.Anything).Return(nil, auth.ErrInvalidToken)
	RegisterRoutes(app, nil, nil, mockSvc, authn)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("documents require a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/list?userId=T&userRole=tenant", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/list?userId=T&userRole=tenant", nil)
		req.Header.Set("Authorization", "Bearer forged")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("authenticated listing", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, service.ListQuery{
			CallerID:   "T",
			CallerRole: "tenant",
			UserID:     "T",
			UserRole:   "tenant",
		}).Return([]model.Document{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/list?userId=T&userRole=tenant", nil)
		req.Header.Set("Authorization", "Bearer good")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "bms_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	app := fiber.New()
	app.Get("/metrics", Metrics(reg))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "bms_test_total 1")
}

func TestErrorHandler_PayloadTooLarge(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post("/x", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, resp.Body).Error.Code)
}

func TestErrorHandler_UploadTooLarge(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post(UploadPath, func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, UploadPath, nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	res := decodeError(t, resp.Body)
	assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	assert.Equal(t, "file size must not exceed 10485760 bytes (10MB)", res.Error.Message)
}

func TestUploadDocument_BodyOverLimit(t *testing.T) {
	const limit = 4096
	tenant := &auth.Identity{ID: "T", Role: "tenant"}
	fields := map[string]string{"tenantId": "T", "documentTypeId": "dt1"}

	newStreamingApp := func(svc service.DocumentService) *fiber.App {
		app := fiber.New(fiber.Config{
			ErrorHandler:                 ErrorHandler(),
			BodyLimit:                    limit,
			StreamRequestBody:            true,
			DisablePreParseMultipartForm: true,
		})
		app.Use(middleware.RequestID())
		app.Use(middleware.BodyLimit(limit))
		app.Use(withIdentity(tenant))
		app.Post(UploadPath, UploadDocument(svc))
		app.Patch("/api/documents/approve", ApproveDocument(svc))
		return app
	}

	t.Run("oversize upload is a validation error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newStreamingApp(mockSvc)

		body, ct := uploadForm(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("%"), 2*limit), fields)
		req := httptest.NewRequest(http.MethodPost, UploadPath, body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Equal(t, service.ErrFileTooLarge.Message, res.Error.Message)
		assert.NotEmpty(t, res.RequestID)
		mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("upload within limit reaches service", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newStreamingApp(mockSvc)

		content := []byte("%PDF-1.7 small")
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.TenantID == "T" && in.File != nil && in.File.Size == int64(len(content))
		})).Return(&model.Document{ID: "doc-1", Status: model.StatusPending}, nil).Once()

		body, ct := uploadForm(t, "id.pdf", "application/pdf", content, fields)
		req := httptest.NewRequest(http.MethodPost, UploadPath, body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("oversize json body keeps 413", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newStreamingApp(mockSvc)

		req := jsonRequest(http.MethodPatch, "/api/documents/approve", map[string]string{"documentId": strings.Repeat("x", 2*limit)})
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, resp.Body).Error.Code)
		mockSvc.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
	})
}
