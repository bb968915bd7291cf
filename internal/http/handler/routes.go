package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bms/internal/auth"
	"bms/internal/http/middleware"
	"bms/internal/service"
	"bms/internal/storage"
)

// UploadPath is the multipart upload route. Bodies over the server limit on this path are
// reported as an oversize file.
const UploadPath = "/api/documents/upload"

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Every /api/documents route requires a bearer credential.
func RegisterRoutes(app *fiber.App, db *sql.DB, store storage.Storage, docSvc service.DocumentService, authn auth.Authenticator) {
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/api/documents", middleware.Authenticate(authn))
	docs.Post("/upload", UploadDocument(docSvc))
	docs.Get("/list", ListDocuments(docSvc))
	docs.Get("/types", ListDocumentTypes(docSvc))
	docs.Patch("/approve", ApproveDocument(docSvc))
	docs.Patch("/reject", RejectDocument(docSvc))
	docs.Post("/download", DownloadDocument(docSvc))
	docs.Delete("/delete", DeleteDocument(docSvc))
}

// Metrics exposes the collectors gathered by g in the Prometheus text format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
