// Package docs registers the OpenAPI document served by the Swagger UI.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/documents/upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a tenant document",
                "parameters": [
                    {"type": "file", "description": "PDF file, at most 10MB", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "document type id", "name": "documentTypeId", "in": "formData", "required": true},
                    {"type": "string", "description": "tenant id, must match the token", "name": "tenantId", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.documentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/list": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "parameters": [
                    {"type": "string", "description": "caller id", "name": "userId", "in": "query", "required": true},
                    {"type": "string", "description": "tenant or landlord", "name": "userRole", "in": "query", "required": true},
                    {"type": "string", "description": "pending, approved, rejected or all", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/types": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List document types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentTypesResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/approve": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Approve a document",
                "parameters": [
                    {"description": "document to approve", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.approveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/reject": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Reject a document",
                "parameters": [
                    {"description": "document and reason", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.rejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.documentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/download": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Create a download link",
                "parameters": [
                    {"description": "stored file path", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.downloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signedURLResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/documents/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [
                    {"description": "document to delete", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.deleteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handler.approveRequest": {
            "type": "object",
            "properties": {"documentId": {"type": "string"}}
        },
        "handler.rejectRequest": {
            "type": "object",
            "properties": {"documentId": {"type": "string"}, "rejectionReason": {"type": "string"}}
        },
        "handler.downloadRequest": {
            "type": "object",
            "properties": {"filePath": {"type": "string"}}
        },
        "handler.deleteRequest": {
            "type": "object",
            "properties": {"documentId": {"type": "string"}}
        },
        "handler.documentResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "document": {"$ref": "#/definitions/model.Document"}}
        },
        "handler.documentListResponse": {
            "type": "object",
            "properties": {"documents": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}}}
        },
        "handler.documentTypesResponse": {
            "type": "object",
            "properties": {"documentTypes": {"type": "array", "items": {"$ref": "#/definitions/model.DocumentType"}}}
        },
        "handler.signedURLResponse": {
            "type": "object",
            "properties": {"signedUrl": {"type": "string"}}
        },
        "handler.successResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "details": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {"request_id": {"type": "string"}, "error": {"$ref": "#/definitions/handler.errorEnvelope"}}
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tenant_id": {"type": "string"},
                "landlord_id": {"type": "string"},
                "document_type_id": {"type": "string"},
                "file_name": {"type": "string"},
                "file_path": {"type": "string"},
                "file_size": {"type": "integer"},
                "page_count": {"type": "integer"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "rejection_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.DocumentType": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "BMS Document API",
	Description:      "Tenant document upload and landlord review.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
