package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

var uploadValidate = validator.New()

// UploadInput is a tenant's document submission.
// CallerID is the identity resolved from the bearer credential, never a form value.
type UploadInput struct {
	CallerID       string     `validate:"-"`
	File           *FileInput `validate:"required"`
	DocumentTypeID string     `validate:"required"`
	TenantID       string     `validate:"required"`
}

// FileInput describes the uploaded part. Size and ContentType are as declared by the client.
type FileInput struct {
	Name        string
	ContentType string    `validate:"eq=application/pdf"`
	Size        int64     `validate:"min=0,max=10485760"`
	Content     io.Reader `validate:"-"`
}

// validateUpload checks the submission shape and returns the first violation.
func validateUpload(ctx context.Context, in UploadInput) error {
	err := uploadValidate.StructCtx(ctx, in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("invalid upload request")
	}
	return invalid(uploadMessage(verrs[0]))
}

func uploadMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "File":
		return "file is required"
	case "ContentType":
		return "only PDF files are allowed"
	case "Size":
		return ErrFileTooLarge.Message
	case "DocumentTypeID":
		return "documentTypeId is required"
	case "TenantID":
		return "tenantId is required"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
