// Package pdf inspects uploaded PDF content.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspector reports properties of a PDF document.
type Inspector interface {
	PageCount(data []byte) (int, error)
}

type pdfcpuInspector struct{}

// New returns an Inspector backed by pdfcpu.
func New() Inspector {
	return pdfcpuInspector{}
}

func (pdfcpuInspector) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return n, nil
}
