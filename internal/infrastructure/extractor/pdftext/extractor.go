package pdftext

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls best-effort plain text out of PDF bytes, page by page.
// Extraction is lossy and never fatal: any failure logs and yields "".
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) ExtractText(_ context.Context, data []byte) (text string) {
	// The pdf library panics on some malformed documents; treat that the
	// same as any other extraction failure.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf_extract_panic", "panic", r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn("pdf_open_failed", "error", err)
		return ""
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf_page_extract_failed", "page", pageNum, "error", err)
			continue
		}
		builder.WriteString(content)
	}
	return builder.String()
}
