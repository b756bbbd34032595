package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/core/ports"
)

// ExtractUploadUseCase turns an uploaded file into a normalized invoice,
// dispatching on file type: structured XML extraction, or PDF text plus
// heuristic header recovery.
type ExtractUploadUseCase struct {
	xml    ports.StructuredExtractor
	pdf    ports.PlainTextExtractor
	header ports.HeaderResolver
	logger *slog.Logger
}

func NewExtractUploadUseCase(
	xml ports.StructuredExtractor,
	pdf ports.PlainTextExtractor,
	header ports.HeaderResolver,
	logger *slog.Logger,
) *ExtractUploadUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractUploadUseCase{xml: xml, pdf: pdf, header: header, logger: logger}
}

func (uc *ExtractUploadUseCase) Extract(ctx context.Context, filename string, data []byte) (*domain.RawInvoice, error) {
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract upload", errors.New("empty file"))
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		inv, err := uc.xml.Extract(data)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse xml invoice", err)
		}
		uc.logger.Info("invoice_extracted",
			"source", domain.SourceXML,
			"vendor", inv.VendorName,
			"line_items", len(inv.LineItems),
		)
		return inv, nil
	case ".pdf":
		text := uc.pdf.ExtractText(ctx, data)
		if strings.TrimSpace(text) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "extract pdf text", errors.New("no extractable text"))
		}
		inv := uc.header.Resolve(text)
		inv.RawText = text
		uc.logger.Info("invoice_extracted",
			"source", domain.SourcePDF,
			"vendor", inv.VendorName,
			"text_bytes", len(text),
		)
		return &inv, nil
	default:
		return nil, domain.WrapError(
			domain.ErrUnsupportedFile,
			"extract upload",
			fmt.Errorf("only pdf and xml are accepted, got %q", filepath.Ext(filename)),
		)
	}
}
