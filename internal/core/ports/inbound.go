package ports

import (
	"context"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

// UploadExtractor is the inbound contract for turning an uploaded file into a
// normalized invoice.
type UploadExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*domain.RawInvoice, error)
}

// InvoiceProcessor runs the full extraction-to-canonical-lines pipeline for
// one invoice.
type InvoiceProcessor interface {
	Process(ctx context.Context, invoice domain.RawInvoice) (*domain.ProcessedInvoice, error)
}

// BillSubmitter runs the pipeline and posts the resulting bill (and optional
// payment) to the external ledger.
type BillSubmitter interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error)
}
