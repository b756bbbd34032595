package ports

import (
	"context"
	"time"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

// StructuredExtractor parses a structured electronic-invoice payload.
type StructuredExtractor interface {
	Extract(payload []byte) (*domain.RawInvoice, error)
}

// PlainTextExtractor extracts best-effort text from a binary document.
// Failure is not an error: it returns the empty string.
type PlainTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) string
}

// HeaderResolver heuristically recovers invoice header fields from free text.
// It never fails; every field has a defined default.
type HeaderResolver interface {
	Resolve(text string) domain.RawInvoice
}

// LineItemClassifier asks an external text model to split invoice text into
// line items with suggested account ids. The response is advisory only.
type LineItemClassifier interface {
	Classify(ctx context.Context, text string, categories []domain.AccountingCategory) ([]domain.RawLineItem, error)
}

// AccountingLedger is the external accounting API: chart of accounts, tax
// catalog, purchase bills and payments.
type AccountingLedger interface {
	ListExpenseCategories(ctx context.Context) ([]domain.AccountingCategory, error)
	ListTaxes(ctx context.Context) ([]domain.TaxRate, error)
	CreateBill(ctx context.Context, draft domain.BillDraft) (*domain.BillReceipt, error)
	CreatePayment(ctx context.Context, draft domain.PaymentDraft) (*domain.PaymentReceipt, error)
}

// PipelineObserver receives pipeline-level observations.
type PipelineObserver interface {
	RecordInvoice(source, outcome string, lineCount int, duration time.Duration)
	RecordClassificationFallback(reason string)
}
