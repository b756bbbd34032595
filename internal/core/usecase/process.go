package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/core/ports"
)

const (
	outcomeStructured = "structured"
	outcomeClassified = "classified"
	outcomeFallback   = "fallback"
)

// ProcessInvoiceUseCase runs one invoice through catalog fetch,
// classification, category resolution and normalization. Every step upstream
// of posting degrades gracefully: the pipeline always produces a postable
// result.
type ProcessInvoiceUseCase struct {
	ledger          ports.AccountingLedger
	classifier      ports.LineItemClassifier
	resolver        *CategoryResolver
	normalizer      *Normalizer
	observer        ports.PipelineObserver
	classifyTimeout time.Duration
	logger          *slog.Logger
}

func NewProcessInvoiceUseCase(
	ledger ports.AccountingLedger,
	classifier ports.LineItemClassifier,
	resolver *CategoryResolver,
	normalizer *Normalizer,
	observer ports.PipelineObserver,
	classifyTimeout time.Duration,
	logger *slog.Logger,
) *ProcessInvoiceUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &ProcessInvoiceUseCase{
		ledger:          ledger,
		classifier:      classifier,
		resolver:        resolver,
		normalizer:      normalizer,
		observer:        observer,
		classifyTimeout: classifyTimeout,
		logger:          logger,
	}
}

func (uc *ProcessInvoiceUseCase) Process(ctx context.Context, invoice domain.RawInvoice) (*domain.ProcessedInvoice, error) {
	start := time.Now()

	// The chart of accounts is fetched fresh on every run; ids and
	// availability can change between requests.
	catalog := uc.fetchCatalog(ctx)
	salesTax := uc.fetchSalesTax(ctx)

	var classified []domain.RawLineItem
	if len(invoice.LineItems) == 0 {
		classified = uc.classify(ctx, invoice, catalog)
	}

	invoiceDefault := uc.resolver.InvoiceDefault(catalog)
	lines := uc.normalizer.Normalize(invoice, classified, invoiceDefault, salesTax)

	usedFallback := len(invoice.LineItems) == 0 && len(classified) == 0
	uc.observer.RecordInvoice(string(invoice.Source), uc.outcome(invoice, classified), len(lines), time.Since(start))
	uc.logger.Info("invoice_processed",
		"source", invoice.Source,
		"line_items", len(lines),
		"used_fallback", usedFallback,
		"default_account", invoiceDefault.String(),
	)

	return &domain.ProcessedInvoice{
		Invoice:        invoice,
		Lines:          lines,
		SalesTax:       salesTax,
		DefaultAccount: invoiceDefault,
		UsedFallback:   usedFallback,
	}, nil
}

func (uc *ProcessInvoiceUseCase) fetchCatalog(ctx context.Context) []domain.AccountingCategory {
	catalog, err := uc.ledger.ListExpenseCategories(ctx)
	if err != nil {
		// Degraded: an empty catalog collapses every line to the
		// universal default, which is still postable.
		uc.logger.Warn("catalog_fetch_failed", "error", err)
		return nil
	}
	return catalog
}

func (uc *ProcessInvoiceUseCase) fetchSalesTax(ctx context.Context) *domain.TaxRate {
	taxes, err := uc.ledger.ListTaxes(ctx)
	if err != nil {
		uc.logger.Warn("tax_catalog_fetch_failed", "error", err)
		return nil
	}
	for _, tax := range taxes {
		if tax.IsSalesTax() {
			t := tax
			return &t
		}
	}
	return nil
}

// classify runs the single-shot classification call. Any failure degrades to
// the synthetic single-line fallback; it is never fatal to the run.
func (uc *ProcessInvoiceUseCase) classify(
	ctx context.Context,
	invoice domain.RawInvoice,
	catalog []domain.AccountingCategory,
) []domain.RawLineItem {
	if uc.classifier == nil {
		uc.fallback("no_provider")
		return nil
	}
	if strings.TrimSpace(invoice.RawText) == "" {
		uc.fallback("no_text")
		return nil
	}

	cctx := ctx
	if uc.classifyTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, uc.classifyTimeout)
		defer cancel()
	}

	items, err := uc.classifier.Classify(cctx, invoice.RawText, uc.resolver.AssignableCategories(catalog))
	if err != nil {
		uc.logger.Warn("classification_failed", "error", err)
		uc.fallback("classify_error")
		return nil
	}
	if len(items) == 0 {
		uc.fallback("empty_response")
	}
	return items
}

func (uc *ProcessInvoiceUseCase) fallback(reason string) {
	uc.observer.RecordClassificationFallback(reason)
}

func (uc *ProcessInvoiceUseCase) outcome(invoice domain.RawInvoice, classified []domain.RawLineItem) string {
	switch {
	case len(invoice.LineItems) > 0:
		return outcomeStructured
	case len(classified) > 0:
		return outcomeClassified
	default:
		return outcomeFallback
	}
}

type noopObserver struct{}

func (noopObserver) RecordInvoice(string, string, int, time.Duration) {}
func (noopObserver) RecordClassificationFallback(string)             {}
