package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/core/ports"
)

const paymentMethodCredit = "credit"

// SubmitBillUseCase runs the pipeline and posts the resulting purchase bill
// to the external ledger, optionally registering an outgoing payment.
type SubmitBillUseCase struct {
	processor ports.InvoiceProcessor
	ledger    ports.AccountingLedger
	logger    *slog.Logger
}

func NewSubmitBillUseCase(processor ports.InvoiceProcessor, ledger ports.AccountingLedger, logger *slog.Logger) *SubmitBillUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitBillUseCase{processor: processor, ledger: ledger, logger: logger}
}

func (uc *SubmitBillUseCase) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	if req.ContactID == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit bill", errors.New("provider contact id is required"))
	}

	processed, err := uc.processor.Process(ctx, req.Invoice)
	if err != nil {
		return nil, fmt.Errorf("process invoice: %w", err)
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	bill, err := uc.ledger.CreateBill(ctx, domain.BillDraft{
		Date:          processed.Invoice.Date,
		DueDate:       processed.Invoice.Date,
		ProviderID:    req.ContactID,
		InvoiceNumber: processed.Invoice.InvoiceNumber,
		PaymentMethod: method,
		Observations:  req.Description,
		Annotation:    fmt.Sprintf("Factura registrada desde %s: %s", processed.Invoice.Source, req.Description),
		Lines:         processed.Lines,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	result := &domain.SubmitResult{
		Bill:  bill,
		Lines: processed.Lines,
	}

	if req.CreatePayment && method != paymentMethodCredit {
		uc.registerPayment(ctx, req, processed, bill, result)
	}

	uc.logger.Info("bill_submitted",
		"bill_id", bill.ID,
		"bill_number", bill.Number,
		"line_items", len(processed.Lines),
		"paid", result.Payment != nil,
	)
	return result, nil
}

// registerPayment is best-effort: the bill already exists, so a payment
// failure becomes a warning on the result rather than an error.
func (uc *SubmitBillUseCase) registerPayment(
	ctx context.Context,
	req domain.SubmitRequest,
	processed *domain.ProcessedInvoice,
	bill *domain.BillReceipt,
	result *domain.SubmitResult,
) {
	payment, err := uc.ledger.CreatePayment(ctx, domain.PaymentDraft{
		Date:          processed.Invoice.Date,
		ProviderID:    req.ContactID,
		BillID:        bill.ID,
		Amount:        processed.Invoice.Total,
		PaymentMethod: req.PaymentMethod,
		Observations:  fmt.Sprintf("Pago de factura %s", bill.Number),
	})
	if err != nil {
		uc.logger.Warn("payment_failed", "bill_id", bill.ID, "error", err)
		result.Warning = fmt.Sprintf("bill created but payment failed: %v", err)
		return
	}
	result.Payment = payment
}
