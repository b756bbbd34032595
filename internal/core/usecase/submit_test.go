package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

type fakeProcessor struct {
	processed *domain.ProcessedInvoice
	err       error
}

func (f *fakeProcessor) Process(_ context.Context, _ domain.RawInvoice) (*domain.ProcessedInvoice, error) {
	return f.processed, f.err
}

func sampleProcessed() *domain.ProcessedInvoice {
	return &domain.ProcessedInvoice{
		Invoice: domain.RawInvoice{
			VendorName:    "Claro CR",
			InvoiceNumber: "00100001010000012345",
			Date:          "2025-05-24",
			Total:         decimal.NewFromInt(5650),
			Source:        domain.SourcePDF,
		},
		Lines: []domain.CanonicalLineItem{
			{Description: "Internet", Quantity: decimal.NewFromInt(1), Amount: decimal.NewFromInt(5650), AccountID: 5077},
		},
	}
}

func TestSubmitCreatesBillAndPayment(t *testing.T) {
	ledger := &fakeLedger{
		bill:    &domain.BillReceipt{ID: 901, Number: "FC-00123", Total: decimal.NewFromInt(5650)},
		payment: &domain.PaymentReceipt{ID: 77, Amount: decimal.NewFromInt(5650)},
	}
	uc := NewSubmitBillUseCase(&fakeProcessor{processed: sampleProcessed()}, ledger, nil)

	result, err := uc.Submit(context.Background(), domain.SubmitRequest{
		Invoice:       domain.RawInvoice{InvoiceNumber: "00100001010000012345"},
		ContactID:     42,
		PaymentMethod: "cash",
		CreatePayment: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Bill == nil || result.Bill.ID != 901 {
		t.Fatalf("bill = %+v", result.Bill)
	}
	if result.Payment == nil || result.Payment.ID != 77 {
		t.Fatalf("payment = %+v", result.Payment)
	}
	if ledger.gotBill.ProviderID != 42 {
		t.Errorf("bill provider = %d, want 42", ledger.gotBill.ProviderID)
	}
	if ledger.gotBill.DueDate != ledger.gotBill.Date {
		t.Errorf("due date %q != date %q", ledger.gotBill.DueDate, ledger.gotBill.Date)
	}
	if ledger.gotPayment.BillID != 901 {
		t.Errorf("payment bill id = %d, want 901", ledger.gotPayment.BillID)
	}
	if !ledger.gotPayment.Amount.Equal(decimal.NewFromInt(5650)) {
		t.Errorf("payment amount = %s, want invoice total", ledger.gotPayment.Amount)
	}
}

func TestSubmitRequiresContact(t *testing.T) {
	uc := NewSubmitBillUseCase(&fakeProcessor{processed: sampleProcessed()}, &fakeLedger{}, nil)

	_, err := uc.Submit(context.Background(), domain.SubmitRequest{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitSkipsPaymentForCredit(t *testing.T) {
	ledger := &fakeLedger{
		bill: &domain.BillReceipt{ID: 901, Number: "FC-00123"},
	}
	uc := NewSubmitBillUseCase(&fakeProcessor{processed: sampleProcessed()}, ledger, nil)

	result, err := uc.Submit(context.Background(), domain.SubmitRequest{
		ContactID:     42,
		PaymentMethod: "credit",
		CreatePayment: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Payment != nil {
		t.Errorf("payment created for credit purchase")
	}
	if ledger.gotPayment != nil {
		t.Errorf("CreatePayment called for credit purchase")
	}
}

func TestSubmitPaymentFailureIsWarning(t *testing.T) {
	ledger := &fakeLedger{
		bill:       &domain.BillReceipt{ID: 901, Number: "FC-00123"},
		paymentErr: errors.New("insufficient funds"),
	}
	uc := NewSubmitBillUseCase(&fakeProcessor{processed: sampleProcessed()}, ledger, nil)

	result, err := uc.Submit(context.Background(), domain.SubmitRequest{
		ContactID:     42,
		CreatePayment: true,
	})
	if err != nil {
		t.Fatalf("Submit returned error for failed payment: %v", err)
	}
	if result.Bill == nil {
		t.Fatalf("bill missing from result")
	}
	if !strings.Contains(result.Warning, "payment failed") {
		t.Errorf("warning = %q", result.Warning)
	}
}

func TestSubmitBillRejectionIsFatal(t *testing.T) {
	ledger := &fakeLedger{
		billErr: domain.WrapError(domain.ErrLedgerRejected, "create bill", errors.New("provider not found")),
	}
	uc := NewSubmitBillUseCase(&fakeProcessor{processed: sampleProcessed()}, ledger, nil)

	_, err := uc.Submit(context.Background(), domain.SubmitRequest{ContactID: 42})
	if !domain.IsKind(err, domain.ErrLedgerRejected) {
		t.Fatalf("err = %v, want ErrLedgerRejected", err)
	}
}
