package domain

import "github.com/shopspring/decimal"

// BillDraft is a purchase bill ready for the external ledger. Lines map 1:1
// onto the ledger's purchases "categories" structure.
type BillDraft struct {
	Date          string
	DueDate       string
	ProviderID    int64
	InvoiceNumber string
	PaymentMethod string
	Observations  string
	Annotation    string
	Lines         []CanonicalLineItem
}

// BillReceipt is the ledger's acknowledgement of a created bill.
type BillReceipt struct {
	ID     int64           `json:"id"`
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"amount"`
}

// PaymentDraft is an outgoing payment applied against a created bill.
type PaymentDraft struct {
	Date          string
	ProviderID    int64
	BillID        int64
	Amount        decimal.Decimal
	PaymentMethod string
	Observations  string
}

// PaymentReceipt is the ledger's acknowledgement of a registered payment.
type PaymentReceipt struct {
	ID     int64           `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

// SubmitRequest asks for a full pipeline run followed by bill creation.
type SubmitRequest struct {
	Invoice       RawInvoice
	ContactID     int64
	PaymentMethod string
	CreatePayment bool
	Description   string
}

// SubmitResult reports the created bill, the optional payment, and the
// canonical lines that were posted. Warning carries a non-fatal payment
// failure: the bill exists even when the payment did not go through.
type SubmitResult struct {
	Bill    *BillReceipt        `json:"bill"`
	Payment *PaymentReceipt     `json:"payment,omitempty"`
	Lines   []CanonicalLineItem `json:"line_items"`
	Warning string              `json:"warning,omitempty"`
}
