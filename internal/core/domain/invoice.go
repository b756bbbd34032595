package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type SourceKind string

const (
	SourcePDF SourceKind = "pdf"
	SourceXML SourceKind = "xml"
)

// AccountID is the opaque chart-of-accounts identifier. Ledger responses carry
// numeric-looking strings, classifier suggestions may be strings or numbers;
// both are parsed once at the boundary and compared by value afterwards.
// The zero value means "unset".
type AccountID int64

func ParseAccountID(raw string) AccountID {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return AccountID(n)
}

func (id AccountID) IsZero() bool { return id == 0 }

func (id AccountID) String() string {
	if id == 0 {
		return ""
	}
	digits := make([]byte, 0, 12)
	for n := int64(id); n > 0; n /= 10 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
	}
	return string(digits)
}

// TaxID identifies a tax in the external tax catalog. Zero means "no tax".
type TaxID int64

// TaxCharge is a single tax entry on an invoice line.
type TaxCharge struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// RawLineItem is one extracted invoice line before account resolution. The
// AccountHint is present only when the line came from XML or the classifier.
type RawLineItem struct {
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	Taxes         []TaxCharge     `json:"taxes,omitempty"`
	AccountHint   AccountID       `json:"account_hint,omitempty"`
	HasTax        bool            `json:"has_tax"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// RawInvoice is the normalized extraction result for one upload. It is built
// once per request and never persisted.
type RawInvoice struct {
	VendorName    string          `json:"vendor_name"`
	VendorID      string          `json:"vendor_id"`
	ClientName    string          `json:"client_name"`
	ClientID      string          `json:"client_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	Total         decimal.Decimal `json:"total"`
	Source        SourceKind      `json:"source"`
	Observations  string          `json:"observations,omitempty"`
	LineItems     []RawLineItem   `json:"line_items,omitempty"`
	RawText       string          `json:"raw_text,omitempty"`
}

// CanonicalLineItem is the posting-ready representation of one invoice line.
// AccountID is always resolved to a non-parent expense account.
type CanonicalLineItem struct {
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     AccountID       `json:"account_id"`
	HasTax        bool            `json:"has_tax"`
	TaxID         TaxID           `json:"tax_id,omitempty"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// ProcessedInvoice is the pipeline output for one upload.
type ProcessedInvoice struct {
	Invoice        RawInvoice          `json:"invoice"`
	Lines          []CanonicalLineItem `json:"line_items"`
	SalesTax       *TaxRate            `json:"sales_tax,omitempty"`
	DefaultAccount AccountID           `json:"default_account_id"`
	UsedFallback   bool                `json:"used_fallback"`
}
