package usecase

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

const fallbackDescription = "Servicio"

// Normalizer reconciles the three possible line-item sources into one
// canonical, posting-ready sequence.
type Normalizer struct {
	resolver *CategoryResolver
}

func NewNormalizer(resolver *CategoryResolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize picks the line-item source by precedence: structured items on the
// invoice, then classifier output, then a single synthetic line covering the
// invoice total. Output order matches input order.
func (n *Normalizer) Normalize(
	inv domain.RawInvoice,
	classified []domain.RawLineItem,
	invoiceDefault domain.AccountID,
	salesTax *domain.TaxRate,
) []domain.CanonicalLineItem {
	source := inv.LineItems
	if len(source) == 0 {
		source = classified
	}
	if len(source) == 0 {
		return []domain.CanonicalLineItem{n.syntheticLine(inv, invoiceDefault, salesTax)}
	}

	lines := make([]domain.CanonicalLineItem, 0, len(source))
	for _, item := range source {
		lines = append(lines, n.canonicalize(item, salesTax))
	}
	return lines
}

func (n *Normalizer) canonicalize(item domain.RawLineItem, salesTax *domain.TaxRate) domain.CanonicalLineItem {
	quantity := item.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	// Quantity and unit price reconcile with amount within rounding noise;
	// when both are present the product wins, otherwise amount is
	// authoritative.
	amount := item.Amount
	if !item.UnitPrice.IsZero() && !quantity.IsZero() {
		amount = item.UnitPrice.Mul(quantity)
	}

	hasTax := item.HasTax || len(item.Taxes) > 0
	taxPct := item.TaxPercentage
	if taxPct.IsZero() && len(item.Taxes) > 0 {
		taxPct = item.Taxes[0].Rate
	}

	var taxID domain.TaxID
	if hasTax && salesTax != nil {
		taxID = salesTax.ID
	}

	return domain.CanonicalLineItem{
		Description:   item.Description,
		Quantity:      quantity,
		UnitPrice:     item.UnitPrice,
		Amount:        amount,
		AccountID:     n.resolver.AccountFor(item),
		HasTax:        hasTax,
		TaxID:         taxID,
		TaxPercentage: taxPct,
	}
}

/// syntheticLine is the degraded path: one line covering the whole invoice,
// posted against the invoice-level default account.
func (n *Normalizer) syntheticLine(
	inv domain.RawInvoice,
	invoiceDefault domain.AccountID,
	salesTax *domain.TaxRate,
) domain.CanonicalLineItem {
	description := strings.TrimSpace(inv.Observations)
	if description == "" {
		description = fallbackDescription
	}

	account := invoiceDefault
	if account.IsZero() {
		account = n.resolver.cfg.DefaultAccountID
	}

	line := domain.CanonicalLineItem{
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		Amount:      inv.Total,
		AccountID:   account,
	}
	if salesTax != nil {
		line.HasTax = true
		line.TaxID = salesTax.ID
		line.TaxPercentage = salesTax.Percentage
	}
	return line
}
