package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountingCategory is one entry of the external chart of accounts. The
// catalog is fetched fresh on every pipeline run and treated as read-only.
type AccountingCategory struct {
	ID   AccountID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// IsParent reports whether the category is an organizational-only node that
// must never be assigned to a line item. Parent ids vary per deployment and
// come from configuration; the "Egresos"/"Ingresos" roots are parents by name.
func (c AccountingCategory) IsParent(parentIDs []AccountID) bool {
	if slices.Contains(parentIDs, c.ID) {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Name)) {
	case "egresos", "ingresos":
		return true
	}
	return false
}

// TaxRate is one entry of the external tax catalog.
type TaxRate struct {
	ID         TaxID           `json:"id"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
}

// IsSalesTax reports whether the tax is the IVA/sales-tax default: either the
// name mentions IVA or the rate is the domain-standard 13 percent.
func (t TaxRate) IsSalesTax() bool {
	if strings.Contains(strings.ToUpper(t.Name), "IVA") {
		return true
	}
	return t.Percentage.Equal(decimal.NewFromInt(13))
}
