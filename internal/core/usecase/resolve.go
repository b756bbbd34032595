package usecase

import (
	"strings"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

// ResolverConfig carries the deployment-specific sentinels for category
// resolution. DefaultAccountID is the universal "general expenses" fallback;
// ParentIDs are the non-assignable chart-of-accounts roots.
type ResolverConfig struct {
	DefaultAccountID domain.AccountID
	ParentIDs        []domain.AccountID
	GroceryKeywords  []string
	GenericKeywords  []string
	PayrollKeywords  []string
}

// CategoryResolver assigns exactly one account id to every line item and
// computes the invoice-level default that seeds the single-line fallback.
type CategoryResolver struct {
	cfg ResolverConfig
}

func NewCategoryResolver(cfg ResolverConfig) *CategoryResolver {
	return &CategoryResolver{cfg: cfg}
}

// AccountFor resolves one line item. A non-empty suggested id is used
// verbatim without catalog re-validation, unless it names a parent category;
// everything else takes the universal default.
func (r *CategoryResolver) AccountFor(item domain.RawLineItem) domain.AccountID {
	if item.AccountHint.IsZero() {
		return r.cfg.DefaultAccountID
	}
	if r.isParentID(item.AccountHint) {
		return r.cfg.DefaultAccountID
	}
	return item.AccountHint
}

// InvoiceDefault scans the catalog once and picks the whole-invoice default
// account: the first generic-expense match, else the first grocery/inventory
// match, else the first non-payroll non-parent entry, else the universal
// default sentinel. This default only seeds the synthetic single-line
// fallback; per-line resolution never consults it.
func (r *CategoryResolver) InvoiceDefault(catalog []domain.AccountingCategory) domain.AccountID {
	var grocery, generic, fallback domain.AccountID

	for _, cat := range catalog {
		if cat.IsParent(r.cfg.ParentIDs) {
			continue
		}
		name := strings.ToLower(cat.Name)
		switch {
		case containsAny(name, r.cfg.GroceryKeywords):
			if grocery.IsZero() {
				grocery = cat.ID
			}
		case containsAny(name, r.cfg.GenericKeywords):
			if generic.IsZero() {
				generic = cat.ID
			}
		case fallback.IsZero() && !containsAny(name, r.cfg.PayrollKeywords):
			fallback = cat.ID
		}
	}

	switch {
	case !generic.IsZero():
		return generic
	case !grocery.IsZero():
		return grocery
	case !fallback.IsZero():
		return fallback
	default:
		return r.cfg.DefaultAccountID
	}
}

// AssignableCategories filters parents out of the catalog, keeping only
// expense entries a line item may legally post against.
func (r *CategoryResolver) AssignableCategories(catalog []domain.AccountingCategory) []domain.AccountingCategory {
	out := make([]domain.AccountingCategory, 0, len(catalog))
	for _, cat := range catalog {
		if cat.Type != "" && cat.Type != "expense" {
			continue
		}
		if cat.IsParent(r.cfg.ParentIDs) {
			continue
		}
		out = append(out, cat)
	}
	return out
}

func (r *CategoryResolver) isParentID(id domain.AccountID) bool {
	for _, p := range r.cfg.ParentIDs {
		if p == id {
			return true
		}
	}
	return false
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
