package usecase

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

func sampleSalesTax() *domain.TaxRate {
	return &domain.TaxRate{ID: 3, Name: "IVA 13%", Percentage: decimal.NewFromInt(13)}
}

func TestNormalizePreservesStructuredLinesInOrder(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		Total: decimal.NewFromInt(339),
		LineItems: []domain.RawLineItem{
			{Description: "Primero", Quantity: decimal.NewFromInt(1), Amount: decimal.NewFromInt(100)},
			{Description: "Segundo", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
		},
	}

	lines := n.Normalize(inv, nil, 5020, nil)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].Description != "Primero" || lines[1].Description != "Segundo" {
		t.Errorf("order not preserved: %q, %q", lines[0].Description, lines[1].Description)
	}
}

func TestNormalizeRecomputesAmountFromUnitPrice(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		LineItems: []domain.RawLineItem{
			{Description: "Cajas", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(250)},
		},
	}

	lines := n.Normalize(inv, nil, 0, nil)
	if !lines[0].Amount.Equal(decimal.NewFromInt(750)) {
		t.Errorf("amount = %s, want 750", lines[0].Amount)
	}
}

func TestNormalizeDefaultsQuantityToOne(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		LineItems: []domain.RawLineItem{
			{Description: "Servicio mensual", Amount: decimal.NewFromInt(5000)},
		},
	}

	lines := n.Normalize(inv, nil, 0, nil)
	if !lines[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("quantity = %s, want 1", lines[0].Quantity)
	}
	if !lines[0].Amount.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("amount = %s, want 5000", lines[0].Amount)
	}
}

func TestNormalizeClassifiedFallbackSource(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{Total: decimal.NewFromInt(1000)}
	classified := []domain.RawLineItem{
		{Description: "Internet", Amount: decimal.NewFromInt(1000), AccountHint: 6001, HasTax: true},
	}

	lines := n.Normalize(inv, classified, 5020, sampleSalesTax())
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].AccountID != 6001 {
		t.Errorf("account = %d, want hint 6001", lines[0].AccountID)
	}
	if lines[0].TaxID != 3 {
		t.Errorf("tax id = %d, want 3", lines[0].TaxID)
	}
}

func TestNormalizeSyntheticLineCoversTotal(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		Total:        decimal.NewFromInt(5650),
		Observations: "Factura de Claro CR",
	}

	lines := n.Normalize(inv, nil, 5020, sampleSalesTax())
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	line := lines[0]
	if !line.Amount.Equal(inv.Total) {
		t.Errorf("synthetic amount = %s, want invoice total %s", line.Amount, inv.Total)
	}
	if line.AccountID != 5020 {
		t.Errorf("synthetic account = %d, want invoice default 5020", line.AccountID)
	}
	if line.Description != "Factura de Claro CR" {
		t.Errorf("synthetic description = %q", line.Description)
	}
	if !line.HasTax || line.TaxID != 3 {
		t.Errorf("synthetic tax = %+v, want sales tax applied", line)
	}
}

func TestNormalizeSyntheticLineDefaults(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{Total: decimal.NewFromInt(100)}

	lines := n.Normalize(inv, nil, 0, nil)
	line := lines[0]
	if line.Description != "Servicio" {
		t.Errorf("description = %q, want Servicio", line.Description)
	}
	if line.AccountID != 5077 {
		t.Errorf("account = %d, want resolver default 5077", line.AccountID)
	}
	if line.HasTax {
		t.Errorf("synthetic line has tax without a tax catalog")
	}
}

func TestNormalizeTaxFromChargeList(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		LineItems: []domain.RawLineItem{
			{
				Description: "Producto",
				Amount:      decimal.NewFromInt(300),
				Taxes: []domain.TaxCharge{
					{Rate: decimal.NewFromInt(13), Amount: decimal.NewFromInt(39)},
				},
			},
		},
	}

	lines := n.Normalize(inv, nil, 0, sampleSalesTax())
	line := lines[0]
	if !line.HasTax {
		t.Errorf("HasTax = false, want true from tax charges")
	}
	if !line.TaxPercentage.Equal(decimal.NewFromInt(13)) {
		t.Errorf("tax percentage = %s, want 13", line.TaxPercentage)
	}
	if line.TaxID != 3 {
		t.Errorf("tax id = %d, want 3", line.TaxID)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(newTestResolver())
	inv := domain.RawInvoice{
		Total: decimal.NewFromInt(1000),
		LineItems: []domain.RawLineItem{
			{Description: "A", Amount: decimal.NewFromInt(400)},
			{Description: "B", Amount: decimal.NewFromInt(600), AccountHint: 6001},
		},
	}

	first := n.Normalize(inv, nil, 5020, sampleSalesTax())
	second := n.Normalize(inv, nil, 5020, sampleSalesTax())
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].AccountID != second[i].AccountID || !first[i].Amount.Equal(second[i].Amount) {
			t.Errorf("line %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
