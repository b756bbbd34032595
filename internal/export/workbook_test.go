package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

func TestInvoiceWorkbook(t *testing.T) {
	processed := &domain.ProcessedInvoice{
		Invoice: domain.RawInvoice{
			VendorName:    "Distribuidora La Central",
			VendorID:      "3101123456",
			InvoiceNumber: "00100001010000012345",
			Date:          "2025-05-24",
			Total:         decimal.NewFromInt(5650),
		},
		Lines: []domain.CanonicalLineItem{
			{
				Description:   "Servicio de internet",
				Quantity:      decimal.NewFromInt(1),
				UnitPrice:     decimal.NewFromInt(5000),
				Amount:        decimal.NewFromInt(5000),
				AccountID:     5077,
				HasTax:        true,
				TaxPercentage: decimal.NewFromInt(13),
			},
			{
				Description: "Cargo administrativo",
				Quantity:    decimal.NewFromInt(2),
				Amount:      decimal.NewFromInt(650),
				AccountID:   5080,
			},
		},
	}

	raw, err := NewService(nil).InvoiceWorkbook(processed)
	if err != nil {
		t.Fatalf("InvoiceWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open generated workbook: %v", err)
	}
	defer f.Close()

	vendor, err := f.GetCellValue("Factura", "B1")
	if err != nil {
		t.Fatalf("read vendor cell: %v", err)
	}
	if vendor != "Distribuidora La Central" {
		t.Errorf("vendor cell = %q", vendor)
	}

	desc, _ := f.GetCellValue("Factura", "A8")
	if desc != "Servicio de internet" {
		t.Errorf("first line description = %q", desc)
	}
	account, _ := f.GetCellValue("Factura", "E9")
	if account != "5080" {
		t.Errorf("second line account = %q, want 5080", account)
	}
}
