package headertext

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

var testVendors = []string{
	"CLARO CR TELECOMUNICACIONES",
	"WALMART",
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestResolveLabeledHeader(t *testing.T) {
	text := `FACTURA ELECTRÓNICA
Emisor: Distribuidora La Central S.A.
Cédula Jurídica: 3-101-123456
Factura No: 12345678
Fecha: 24/05/2025
Total a pagar: ₡ 5,650.00`

	inv := New(testVendors).Resolve(text)

	if inv.VendorName != "Distribuidora La Central S.A." {
		t.Errorf("vendor = %q", inv.VendorName)
	}
	if inv.VendorID != "3101123456" {
		t.Errorf("vendor id = %q, want dashes stripped", inv.VendorID)
	}
	if inv.InvoiceNumber != "12345678" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if inv.Date != "2025-05-24" {
		t.Errorf("date = %q, want 2025-05-24", inv.Date)
	}
	if !inv.Total.Equal(decimal.NewFromFloat(5650.00)) {
		t.Errorf("total = %s, want 5650", inv.Total)
	}
	if inv.Source != domain.SourcePDF {
		t.Errorf("source = %q", inv.Source)
	}
}

func TestResolveVendorFromAllowList(t *testing.T) {
	text := "Servicios de telefonía\nclaro cr telecomunicaciones s.a.\nTotal: 9,500"

	inv := New(testVendors).Resolve(text)
	if inv.VendorName != "CLARO CR TELECOMUNICACIONES" {
		t.Errorf("vendor = %q, want allow-list match", inv.VendorName)
	}
	if !inv.Total.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("total = %s, want 9500", inv.Total)
	}
}

func TestResolveTwoDigitYear(t *testing.T) {
	inv := New(nil).Resolve("Fecha 24/05/25 Total 100")
	if inv.Date != "2025-05-24" {
		t.Errorf("date = %q, want 2025-05-24", inv.Date)
	}
}

func TestResolveSingleDigitDayMonth(t *testing.T) {
	inv := New(nil).Resolve("Fecha 3/4/2025 Total 100")
	if inv.Date != "2025-04-03" {
		t.Errorf("date = %q, want 2025-04-03", inv.Date)
	}
}

func TestResolveDateDefaultsToToday(t *testing.T) {
	inv := NewWithClock(nil, fixedClock).Resolve("sin fecha alguna")
	if inv.Date != "2025-06-01" {
		t.Errorf("date = %q, want clock default", inv.Date)
	}
}

func TestResolveInvoiceNumberNeedsFiveDigits(t *testing.T) {
	inv := New(nil).Resolve("Factura No: 123")
	if inv.InvoiceNumber != "" {
		t.Errorf("invoice number = %q, want empty for short number", inv.InvoiceNumber)
	}
}

func TestResolveMissingFieldsHaveDefaults(t *testing.T) {
	inv := NewWithClock(nil, fixedClock).Resolve("texto sin estructura")
	if inv.VendorName != "" || inv.VendorID != "" || inv.InvoiceNumber != "" {
		t.Errorf("expected empty header fields, got %+v", inv)
	}
	if !inv.Total.IsZero() {
		t.Errorf("total = %s, want zero", inv.Total)
	}
}

func TestResolveRUCLabel(t *testing.T) {
	inv := New(nil).Resolve("Proveedor: ACME\nRUC: 12-3456789")
	if inv.VendorID != "123456789" {
		t.Errorf("vendor id = %q, want 123456789", inv.VendorID)
	}
}
