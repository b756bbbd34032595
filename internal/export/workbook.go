// Package export renders processed invoices as XLSX workbooks for review
// before posting.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// InvoiceWorkbook returns an XLSX workbook (as bytes) with one row per
// canonical line item plus an invoice header block.
func (s *Service) InvoiceWorkbook(processed *domain.ProcessedInvoice) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Factura"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	inv := processed.Invoice
	write(1, 1, "Proveedor")
	write(2, 1, inv.VendorName)
	write(1, 2, "Identificación")
	write(2, 2, inv.VendorID)
	write(1, 3, "Factura")
	write(2, 3, inv.InvoiceNumber)
	write(1, 4, "Fecha")
	write(2, 4, inv.Date)
	write(1, 5, "Total")
	write(2, 5, inv.Total.InexactFloat64())

	headers := []string{
		"Descripción",
		"Cantidad",
		"Precio Unitario",
		"Monto",
		"Cuenta",
		"Impuesto %",
	}
	const headerRow = 7
	for i, h := range headers {
		write(i+1, headerRow, h)
	}

	row := headerRow + 1
	for _, line := range processed.Lines {
		write(1, row, truncate(line.Description, 140))
		write(2, row, line.Quantity.InexactFloat64())
		write(3, row, line.UnitPrice.InexactFloat64())
		write(4, row, line.Amount.InexactFloat64())
		write(5, row, line.AccountID.String())
		if line.HasTax {
			write(6, row, line.TaxPercentage.InexactFloat64())
		} else {
			write(6, row, "")
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48)
	_ = f.SetColWidth(sheet, "B", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 10)
	_ = f.SetColWidth(sheet, "F", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoice", inv.InvoiceNumber,
		"rows", len(processed.Lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
