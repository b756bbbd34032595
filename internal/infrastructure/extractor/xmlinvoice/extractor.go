package xmlinvoice

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

// Extractor parses Costa Rican electronic-invoice XML (facturaElectronica
// v4.3 namespace). Element names are matched by local name, so schema-version
// namespace changes do not break extraction.
type Extractor struct {
	now func() time.Time
}

func New() *Extractor {
	return &Extractor{now: time.Now}
}

// NewWithClock is for tests that need a fixed "current date" default.
func NewWithClock(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

type facturaDocument struct {
	NumeroConsecutivo string `xml:"NumeroConsecutivo"`
	FechaEmision      string `xml:"FechaEmision"`
	Emisor            party  `xml:"Emisor"`
	Receptor          party  `xml:"Receptor"`
	Detalle           struct {
		Lineas []lineaDetalle `xml:"LineaDetalle"`
	} `xml:"DetalleServicio"`
	Resumen struct {
		TotalComprobante string `xml:"TotalComprobante"`
	} `xml:"ResumenFactura"`
}

type party struct {
	Nombre         string `xml:"Nombre"`
	Identificacion struct {
		Numero string `xml:"Numero"`
	} `xml:"Identificacion"`
}

type lineaDetalle struct {
	Detalle        string `xml:"Detalle"`
	Cantidad       string `xml:"Cantidad"`
	PrecioUnitario string `xml:"PrecioUnitario"`
	SubTotal       string `xml:"SubTotal"`
	Descuentos     []struct {
		Monto string `xml:"MontoDescuento"`
	} `xml:"Descuento"`
	Impuestos []struct {
		Tarifa string `xml:"Tarifa"`
		Monto  string `xml:"Monto"`
	} `xml:"Impuesto"`
}

func (e *Extractor) Extract(payload []byte) (*domain.RawInvoice, error) {
	var doc facturaDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode invoice xml: %w", err)
	}
	if doc.Emisor.Nombre == "" && doc.NumeroConsecutivo == "" && len(doc.Detalle.Lineas) == 0 {
		return nil, errors.New("document is not an electronic invoice")
	}

	inv := &domain.RawInvoice{
		VendorName:    doc.Emisor.Nombre,
		VendorID:      doc.Emisor.Identificacion.Numero,
		ClientName:    doc.Receptor.Nombre,
		ClientID:      doc.Receptor.Identificacion.Numero,
		InvoiceNumber: doc.NumeroConsecutivo,
		Date:          e.parseEmissionDate(doc.FechaEmision),
		Source:        domain.SourceXML,
	}

	for _, linea := range doc.Detalle.Lineas {
		inv.LineItems = append(inv.LineItems, buildLineItem(linea))
	}

	inv.Total = parseAmount(doc.Resumen.TotalComprobante)
	if inv.Total.IsZero() && len(inv.LineItems) > 0 {
		inv.Total = recomputeTotal(inv.LineItems)
	}
	return inv, nil
}

func buildLineItem(linea lineaDetalle) domain.RawLineItem {
	quantity := parseAmount(linea.Cantidad)
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	subtotal := parseAmount(linea.SubTotal)
	discount := decimal.Zero
	if len(linea.Descuentos) > 0 {
		discount = parseAmount(linea.Descuentos[0].Monto)
	}

	item := domain.RawLineItem{
		Description: linea.Detalle,
		Quantity:    quantity,
		UnitPrice:   parseAmount(linea.PrecioUnitario),
		Amount:      subtotal.Sub(discount),
	}
	for _, imp := range linea.Impuestos {
		item.Taxes = append(item.Taxes, domain.TaxCharge{
			Rate:   parseAmount(imp.Tarifa),
			Amount: parseAmount(imp.Monto),
		})
	}
	item.HasTax = len(item.Taxes) > 0
	if len(item.Taxes) > 0 {
		item.TaxPercentage = item.Taxes[0].Rate
	}
	return item
}

// recomputeTotal is the fallback when the document declares no grand total:
// sum of line net amounts plus all line tax amounts.
func recomputeTotal(items []domain.RawLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
		for _, tax := range item.Taxes {
			total = total.Add(tax.Amount)
		}
	}
	return total
}

// parseEmissionDate accepts a bare date or a combined date-time with optional
// sub-second precision and timezone suffix; sub-second precision is truncated.
// An unparsable date defaults to the current date.
func (e *Extractor) parseEmissionDate(raw string) string {
	if raw == "" {
		return e.now().Format("2006-01-02")
	}
	candidate := raw
	if len(candidate) > 19 {
		candidate = candidate[:19]
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return e.now().Format("2006-01-02")
}

func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
