// Package llm holds the provider-independent classification contract: the
// prompt that embeds the chart of accounts, and the fallible decoder that
// locates structured JSON inside the model's prose.
package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

const maxPromptText = 12000

// BuildPrompt composes the extraction request: the assignable category
// catalog (parents already excluded) sorted by code ascending with empty
// codes first, and the fixed one-record-per-line extraction contract.
func BuildPrompt(text string, categories []domain.AccountingCategory, defaultID domain.AccountID) string {
	snippet := text
	if len(snippet) > maxPromptText {
		snippet = snippet[:maxPromptText]
	}

	var b strings.Builder
	b.WriteString("Analiza la siguiente factura y extrae CADA línea de producto/servicio por separado.\n\n")
	b.WriteString(accountInstruction(categories, defaultID))
	b.WriteString(`
IMPORTANTE:
1. Extrae CADA producto/servicio como una línea separada; NO agrupes múltiples productos en una sola línea.
2. Asigna a cada línea el account_id más apropiado según las cuentas disponibles.

Para cada línea determina:
- description: descripción exacta del producto/servicio
- quantity: número de unidades
- unit_price: precio unitario sin impuestos
- amount: monto total de la línea sin impuestos
- account_id: ID de la cuenta contable (OBLIGATORIO, usa ` + defaultID.String() + ` si no puedes determinarla)
- has_tax: true/false si aplica IVA
- tax_percentage: porcentaje de IVA (típicamente 13, 0 si no aplica)

Responde SOLO con JSON válido:
{"line_items": [{"description": "...", "quantity": 1, "unit_price": 0, "amount": 0, "account_id": "...", "has_tax": true, "tax_percentage": 13}]}

Texto de la factura:
`)
	b.WriteString(snippet)
	return b.String()
}

func accountInstruction(categories []domain.AccountingCategory, defaultID domain.AccountID) string {
	if len(categories) == 0 {
		return fmt.Sprintf(
			"No hay cuentas contables disponibles en el sistema.\nUsa account_id: %s para todas las líneas.\n",
			defaultID.String(),
		)
	}

	sorted := make([]domain.AccountingCategory, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Code < sorted[j].Code
	})

	var b strings.Builder
	b.WriteString("CUENTAS CONTABLES DISPONIBLES EN EL SISTEMA:\n")
	for _, cat := range sorted {
		code := cat.Code
		if code == "" {
			code = "N/A"
		}
		fmt.Fprintf(&b, "- ID: %s | Código: %s | Nombre: %s\n", cat.ID.String(), code, cat.Name)
	}
	fmt.Fprintf(&b, "Si no puedes determinar la cuenta apropiada, usa ID: %s.\n", defaultID.String())
	b.WriteString("NO uses cuentas de salarios o nómina a menos que la factura sea realmente de nómina.\n")
	return b.String()
}

type lineItemPayload struct {
	Description   string      `json:"description"`
	Quantity      json.Number `json:"quantity"`
	UnitPrice     json.Number `json:"unit_price"`
	Amount        json.Number `json:"amount"`
	AccountID     flexibleID  `json:"account_id"`
	HasTax        bool        `json:"has_tax"`
	TaxPercentage json.Number `json:"tax_percentage"`
}

type responsePayload struct {
	LineItems []lineItemPayload `json:"line_items"`
}

// flexibleID accepts the account id as a JSON string or number; models emit
// both despite the contract.
type flexibleID domain.AccountID

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexibleID(domain.ParseAccountID(asNumber.String()))
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexibleID(domain.ParseAccountID(asString))
		return nil
	}
	*f = 0
	return nil
}

// DecodeLineItems locates the JSON object embedded in the raw completion by
// scanning for the first opening brace and the last closing brace, then
// decodes that span. Parse failure is a typed error, never a panic.
func DecodeLineItems(raw string) ([]domain.RawLineItem, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in completion")
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}

	items := make([]domain.RawLineItem, 0, len(payload.LineItems))
	for _, li := range payload.LineItems {
		quantity := parseNumber(li.Quantity)
		if quantity.IsZero() {
			quantity = decimal.NewFromInt(1)
		}
		items = append(items, domain.RawLineItem{
			Description:   li.Description,
			Quantity:      quantity,
			UnitPrice:     parseNumber(li.UnitPrice),
			Amount:        parseNumber(li.Amount),
			AccountHint:   domain.AccountID(li.AccountID),
			HasTax:        li.HasTax,
			TaxPercentage: parseNumber(li.TaxPercentage),
		})
	}
	return items, nil
}

func parseNumber(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
