package headertext

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
)

// Resolver recovers invoice header fields from free PDF text with ordered
// label patterns. It never fails; every field has a defined default so the
// pipeline can proceed with partial data.
type Resolver struct {
	knownVendors []string
	now          func() time.Time
}

func New(knownVendors []string) *Resolver {
	return &Resolver{knownVendors: knownVendors, now: time.Now}
}

func NewWithClock(knownVendors []string, now func() time.Time) *Resolver {
	return &Resolver{knownVendors: knownVendors, now: now}
}

var (
	vendorNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Emisor|Proveedor|Vendedor)[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)Raz[oó]n Social[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)Nombre Comercial[:\s]+([^\n]+)`),
	}
	vendorIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)C[eé]d(?:ula|\.)\s+Jur[ií]dica[:\s]*([\d-]+)`),
		regexp.MustCompile(`(?i)Identificaci[oó]n del Emisor[:\s]*([\d-]+)`),
		regexp.MustCompile(`(?i)(?:RUC|NIT)[:\s]*([\d-]+)`),
	}
	datePattern          = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	invoiceNumberPattern = regexp.MustCompile(`(?i)(?:factura|invoice|n[uú]mero|no\.?)\s*[:#]?\s*(\d{5,})`)
	totalPattern         = regexp.MustCompile(`(?i)(?:total|monto total|total a pagar)[:\s]*(?:₡|CRC)?\s*([\d,]+\.?\d*)`)
)

func (r *Resolver) Resolve(text string) domain.RawInvoice {
	return domain.RawInvoice{
		VendorName:    r.vendorName(text),
		VendorID:      vendorID(text),
		InvoiceNumber: invoiceNumber(text),
		Date:          r.invoiceDate(text),
		Total:         invoiceTotal(text),
		Source:        domain.SourcePDF,
	}
}

func (r *Resolver) vendorName(text string) string {
	for _, pattern := range vendorNamePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	// No label matched: fall back to the known-vendor allow-list, first
	// hit in list order wins.
	upper := strings.ToUpper(text)
	for _, vendor := range r.knownVendors {
		if strings.Contains(upper, strings.ToUpper(vendor)) {
			return vendor
		}
	}
	return ""
}

func vendorID(text string) string {
	for _, pattern := range vendorIDPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.ReplaceAll(strings.TrimSpace(m[1]), "-", "")
		}
	}
	return ""
}

// invoiceDate takes the first D/M/Y-looking substring. Slash-separated dates
// are normalized to ISO (2-digit years become 2000+); dash-separated matches
// are kept as found. No match defaults to the current date.
func (r *Resolver) invoiceDate(text string) string {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return r.now().Format("2006-01-02")
	}
	raw := m[1]
	if !strings.Contains(raw, "/") {
		return raw
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return r.now().Format("2006-01-02")
	}
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%s-%s", year, pad2(parts[1]), pad2(parts[0]))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func invoiceNumber(text string) string {
	if m := invoiceNumberPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func invoiceTotal(text string) decimal.Decimal {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero
	}
	cleaned := strings.ReplaceAll(m[1], ",", "")
	total, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return total
}
