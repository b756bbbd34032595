// Package alegra implements the accounting-ledger port against the Alegra
// REST API: chart of accounts, tax catalog, purchase bills and payments.
package alegra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/resilience"
)

// Observer receives per-request ledger observations.
type Observer interface {
	RecordLedgerRequest(operation, status string)
}

type Config struct {
	BaseURL string
	User    string
	Token   string

	// Catalog pagination bounds. MaxPages guards termination against a
	// runaway upstream.
	PageSize int
	MaxPages int

	ParentIDs            []domain.AccountID
	DefaultBankAccountID int64
	Timeout              time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	exec       *resilience.Executor
	observer   Observer
	logger     *slog.Logger
}

func New(cfg Config, exec *resilience.Executor, observer Observer, logger *slog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.DefaultBankAccountID == 0 {
		cfg.DefaultBankAccountID = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		exec:       exec,
		observer:   observer,
		logger:     logger,
	}
}

type categoryPayload struct {
	ID         flexString `json:"id"`
	Code       flexString `json:"code"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Percentage float64    `json:"percentage"`
}

// flexString tolerates ids and codes arriving as JSON strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexString(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexString(asNumber.String())
		return nil
	}
	*f = ""
	return nil
}

// ListExpenseCategories fetches the chart of accounts page by page, keeping
// only assignable expense entries: parent roots are filtered out at this
// boundary so no caller ever sees them.
func (c *Client) ListExpenseCategories(ctx context.Context) ([]domain.AccountingCategory, error) {
	var catalog []domain.AccountingCategory

	for page := 0; page < c.cfg.MaxPages; page++ {
		path := fmt.Sprintf("/categories?limit=%d&start=%d", c.cfg.PageSize, page*c.cfg.PageSize)

		var entries []categoryPayload
		if err := c.getJSON(ctx, "list_categories", path, &entries); err != nil {
			return nil, err
		}

		for _, entry := range entries {
			cat := domain.AccountingCategory{
				ID:   domain.ParseAccountID(string(entry.ID)),
				Code: string(entry.Code),
				Name: entry.Name,
				Type: entry.Type,
			}
			if cat.Type != "expense" {
				continue
			}
			if cat.IsParent(c.cfg.ParentIDs) {
				continue
			}
			catalog = append(catalog, cat)
		}

		if len(entries) < c.cfg.PageSize {
			break
		}
	}

	c.logger.Debug("catalog_fetched", "categories", len(catalog))
	return catalog, nil
}

func (c *Client) ListTaxes(ctx context.Context) ([]domain.TaxRate, error) {
	var entries []categoryPayload
	if err := c.getJSON(ctx, "list_taxes", "/taxes", &entries); err != nil {
		return nil, err
	}

	taxes := make([]domain.TaxRate, 0, len(entries))
	for _, entry := range entries {
		id := domain.ParseAccountID(string(entry.ID))
		taxes = append(taxes, domain.TaxRate{
			ID:         domain.TaxID(id),
			Name:       entry.Name,
			Percentage: decimal.NewFromFloat(entry.Percentage),
		})
	}
	return taxes, nil
}

type billLinePayload struct {
	ID           int64            `json:"id"`
	Price        float64          `json:"price"`
	Quantity     float64          `json:"quantity"`
	Observations string           `json:"observations,omitempty"`
	Tax          []map[string]any `json:"tax,omitempty"`
}

func (c *Client) CreateBill(ctx context.Context, draft domain.BillDraft) (*domain.BillReceipt, error) {
	lines := make([]billLinePayload, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		payload := billLinePayload{
			ID:           int64(line.AccountID),
			Price:        line.Amount.InexactFloat64(),
			Quantity:     line.Quantity.InexactFloat64(),
			Observations: line.Description,
		}
		if line.HasTax && line.TaxID != 0 {
			payload.Tax = []map[string]any{{"id": int64(line.TaxID)}}
		}
		lines = append(lines, payload)
	}

	request := map[string]any{
		"date":          draft.Date,
		"dueDate":       draft.DueDate,
		"provider":      draft.ProviderID,
		"paymentMethod": draft.PaymentMethod,
		"observations":  draft.Observations,
		"anotation":     draft.Annotation,
		"numberTemplate": map[string]string{
			"number": draft.InvoiceNumber,
		},
		"purchases": map[string]any{
			"categories": lines,
		},
	}

	var response struct {
		ID             json.Number `json:"id"`
		Total          float64     `json:"total"`
		NumberTemplate struct {
			FullNumber string `json:"fullNumber"`
		} `json:"numberTemplate"`
	}
	if err := c.postJSON(ctx, "create_bill", "/bills", request, &response); err != nil {
		return nil, domain.WrapError(domain.ErrLedgerRejected, "create bill", err)
	}

	id, _ := response.ID.Int64()
	return &domain.BillReceipt{
		ID:     id,
		Number: response.NumberTemplate.FullNumber,
		Total:  decimal.NewFromFloat(response.Total),
	}, nil
}

func (c *Client) CreatePayment(ctx context.Context, draft domain.PaymentDraft) (*domain.PaymentReceipt, error) {
	method := draft.PaymentMethod
	if method == "" {
		method = "cash"
	}

	request := map[string]any{
		"date":          draft.Date,
		"bankAccount":   c.cfg.DefaultBankAccountID,
		"paymentMethod": method,
		"type":          "out",
		"provider":      draft.ProviderID,
		"observations":  draft.Observations,
		"bills": []map[string]any{
			{"id": draft.BillID, "amount": draft.Amount.InexactFloat64()},
		},
	}

	var response struct {
		ID     json.Number `json:"id"`
		Amount float64     `json:"amount"`
	}
	if err := c.postJSON(ctx, "create_payment", "/payments", request, &response); err != nil {
		return nil, domain.WrapError(domain.ErrLedgerRejected, "create payment", err)
	}

	id, _ := response.ID.Int64()
	return &domain.PaymentReceipt{
		ID:     id,
		Amount: decimal.NewFromFloat(response.Amount),
	}, nil
}

// getJSON runs a catalog read through the resilience executor; reads are safe
// to retry.
func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	err := c.exec.Execute(ctx, operation, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, operation, path, nil, out)
	}, classifyLedgerError)
	c.observe(operation, err)
	return err
}

// postJSON is single-shot: bill and payment creation are not idempotent.
func (c *Client) postJSON(ctx context.Context, operation, path string, payload, out any) error {
	err := c.doJSON(ctx, http.MethodPost, operation, path, payload, out)
	c.observe(operation, err)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, operation, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.User, c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.observer.RecordLedgerRequest(operation, status)
}

type noopObserver struct{}

func (noopObserver) RecordLedgerRequest(string, string) {}
