// Package httpadapter exposes the invoice pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/core/ports"
	"github.com/omarsolano/factura-bridge/internal/export"
)

// Options carries the traffic-control knobs and optional observability hooks.
type Options struct {
	MaxUploadBytes    int64
	RateLimitRPS      int
	RateLimitBurst    int
	MaxInFlight       int
	BackpressureWait  time.Duration
	MetricsMiddleware func(http.Handler) http.Handler
	MetricsHandler    http.Handler
}

type Router struct {
	opts      Options
	extractor ports.UploadExtractor
	processor ports.InvoiceProcessor
	submitter ports.BillSubmitter
	exporter  *export.Service
}

func NewRouter(
	opts Options,
	extractor ports.UploadExtractor,
	processor ports.InvoiceProcessor,
	submitter ports.BillSubmitter,
	exporter *export.Service,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 2 * time.Second
	}
	return &Router{
		opts:      opts,
		extractor: extractor,
		processor: processor,
		submitter: submitter,
		exporter:  exporter,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/invoices/extract", rt.extractInvoice)
	mux.HandleFunc("/v1/invoices/workbook", rt.exportWorkbook)
	mux.HandleFunc("/v1/bills", rt.submitBill)
	if rt.opts.MetricsHandler != nil {
		mux.Handle("/metrics", rt.opts.MetricsHandler)
	}

	var handler http.Handler = mux
	if rt.opts.MetricsMiddleware != nil {
		handler = rt.opts.MetricsMiddleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extractInvoice parses an uploaded document and returns the extracted
// invoice without touching the ledger.
func (rt *Router) extractInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename, data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	invoice, err := rt.extractor.Extract(r.Context(), filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// exportWorkbook runs the full extract+classify pipeline and returns the
// processed line items as an XLSX attachment.
func (rt *Router) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename, data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	invoice, err := rt.extractor.Extract(r.Context(), filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	processed, err := rt.processor.Process(r.Context(), *invoice)
	if err != nil {
		writeError(w, err)
		return
	}

	workbook, err := rt.exporter.InvoiceWorkbook(processed)
	if err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if name == "" || name == "." {
		name = "factura"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (rt *Router) submitBill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Invoice       domain.RawInvoice `json:"invoice"`
		ContactID     int64             `json:"contact_id"`
		PaymentMethod string            `json:"payment_method"`
		CreatePayment bool              `json:"create_payment"`
		Description   string            `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.submitter.Submit(r.Context(), domain.SubmitRequest{
		Invoice:       req.Invoice,
		ContactID:     req.ContactID,
		PaymentMethod: req.PaymentMethod,
		CreatePayment: req.CreatePayment,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// readUpload pulls the multipart "file" field, enforcing the size cap and the
// supported-extension check before any parsing happens.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return "", nil, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return "", nil, false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" && ext != ".xml" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error": "only .pdf and .xml invoices are supported",
		})
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
