package alegra

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/omarsolano/factura-bridge/internal/infrastructure/resilience"
)

// HTTPStatusError carries the upstream status and a bounded body excerpt so
// operators can see what the ledger objected to.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ledger %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ledger %s status: %s: %s", e.Operation, e.Status, e.Body)
}

// classifyLedgerError decides retry and breaker behavior for catalog reads.
// Context cancellation is the caller giving up, not an upstream fault.
func classifyLedgerError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			// Client errors are deterministic; retrying cannot help and
			// should not trip the breaker.
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	// Transport-level failures (DNS, connect, reset).
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
