package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryAll(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func retryNone(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := exec.Execute(context.Background(), "flaky", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := exec.Execute(context.Background(), "fatal", func(context.Context) error {
		calls++
		return errors.New("bad request")
	}, retryNone)
	if err == nil {
		t.Fatal("Execute succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := exec.Execute(context.Background(), "always_down", func(context.Context) error {
		calls++
		return errors.New("still broken")
	}, retryAll)
	if err == nil {
		t.Fatal("Execute succeeded, want error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := exec.Execute(ctx, "slow", func(context.Context) error {
		calls++
		return errors.New("transient")
	}, retryAll)
	if err == nil {
		t.Fatal("Execute succeeded after cancellation")
	}
	if calls > 2 {
		t.Errorf("calls = %d, want retries stopped by cancellation", calls)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,

		BreakerEnabled:       true,
		BreakerMinRequests:   3,
		BreakerFailureRatio:  0.5,
		BreakerOpenTimeout:   time.Minute,
		BreakerHalfOpenCalls: 1,
	})

	boom := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "ledger", boom, retryAll)
	}

	err := exec.Execute(context.Background(), "ledger", boom, retryAll)
	if !IsCircuitOpen(err) {
		t.Fatalf("err = %v, want open circuit", err)
	}
}

func TestBreakerIgnoresNonRecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,

		BreakerEnabled:       true,
		BreakerMinRequests:   3,
		BreakerFailureRatio:  0.5,
		BreakerOpenTimeout:   time.Minute,
		BreakerHalfOpenCalls: 1,
	})

	clientError := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	boom := func(context.Context) error { return errors.New("bad request") }
	for i := 0; i < 10; i++ {
		_ = exec.Execute(context.Background(), "ledger", boom, clientError)
	}

	err := exec.Execute(context.Background(), "ledger", boom, clientError)
	if IsCircuitOpen(err) {
		t.Fatal("circuit opened on non-recorded failures")
	}
}

func TestBreakerScopedPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,

		BreakerEnabled:       true,
		BreakerMinRequests:   2,
		BreakerFailureRatio:  0.5,
		BreakerOpenTimeout:   time.Minute,
		BreakerHalfOpenCalls: 1,
	})

	boom := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "broken_op", boom, retryAll)
	}

	err := exec.Execute(context.Background(), "healthy_op", func(context.Context) error {
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("healthy operation affected by sibling breaker: %v", err)
	}
}
