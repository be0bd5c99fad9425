package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestRun_SuccessStopsLoop(t *testing.T) {
	calls := 0
	attempts, succeeded, err := Run(context.Background(), 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		return OutcomeSuccess, nil
	})

	if !succeeded {
		t.Error("expected success")
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("expected exactly 1 attempt, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestRun_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	attempts, succeeded, _ := Run(context.Background(), 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		if attempt < 2 {
			return OutcomeRetry, errors.New("not yet")
		}
		return OutcomeSuccess, nil
	})

	if !succeeded {
		t.Error("expected success on second attempt")
	}
	if attempts != 2 || calls != 2 {
		t.Errorf("expected 2 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestRun_ExhaustsAttempts(t *testing.T) {
	calls := 0
	lastSawFinal := false
	attempts, succeeded, err := Run(context.Background(), 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		lastSawFinal = final
		return OutcomeRetry, errors.New("still failing")
	})

	if succeeded {
		t.Error("expected failure after exhaustion")
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
	if err == nil || err.Error() != "still failing" {
		t.Errorf("expected last error to surface, got %v", err)
	}
	if !lastSawFinal {
		t.Error("expected final=true on last attempt")
	}
}

func TestRun_FatalStopsImmediately(t *testing.T) {
	calls := 0
	attempts, succeeded, err := Run(context.Background(), 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		return OutcomeFatal, errors.New("unrecoverable")
	})

	if succeeded {
		t.Error("expected failure")
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("expected fatal to stop after 1 attempt, got attempts=%d calls=%d", attempts, calls)
	}
	if err == nil || err.Error() != "unrecoverable" {
		t.Errorf("expected fatal error, got %v", err)
	}
}

func TestRun_PanicBecomesFailedAttempt(t *testing.T) {
	calls := 0
	attempts, succeeded, _ := Run(context.Background(), 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		if attempt == 1 {
			panic("driver blew up")
		}
		return OutcomeSuccess, nil
	})

	if !succeeded {
		t.Error("expected recovery and success on attempt 2")
	}
	if attempts != 2 || calls != 2 {
		t.Errorf("expected 2 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, succeeded, err := Run(ctx, 3, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		return OutcomeSuccess, nil
	})

	if succeeded {
		t.Error("expected failure on cancelled context")
	}
	if calls != 0 {
		t.Errorf("expected step never to run, got %d calls", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_MinimumOneAttempt(t *testing.T) {
	calls := 0
	attempts, _, _ := Run(context.Background(), 0, func(ctx context.Context, attempt int, final bool) (StepOutcome, error) {
		calls++
		return OutcomeRetry, nil
	})

	if attempts != 1 || calls != 1 {
		t.Errorf("expected maxAttempts<1 to clamp to 1, got attempts=%d calls=%d", attempts, calls)
	}
}
