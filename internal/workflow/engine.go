// Package workflow implements the song-creation retry loop: up to three
// attempts of generate → wait → download → review → disposition, with a
// fail-safe sweep when every attempt is rejected.
package workflow

import (
	"context"
	"fmt"
	"log"
)

// StepOutcome is the result of one attempt
type StepOutcome int

const (
	// OutcomeSuccess terminates the loop successfully
	OutcomeSuccess StepOutcome = iota
	// OutcomeRetry moves to the next attempt, or exhausts the loop
	OutcomeRetry
	// OutcomeFatal terminates the loop immediately with an error
	OutcomeFatal
)

// StepFunc executes one attempt. attempt is 1-based; final reports
// whether this is the last attempt the driver will run.
type StepFunc func(ctx context.Context, attempt int, final bool) (StepOutcome, error)

// Run drives up to maxAttempts executions of step, stopping at the
// first OutcomeSuccess or OutcomeFatal. Panics inside a step are
// recovered and treated as a failed attempt, so a misbehaving driver
// can never take down the worker. Returns the number of attempts
// executed, whether any succeeded, and the last error seen.
func Run(ctx context.Context, maxAttempts int, step StepFunc) (attempts int, succeeded bool, lastErr error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt

		if err := ctx.Err(); err != nil {
			return attempts, false, err
		}

		outcome, err := runStep(ctx, step, attempt, attempt == maxAttempts)
		switch outcome {
		case OutcomeSuccess:
			return attempts, true, nil
		case OutcomeFatal:
			return attempts, false, err
		case OutcomeRetry:
			if err != nil {
				log.Printf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
				lastErr = err
			}
		}
	}

	return attempts, false, lastErr
}

// runStep invokes step with panic recovery
func runStep(ctx context.Context, step StepFunc, attempt int, final bool) (outcome StepOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeRetry
			err = fmt.Errorf("attempt %d panicked: %v", attempt, r)
		}
	}()
	return step(ctx, attempt, final)
}
