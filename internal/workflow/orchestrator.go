package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/versecraft/api/internal/model"
)

// Generator submits a song for generation on the external studio
type Generator interface {
	Generate(ctx context.Context, req *model.SongRequest) (*model.GenerationResult, error)
}

// Downloader retrieves one generated variant by recency slot into the
// pending directory
type Downloader interface {
	Download(ctx context.Context, title string, slot model.DownloadSlot) (*model.DownloadedSong, error)
}

// Reviewer obtains verdicts for downloaded songs, strictly sequentially
type Reviewer interface {
	ReviewSongs(ctx context.Context, songs []model.DownloadedSong, progressID string) ([]model.ReviewResult, error)
}

// ProgressFunc receives coarse progress updates for observability
type ProgressFunc func(progress int, step string)

// Orchestrator drives the end-to-end retry loop. It only talks to the
// injected collaborators and the Disposer; browser automation and AI
// specifics never leak in.
type Orchestrator struct {
	generator   Generator
	downloader  Downloader
	reviewer    Reviewer
	disposer    *Disposer
	maxAttempts int
	renderWait  time.Duration
	progress    ProgressFunc
}

// NewOrchestrator wires the workflow core. renderWait is the fixed
// post-generation delay; the studio exposes no status API for render
// jobs, so the workflow waits blind.
func NewOrchestrator(gen Generator, dl Downloader, rev Reviewer, disposer *Disposer, maxAttempts int, renderWait time.Duration, progress ProgressFunc) *Orchestrator {
	if progress == nil {
		progress = func(int, string) {}
	}
	return &Orchestrator{
		generator:   gen,
		downloader:  dl,
		reviewer:    rev,
		disposer:    disposer,
		maxAttempts: maxAttempts,
		renderWait:  renderWait,
		progress:    progress,
	}
}

// Run executes the workflow and always returns a structured result;
// failures never escape as errors. The workflow succeeds as soon as one
// attempt keeps at least one song. When all attempts are exhausted the
// final attempt's surviving artifacts are salvaged into the approved
// directory with the fail-safe marker.
func (o *Orchestrator) Run(ctx context.Context, req *model.SongRequest) *model.WorkflowResult {
	result := &model.WorkflowResult{}
	var fatalErr error

	attempts, succeeded, lastErr := Run(ctx, o.maxAttempts, func(ctx context.Context, n int, final bool) (StepOutcome, error) {
		attempt := model.WorkflowAttempt{Number: n}
		defer func() {
			// A panicking collaborator must still leave an attempt
			// record behind; the engine turns the re-panic into a
			// failed attempt.
			if r := recover(); r != nil {
				attempt.Error = fmt.Sprintf("panic: %v", r)
				result.Attempts = append(result.Attempts, attempt)
				result.KeptCount += attempt.Kept
				result.RerolledCount += attempt.Rerolled
				panic(r)
			}
		}()
		outcome, err := o.runAttempt(ctx, req, &attempt, n, final)
		result.Attempts = append(result.Attempts, attempt)
		result.KeptCount += attempt.Kept
		result.RerolledCount += attempt.Rerolled
		if outcome == OutcomeFatal {
			fatalErr = err
		}
		return outcome, err
	})

	result.TotalAttempts = attempts
	if succeeded {
		result.Success = true
		return result
	}

	if fatalErr != nil {
		result.Error = fatalErr.Error()
		return result
	}
	if len(result.Attempts) == 0 {
		// Context was cancelled before the first attempt could run.
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
		}
		return result
	}

	o.runFailsafe(ctx, result)

	// Per policy, an exhausted workflow is only a failure when the
	// final attempt itself errored and nothing could be salvaged.
	last := &result.Attempts[len(result.Attempts)-1]
	finalErr := last.Error
	if finalErr == "" && !last.GenerationSuccess && lastErr != nil {
		// The engine saw an error the attempt record missed.
		finalErr = lastErr.Error()
	}
	if finalErr != "" && result.KeptCount == 0 && result.FailsafeCount == 0 {
		result.Error = finalErr
		return result
	}

	result.Success = true
	return result
}

// runAttempt executes one generate → wait → download → review →
// disposition cycle.
func (o *Orchestrator) runAttempt(ctx context.Context, req *model.SongRequest, attempt *model.WorkflowAttempt, n int, final bool) (StepOutcome, error) {
	base := (n - 1) * 100 / o.maxAttempts
	o.progress(base+5, fmt.Sprintf("Attempt %d: generating song...", n))

	gen, err := o.generator.Generate(ctx, req)
	if err != nil {
		attempt.Error = err.Error()
		return OutcomeRetry, fmt.Errorf("generation: %w", err)
	}
	if !gen.Success {
		attempt.Error = gen.Error
		return OutcomeRetry, fmt.Errorf("generation failed: %s", gen.Error)
	}
	attempt.GenerationSuccess = true
	attempt.ProgressID = gen.ProgressID
	if gen.ProgressID == "" {
		log.Printf("Attempt %d: no progress_id returned, review will run degraded", n)
	}

	// Blind wait for the external render; there is no status API.
	o.progress(base+10, fmt.Sprintf("Attempt %d: waiting for render...", n))
	if err := o.wait(ctx, o.renderWait); err != nil {
		attempt.Error = err.Error()
		return OutcomeFatal, err
	}

	// Two independent slot downloads; one failing does not cancel the
	// other.
	o.progress(base+15, fmt.Sprintf("Attempt %d: downloading songs...", n))
	for _, slot := range model.AllSlots {
		song, err := o.downloader.Download(ctx, req.Title, slot)
		if err != nil {
			log.Printf("Attempt %d: download of slot %s failed: %v", n, slot, err)
			continue
		}
		song.State = model.FileStatePending
		attempt.Downloads = append(attempt.Downloads, *song)
	}
	if len(attempt.Downloads) == 0 {
		// Zero downloads is an attempt failure but not an exception;
		// it never fails the workflow on its own.
		log.Printf("Attempt %d: no downloads succeeded", n)
		return OutcomeRetry, nil
	}

	o.progress(base+20, fmt.Sprintf("Attempt %d: reviewing %d song(s)...", n, len(attempt.Downloads)))
	reviews, err := o.reviewer.ReviewSongs(ctx, attempt.Downloads, gen.ProgressID)
	attempt.Reviews = reviews
	if err != nil {
		attempt.Error = err.Error()
		if ctx.Err() != nil {
			return OutcomeFatal, err
		}
		return OutcomeRetry, err
	}

	o.progress(base+28, fmt.Sprintf("Attempt %d: dispositioning...", n))
	o.disposition(ctx, attempt, reviews, final)

	if attempt.Kept > 0 {
		return OutcomeSuccess, nil
	}
	return OutcomeRetry, nil
}

// disposition applies the verdict policy. On the final attempt nothing
// is deleted: re-rolled and undecided files stay in the pending
// directory for the fail-safe sweep.
func (o *Orchestrator) disposition(ctx context.Context, attempt *model.WorkflowAttempt, reviews []model.ReviewResult, final bool) {
	for i := range reviews {
		if i >= len(attempt.Downloads) {
			break
		}
		song := &attempt.Downloads[i]

		switch reviews[i].Verdict {
		case model.VerdictContinue:
			res, err := o.disposer.Keep(ctx, song.FilePath)
			if err != nil {
				log.Printf("Failed to keep %s: %v", song.FilePath, err)
				continue
			}
			if res.Outcome == DispositionMoved {
				song.FilePath = res.Path
				song.State = model.FileStateKept
				attempt.Kept++
			}

		case model.VerdictReroll:
			attempt.Rerolled++
			if final {
				song.State = model.FileStatePreserved
				log.Printf("Final attempt: preserving re-rolled file %s", song.FilePath)
				continue
			}
			if _, err := o.disposer.Discard(song.FilePath); err != nil {
				log.Printf("Failed to discard %s: %v", song.FilePath, err)
				continue
			}
			song.State = model.FileStateDeleted

		default:
			// Undecided: leave in temp holding, uncounted either way.
			if final {
				song.State = model.FileStatePreserved
			}
			log.Printf("Review of %s returned verdict %q, leaving file in place", song.FilePath, reviews[i].Verdict)
		}
	}
}

// runFailsafe salvages every final-attempt artifact still on disk into
// the approved directory with the fail-safe marker.
func (o *Orchestrator) runFailsafe(ctx context.Context, result *model.WorkflowResult) {
	if len(result.Attempts) == 0 {
		return
	}
	last := &result.Attempts[len(result.Attempts)-1]
	if len(last.Downloads) == 0 {
		return
	}

	o.progress(95, "Salvaging final attempt artifacts...")
	for i := range last.Downloads {
		song := &last.Downloads[i]
		if song.State == model.FileStateDeleted || song.State == model.FileStateKept {
			continue
		}
		res, err := o.disposer.Failsafe(ctx, song.FilePath)
		if err != nil {
			log.Printf("Fail-safe move of %s failed: %v", song.FilePath, err)
			continue
		}
		if res.Outcome == DispositionMoved {
			song.FilePath = res.Path
			song.State = model.FileStateFailsafe
			result.FailsafeCount++
		}
	}
	if result.FailsafeCount > 0 {
		log.Printf("Fail-safe preserved %d artifact(s) from the final attempt", result.FailsafeCount)
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
