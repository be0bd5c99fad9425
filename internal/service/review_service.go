package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/versecraft/api/internal/config"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/store"
)

// ReviewService runs the AI quality review for downloaded songs. It is
// strictly single-flight: the review backend enforces a hard
// requests-per-minute ceiling, so every call is spaced by the
// profile-configured delay and songs are reviewed one after another.
type ReviewService struct {
	llm   LLMClient
	store store.SongStore
	delay time.Duration
}

func NewReviewService(llm LLMClient, songStore store.SongStore, cfg *config.ReviewConfig) *ReviewService {
	return &ReviewService{
		llm:   llm,
		store: songStore,
		delay: time.Duration(cfg.ReviewDelaySeconds()) * time.Second,
	}
}

// ReviewSongs reviews each song sequentially, inserting a full delay
// between songs on top of the per-call spacing. Individual review
// failures become verdict=error results; only context cancellation
// aborts the sequence.
func (s *ReviewService) ReviewSongs(ctx context.Context, songs []model.DownloadedSong, progressID string) ([]model.ReviewResult, error) {
	results := make([]model.ReviewResult, 0, len(songs))

	for i, song := range songs {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return results, err
			}
		}

		result, err := s.ReviewSong(ctx, &song, progressID)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// ReviewSong obtains a verdict for one song: an audio-transcription
// upload, a transcript critique prompt, and a lyrics-comparison prompt,
// each separated by the configured delay. Without a resolvable progress
// id the lyric comparison is impossible and the review degrades to a
// transcript-only check that never fabricates lyrics.
func (s *ReviewService) ReviewSong(ctx context.Context, song *model.DownloadedSong, progressID string) (*model.ReviewResult, error) {
	result := &model.ReviewResult{
		FilePath: song.FilePath,
		Verdict:  model.VerdictError,
	}

	lyrics := ""
	if progressID != "" {
		stored, err := s.store.GetLyrics(ctx, progressID)
		if err == nil {
			lyrics = stored
		} else if err != store.ErrNotFound {
			return nil, fmt.Errorf("lyrics lookup failed: %w", err)
		}
	}
	result.Degraded = lyrics == ""
	if result.Degraded {
		log.Printf("[Review] no stored lyrics for %q (progress_id=%q), running degraded review", song.Title, progressID)
	}

	// Call 1: upload audio for transcription
	transcript, err := s.llm.TranscribeAudio(ctx, song.FilePath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[Review] transcription failed for %s: %v", song.FilePath, err)
		return result, nil
	}
	result.Responses = append(result.Responses, transcript)

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	// Call 2: transcript critique
	critique, err := s.llm.ChatCompletion(ctx, reviewSystemPrompt, s.buildCritiquePrompt(song.Title, transcript))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[Review] critique failed for %s: %v", song.FilePath, err)
		return result, nil
	}
	result.Responses = append(result.Responses, critique)

	if result.Degraded {
		// Transcript-only check: without the intended lyrics a rejection
		// cannot be trusted, so the degraded path never returns re-roll.
		// A re-roll marker downgrades to an error verdict, which leaves
		// the file in place instead of deleting it.
		verdict, found := model.ParseVerdict(critique)
		if !found {
			log.Printf("[Review] no verdict marker in degraded review of %s, defaulting to continue", song.FilePath)
		}
		if verdict == model.VerdictReroll {
			log.Printf("[Review] degraded review of %s asked for re-roll, recording error verdict instead", song.FilePath)
			verdict = model.VerdictError
		}
		result.Verdict = verdict
		return result, nil
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	// Call 3: lyrics comparison, carries the final verdict
	comparison, err := s.llm.ChatCompletion(ctx, reviewSystemPrompt, s.buildComparisonPrompt(transcript, lyrics, critique))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[Review] lyric comparison failed for %s: %v", song.FilePath, err)
		return result, nil
	}
	result.Responses = append(result.Responses, comparison)

	verdict, found := model.ParseVerdict(comparison)
	if !found {
		log.Printf("[Review] no verdict marker in review of %s, defaulting to continue", song.FilePath)
	}
	result.Verdict = verdict
	return result, nil
}

const reviewSystemPrompt = `You are a strict quality reviewer for AI-generated worship songs.
You judge audio transcripts against their intended lyrics and decide whether a song is
worth keeping. Your final line must contain exactly one verdict marker: [continue] to
keep the song or [re-roll] to discard and regenerate it.`

func (s *ReviewService) buildCritiquePrompt(title, transcript string) string {
	return fmt.Sprintf(`The following is a transcript of a generated song titled %q.

Transcript:
%s

Critique the song: is the vocal intelligible, does it sound like a complete song, are
there obvious generation artifacts (repeated syllables, gibberish, cut-offs)?
End with [continue] if the audio itself is usable, [re-roll] if not.`, title, transcript)
}

func (s *ReviewService) buildComparisonPrompt(transcript, lyrics, critique string) string {
	return fmt.Sprintf(`Compare the sung transcript against the intended lyrics.

Intended lyrics:
%s

Transcript:
%s

Earlier critique:
%s

Decide: does the song faithfully sing the intended lyrics with acceptable quality?
Your final line must be exactly [continue] or [re-roll].`, lyrics, transcript, critique)
}

// wait sleeps for the configured inter-request delay, honoring
// cancellation.
func (s *ReviewService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}
