package service

import (
	"context"
	"errors"
	"testing"

	"github.com/versecraft/api/internal/config"
	"github.com/versecraft/api/internal/model"
)

func newTestReviewService(llm *fakeLLM, st *fakeStore) *ReviewService {
	// Zero delays keep the single-flight sequencing without real sleeps
	return NewReviewService(llm, st, &config.ReviewConfig{Profile: "fast"})
}

func TestReviewSong_FullPath(t *testing.T) {
	st := newFakeStore()
	st.lyrics["prog-1"] = "[Verse]\nThe Lord is my shepherd"
	llm := &fakeLLM{
		configured:    true,
		transcript:    "the lord is my shepherd",
		chatResponses: []string{"audio is clean [continue]", "faithful rendition [continue]"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "prog-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Verdict != model.VerdictContinue {
		t.Errorf("expected continue, got %s", result.Verdict)
	}
	if result.Degraded {
		t.Error("expected full review with stored lyrics")
	}
	if llm.transcribeCalls != 1 || llm.chatCalls != 2 {
		t.Errorf("expected 1 transcription + 2 chat calls, got %d + %d", llm.transcribeCalls, llm.chatCalls)
	}
	if len(result.Responses) != 3 {
		t.Errorf("expected 3 recorded responses, got %d", len(result.Responses))
	}
}

func TestReviewSong_RerollVerdict(t *testing.T) {
	st := newFakeStore()
	st.lyrics["prog-1"] = "intended lyrics"
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"usable [continue]", "wrong words entirely [re-roll]"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "prog-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Verdict != model.VerdictReroll {
		t.Errorf("expected re-roll, got %s", result.Verdict)
	}
}

func TestReviewSong_NoMarkerDefaultsToContinue(t *testing.T) {
	st := newFakeStore()
	st.lyrics["prog-1"] = "intended lyrics"
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"sounds fine", "seems close enough to the lyrics"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "prog-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Verdict != model.VerdictContinue {
		t.Errorf("expected missing marker to default to continue, got %s", result.Verdict)
	}
}

func TestReviewSong_DegradedWithoutProgressID(t *testing.T) {
	st := newFakeStore()
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"audio is usable [continue]"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Degraded {
		t.Error("expected degraded review without progress id")
	}
	if result.Verdict != model.VerdictContinue {
		t.Errorf("expected continue, got %s", result.Verdict)
	}
	// Degraded review skips the lyric comparison entirely.
	if llm.chatCalls != 1 {
		t.Errorf("expected single critique call in degraded mode, got %d", llm.chatCalls)
	}
}

func TestReviewSong_UnresolvableProgressIDDegrades(t *testing.T) {
	st := newFakeStore() // no lyrics stored
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"audio is fine [continue]"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "unknown-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Error("expected degraded review when stored lyrics are missing")
	}
	if result.Verdict != model.VerdictContinue {
		t.Errorf("expected continue, got %s", result.Verdict)
	}
	if llm.chatCalls != 1 {
		t.Errorf("expected single critique call in degraded mode, got %d", llm.chatCalls)
	}
}

func TestReviewSong_DegradedNeverReturnsReroll(t *testing.T) {
	st := newFakeStore() // no lyrics stored
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"garbled mess [re-roll]"},
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "unknown-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Error("expected degraded review when stored lyrics are missing")
	}
	// A transcript-only rejection cannot be trusted; it must downgrade
	// to an error verdict so the file is never deleted over it.
	if result.Verdict != model.VerdictError {
		t.Errorf("expected error verdict for degraded re-roll, got %s", result.Verdict)
	}
}

func TestReviewSong_TranscriptionFailureIsErrorVerdict(t *testing.T) {
	st := newFakeStore()
	st.lyrics["prog-1"] = "lyrics"
	llm := &fakeLLM{
		configured:    true,
		transcribeErr: errors.New("upload rejected"),
	}
	svc := newTestReviewService(llm, st)

	song := model.DownloadedSong{FilePath: "/tmp/song.mp3", Title: "psalm23"}
	result, err := svc.ReviewSong(context.Background(), &song, "prog-1")
	if err != nil {
		t.Fatalf("review failures should be verdicts, not errors: %v", err)
	}
	if result.Verdict != model.VerdictError {
		t.Errorf("expected error verdict, got %s", result.Verdict)
	}
	if llm.chatCalls != 0 {
		t.Errorf("expected no chat calls after failed transcription, got %d", llm.chatCalls)
	}
}

func TestReviewSongs_SequentialPerSong(t *testing.T) {
	st := newFakeStore()
	st.lyrics["prog-1"] = "lyrics"
	llm := &fakeLLM{
		configured:    true,
		chatResponses: []string{"[continue]"},
	}
	svc := newTestReviewService(llm, st)

	songs := []model.DownloadedSong{
		{FilePath: "/tmp/a.mp3", Title: "a"},
		{FilePath: "/tmp/b.mp3", Title: "b"},
	}
	results, err := svc.ReviewSongs(context.Background(), songs, "prog-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Each song runs the full 3-call sequence.
	if llm.transcribeCalls != 2 || llm.chatCalls != 4 {
		t.Errorf("expected 2 transcriptions + 4 chat calls, got %d + %d", llm.transcribeCalls, llm.chatCalls)
	}
}

func TestReviewSongs_CancellationAborts(t *testing.T) {
	st := newFakeStore()
	llm := &fakeLLM{configured: true}
	svc := newTestReviewService(llm, st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm.transcribeErr = ctx.Err()

	songs := []model.DownloadedSong{{FilePath: "/tmp/a.mp3", Title: "a"}}
	_, err := svc.ReviewSongs(ctx, songs, "")
	if err == nil {
		t.Fatal("expected cancellation to propagate as an error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
