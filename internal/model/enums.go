package model

import "strings"

// Verdict is the outcome of an AI review pass
type Verdict string

const (
	VerdictContinue Verdict = "continue" // keep the song
	VerdictReroll   Verdict = "re-roll"  // discard and regenerate
	VerdictError    Verdict = "error"    // review could not decide
)

// Verdict markers the review model is instructed to emit
const (
	MarkerReroll   = "[re-roll]"
	MarkerContinue = "[continue]"
)

// ParseVerdict scans an AI response for the literal verdict markers.
// When neither marker is present the verdict defaults to continue; the
// caller is expected to log that as ambiguous output.
func ParseVerdict(response string) (Verdict, bool) {
	lower := strings.ToLower(response)
	if strings.Contains(lower, MarkerReroll) {
		return VerdictReroll, true
	}
	if strings.Contains(lower, MarkerContinue) {
		return VerdictContinue, true
	}
	return VerdictContinue, false
}

// DownloadSlot addresses a generated variant by recency. The studio UI
// produces two variants per generation and exposes no stable IDs before
// download, so slots are relative positions.
type DownloadSlot string

const (
	SlotMostRecent       DownloadSlot = "most-recent"
	SlotSecondMostRecent DownloadSlot = "second-most-recent"
)

var AllSlots = []DownloadSlot{SlotMostRecent, SlotSecondMostRecent}

// FileState tracks where a downloaded artifact currently lives
type FileState string

const (
	FileStatePending   FileState = "pending"   // temp-holding directory
	FileStateKept      FileState = "kept"      // moved to approved directory
	FileStateDeleted   FileState = "deleted"   // removed after re-roll
	FileStatePreserved FileState = "preserved" // left in place for fail-safe recovery
	FileStateFailsafe  FileState = "failsafe"  // salvaged to approved with marker suffix
)

// ReviewProfile selects the review pacing. The review backend enforces a
// hard requests-per-minute ceiling that differs per model.
type ReviewProfile string

const (
	ReviewProfileFast     ReviewProfile = "fast"     // ~15 req/min
	ReviewProfileAccurate ReviewProfile = "accurate" // ~2 req/min
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Song section types used in generated structures
type SectionType string

const (
	SectionIntro  SectionType = "intro"
	SectionVerse  SectionType = "verse"
	SectionChorus SectionType = "chorus"
	SectionBridge SectionType = "bridge"
	SectionOutro  SectionType = "outro"
)

var ValidSectionTypes = []SectionType{
	SectionIntro, SectionVerse, SectionChorus, SectionBridge, SectionOutro,
}
