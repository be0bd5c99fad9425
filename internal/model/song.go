package model

// SongRequest identifies one song-creation attempt. Immutable once
// submitted to the workflow.
type SongRequest struct {
	BookName    string `json:"bookName"`
	Chapter     int    `json:"chapter"`
	VerseRange  string `json:"verseRange"` // e.g. "1-8"
	Style       string `json:"style"`
	Title       string `json:"title"`
	StructureID string `json:"structureId,omitempty"`
}

// GenerationResult is the outcome of submitting lyrics to the studio
// driver. ProgressID correlates the generation to its stored lyrics; it
// is legitimately absent when the studio does not redirect to a
// retrievable page after submission.
type GenerationResult struct {
	Success        bool   `json:"success"`
	ExternalSongID string `json:"externalSongId,omitempty"`
	ProgressID     string `json:"progressId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// DownloadedSong is a physical artifact sitting in the pending directory
type DownloadedSong struct {
	FilePath string       `json:"filePath"`
	Slot     DownloadSlot `json:"slot"`
	Title    string       `json:"title"`
	State    FileState    `json:"state"`
}

// ReviewResult carries the verdict for one downloaded song
type ReviewResult struct {
	FilePath  string   `json:"filePath"`
	Verdict   Verdict  `json:"verdict"`
	Responses []string `json:"responses,omitempty"` // transcript + critique texts
	Degraded  bool     `json:"degraded,omitempty"`  // reviewed without stored lyrics
}

// WorkflowAttempt records one retry iteration for observability
type WorkflowAttempt struct {
	Number            int              `json:"number"`
	GenerationSuccess bool             `json:"generationSuccess"`
	ProgressID        string           `json:"progressId,omitempty"`
	Downloads         []DownloadedSong `json:"downloads,omitempty"`
	Reviews           []ReviewResult   `json:"reviews,omitempty"`
	Kept              int              `json:"kept"`
	Rerolled          int              `json:"rerolled"`
	Error             string           `json:"error,omitempty"`
}

// WorkflowResult is the workflow's terminal output. It is always a
// structured value; failures never propagate as raw errors past the
// orchestrator boundary.
type WorkflowResult struct {
	Success       bool              `json:"success"`
	TotalAttempts int               `json:"totalAttempts"`
	KeptCount     int               `json:"keptCount"`
	RerolledCount int               `json:"rerolledCount"`
	FailsafeCount int               `json:"failsafeCount"`
	Attempts      []WorkflowAttempt `json:"attempts,omitempty"`
	Error         string            `json:"error,omitempty"`
}
