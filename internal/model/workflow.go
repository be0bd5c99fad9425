package model

import "time"

// SongCreateRequest is the body for POST /api/songs/create
type SongCreateRequest struct {
	BookName    string `json:"bookName" validate:"required"`
	Chapter     int    `json:"chapter" validate:"required,min=1"`
	VerseRange  string `json:"verseRange" validate:"required"`
	Style       string `json:"style" validate:"required"`
	Title       string `json:"title" validate:"required"`
	StructureID string `json:"structureId,omitempty"`
}

// SongCreateResponse acknowledges a queued workflow job
type SongCreateResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkflowStatusResponse reports job progress
type WorkflowStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// WorkflowCancelResponse acknowledges a cancellation
type WorkflowCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}

// StructureGenerateRequest is the body for POST /api/structures/generate
type StructureGenerateRequest struct {
	BookName   string `json:"bookName" validate:"required"`
	Chapter    int    `json:"chapter" validate:"required,min=1"`
	Name       string `json:"name" validate:"required"`
	VerseCount int    `json:"verseCount,omitempty" validate:"omitempty,min=1"`
}

// DebugDownloadRequest exercises the download driver in isolation
type DebugDownloadRequest struct {
	Title string       `json:"title" validate:"required"`
	Slot  DownloadSlot `json:"slot" validate:"required,oneof=most-recent second-most-recent"`
}

// DebugReviewRequest exercises the review sequencer in isolation
type DebugReviewRequest struct {
	FilePath   string `json:"filePath" validate:"required"`
	ProgressID string `json:"progressId,omitempty"`
}
