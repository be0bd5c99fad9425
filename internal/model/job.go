package model

import "time"

// Job represents a background job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"payload,omitempty"` // Stored as JSON
	Result      []byte     `json:"result,omitempty"`  // Stored as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Job types
const (
	JobTypeWorkflow = "workflow"
)

// WorkflowJobPayload contains the data for a song workflow job
type WorkflowJobPayload struct {
	Request SongRequest `json:"request"`
}
