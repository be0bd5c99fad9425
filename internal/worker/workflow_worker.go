package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/versecraft/api/internal/client"
	"github.com/versecraft/api/internal/config"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/internal/store"
	"github.com/versecraft/api/internal/websocket"
	"github.com/versecraft/api/internal/workflow"
)

// WorkflowWorker processes song workflow jobs
type WorkflowWorker struct {
	workflowService *service.WorkflowService
	structures      *service.StructureService
	lyrics          *service.LyricsService
	reviews         *service.ReviewService
	studio          client.StudioDriver
	songStore       store.SongStore
	archiver        workflow.Archiver
	cfg             *config.WorkflowConfig
	hub             *websocket.Hub
}

// NewWorkflowWorker creates a new workflow worker. archiver may be nil
// when R2 is not configured.
func NewWorkflowWorker(
	workflowService *service.WorkflowService,
	structures *service.StructureService,
	lyrics *service.LyricsService,
	reviews *service.ReviewService,
	studio client.StudioDriver,
	songStore store.SongStore,
	archiver workflow.Archiver,
	cfg *config.WorkflowConfig,
	hub *websocket.Hub,
) *WorkflowWorker {
	return &WorkflowWorker{
		workflowService: workflowService,
		structures:      structures,
		lyrics:          lyrics,
		reviews:         reviews,
		studio:          studio,
		songStore:       songStore,
		archiver:        archiver,
		cfg:             cfg,
		hub:             hub,
	}
}

// ProcessTask handles one workflow job end to end
func (w *WorkflowWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting workflow job: %s", jobID)

	var payload model.WorkflowJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal workflow payload: %w", err)
	}

	disposer, err := workflow.NewDisposer(w.cfg.PendingDir, w.cfg.ApprovedDir, w.archiver)
	if err != nil {
		w.failJob(ctx, jobID, fmt.Sprintf("Failed to prepare directories: %v", err))
		return err
	}

	orchestrator := workflow.NewOrchestrator(
		&generatorAdapter{
			structures: w.structures,
			lyrics:     w.lyrics,
			studio:     w.studio,
			store:      w.songStore,
		},
		&downloaderAdapter{studio: w.studio},
		w.reviews,
		disposer,
		w.cfg.MaxAttempts,
		time.Duration(w.cfg.RenderWaitSeconds)*time.Second,
		func(progress int, step string) {
			w.updateProgress(ctx, jobID, progress, step)
		},
	)

	result := orchestrator.Run(ctx, &payload.Request)

	if err := w.workflowService.CompleteJob(ctx, jobID, result); err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	if result.Success {
		w.hub.BroadcastComplete(jobID, result)
		log.Printf("Workflow job %s completed: attempts=%d kept=%d rerolled=%d failsafe=%d",
			jobID, result.TotalAttempts, result.KeptCount, result.RerolledCount, result.FailsafeCount)
	} else {
		w.hub.BroadcastError(jobID, "WORKFLOW_FAILED", result.Error)
		log.Printf("Workflow job %s failed after %d attempt(s): %s", jobID, result.TotalAttempts, result.Error)
	}
	return nil
}

func (w *WorkflowWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.workflowService.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		log.Printf("Failed to update progress: %v", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *WorkflowWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.workflowService.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job as failed: %v", err)
	}
	w.hub.BroadcastError(jobID, "WORKFLOW_FAILED", errMsg)
}
