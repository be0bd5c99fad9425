package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/versecraft/api/internal/model"
)

const (
	TaskTypeWorkflow = "workflow:process"

	// QueueWorkflow is processed with concurrency 1: the studio driver
	// session and the review quota cannot be shared between workflows.
	QueueWorkflow = "workflow"
)

// WorkflowService handles song-workflow job management
type WorkflowService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewWorkflowService(redisClient *redis.Client, asynqClient *asynq.Client) *WorkflowService {
	return &WorkflowService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// StartWorkflow queues a new song workflow job
func (s *WorkflowService) StartWorkflow(ctx context.Context, req *model.SongCreateRequest) (*model.SongCreateResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeWorkflow,
		Status:    model.JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
	}

	payload := &model.WorkflowJobPayload{
		Request: model.SongRequest{
			BookName:    req.BookName,
			Chapter:     req.Chapter,
			VerseRange:  req.VerseRange,
			Style:       req.Style,
			Title:       req.Title,
			StructureID: req.StructureID,
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job.Payload = payloadBytes

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newWorkflowTask(jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// The orchestrator owns retries internally (three attempts per
	// run), so the task itself is not retried by asynq.
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue(QueueWorkflow),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SongCreateResponse{
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a workflow job
func (s *WorkflowService) GetStatus(ctx context.Context, jobID string) (*model.WorkflowStatusResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.WorkflowStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResult returns the WorkflowResult of a completed job
func (s *WorkflowService) GetResult(ctx context.Context, jobID string) (*model.WorkflowResult, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded && job.Status != model.JobStatusFailed {
		return nil, fmt.Errorf("job not completed")
	}

	var result model.WorkflowResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// CancelWorkflow cancels a queued workflow job. A running workflow
// finishes its current attempt; cancellation takes effect through the
// task context.
func (s *WorkflowService) CancelWorkflow(ctx context.Context, jobID string) (*model.WorkflowCancelResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobStatusSucceeded || job.Status == model.JobStatusFailed {
		return nil, fmt.Errorf("job already completed")
	}

	job.Status = model.JobStatusCanceled
	now := time.Now()
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}

	return &model.WorkflowCancelResponse{
		Success: true,
		JobID:   jobID,
		Status:  model.JobStatusCanceled,
	}, nil
}

// UpdateJobProgress updates job progress (called by worker)
func (s *WorkflowService) UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// CompleteJob stores the workflow result (called by worker). The job is
// marked failed only when the result itself reports failure; partial
// progress (attempts made, songs kept) is preserved either way.
func (s *WorkflowService) CompleteJob(ctx context.Context, jobID string, result *model.WorkflowResult) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Result = resultBytes
	job.Progress = 100
	now := time.Now()
	job.CompletedAt = &now

	if result.Success {
		job.Status = model.JobStatusSucceeded
	} else {
		job.Status = model.JobStatusFailed
		if result.Error != "" {
			errMsg := result.Error
			job.Error = &errMsg
		}
	}

	return s.saveJob(ctx, job)
}

// FailJob marks a job as failed before a result could be produced
func (s *WorkflowService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// Helper methods

func (s *WorkflowService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, 24*time.Hour).Err()
}

func (s *WorkflowService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job not found")
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func newWorkflowTask(jobID string, payload []byte) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": json.RawMessage(payload),
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWorkflow, data), nil
}
