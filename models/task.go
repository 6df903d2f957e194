package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async scan task
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// ScanTask represents an async scan of the configured products
type ScanTask struct {
	ID          string       `json:"id"`
	Status      TaskStatus   `json:"status"`
	Message     string       `json:"message"`
	Results     []ScanResult `json:"results,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewScanTask creates a queued scan task with a fresh ID
func NewScanTask() *ScanTask {
	return &ScanTask{
		ID:        uuid.NewString(),
		Status:    TaskStatusQueued,
		Message:   "Scan queued",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as running
func (t *ScanTask) Start() {
	t.Status = TaskStatusRunning
	t.Message = "Scan in progress"
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with its results
func (t *ScanTask) Complete(results []ScanResult) {
	t.Status = TaskStatusCompleted
	t.Message = "Scan completed"
	t.Results = results
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed
func (t *ScanTask) Fail(reason string) {
	t.Status = TaskStatusFailed
	t.Message = "Scan failed"
	t.Error = reason
	now := time.Now()
	t.CompletedAt = &now
}
