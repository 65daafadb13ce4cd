package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a processing job. There is no pause,
// resume, or retry: a job moves from queued through processing to exactly
// one terminal state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Job tracks one video processing run.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Filter     string    `json:"filter"`
	SourceName string    `json:"source_name"`
	OutputName string    `json:"output_name,omitempty"`
	Status     Status    `json:"status"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	outputPath string
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
