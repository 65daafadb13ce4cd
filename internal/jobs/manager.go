// In-memory job manager for video processing runs
package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"video-frame-studio/internal/metrics"
	"video-frame-studio/internal/video"
)

// Runner executes one full video transform and reports the number of
// frames written. *video.Transformer satisfies it; tests substitute
// their own.
type Runner interface {
	TransformFile(ctx context.Context, srcPath, dstPath string, fn video.FrameTransform, onProgress video.ProgressFunc) (string, int, error)
}

// Manager tracks processing jobs and runs each one on its own goroutine.
// The transformer itself is blocking and single-threaded per run; the
// manager supplies the concurrency the web surface needs, and forwards
// per-frame progress into the job record.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	cancels map[uuid.UUID]context.CancelFunc
	runner  Runner
	logger  *logrus.Logger
}

func NewManager(runner Runner, logger *logrus.Logger) *Manager {
	return &Manager{
		jobs:    make(map[uuid.UUID]*Job),
		cancels: make(map[uuid.UUID]context.CancelFunc),
		runner:  runner,
		logger:  logger,
	}
}

// Submit registers a job and starts processing it in the background. The
// returned snapshot is safe to retain; poll Get for progress.
func (m *Manager) Submit(filter, srcPath, dstPath string, fn video.FrameTransform) Job {
	now := time.Now()
	job := &Job{
		ID:         uuid.New(),
		Filter:     filter,
		SourceName: filepath.Base(srcPath),
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
		outputPath: dstPath,
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Snapshot before the worker goroutine starts mutating the record.
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.cancels[job.ID] = cancel
	snapshot := *job
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"filter": filter,
		"source": srcPath,
	}).Info("job submitted")

	go m.run(ctx, job.ID, srcPath, dstPath, fn)

	return snapshot
}

func (m *Manager) run(ctx context.Context, id uuid.UUID, srcPath, dstPath string, fn video.FrameTransform) {
	start := time.Now()
	m.setStatus(id, StatusProcessing)

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	onProgress := func(fraction float64) {
		m.setProgress(id, fraction)
	}

	_, frames, err := m.runner.TransformFile(ctx, srcPath, dstPath, fn, onProgress)
	metrics.FramesProcessedTotal.Add(float64(frames))

	var status Status
	switch {
	case err == nil:
		status = StatusCompleted
	case errors.Is(err, video.ErrCancelled):
		status = StatusCancelled
	default:
		status = StatusFailed
	}
	m.finish(id, status, err)

	metrics.JobsProcessedTotal.WithLabelValues(string(status)).Inc()
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	entry := m.logger.WithFields(logrus.Fields{
		"job_id":  id,
		"status":  status,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("job finished")
	} else {
		entry.Info("job finished")
	}
}

// Get returns a snapshot of the job, if it exists.
func (m *Manager) Get(id uuid.UUID) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, *job)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Cancel requests cooperative cancellation of a running job. It reports
// whether a cancellable job was found; the status change lands when the
// transform observes the context at its next frame boundary.
func (m *Manager) Cancel(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[id]
	if !exists || job.Terminal() {
		return false
	}

	cancel, exists := m.cancels[id]
	if !exists {
		return false
	}
	cancel()
	return true
}

func (m *Manager) setStatus(id uuid.UUID, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[id]; exists {
		job.Status = status
		job.UpdatedAt = time.Now()
	}
}

func (m *Manager) setProgress(id uuid.UUID, fraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[id]
	if !exists {
		return
	}
	// Progress never moves backwards, whatever the denominator did.
	if fraction > job.Progress {
		job.Progress = fraction
	}
	job.UpdatedAt = time.Now()
}

func (m *Manager) finish(id uuid.UUID, status Status, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[id]
	if !exists {
		return
	}

	job.Status = status
	job.UpdatedAt = time.Now()
	if err != nil {
		job.Error = err.Error()
	}
	if status == StatusCompleted {
		job.Progress = 1.0
		job.OutputName = filepath.Base(job.outputPath)
	}

	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
}
