// Package job runs per-chat acquisition jobs and tracks the one active job
// each chat is allowed.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediagrab/pkg/types"
)

var (
	// ErrBusy is returned when the chat already has a running job.
	ErrBusy = errors.New("chat already has an active job")

	// ErrNoActiveJob is returned when a cancel or status request names a
	// chat with no running job.
	ErrNoActiveJob = errors.New("no active job for chat")
)

// Job is the bookkeeping record for one running job.
type Job struct {
	ID        string
	ChatID    int64
	Mode      types.Mode
	StartedAt time.Time

	cancel context.CancelFunc

	mu        sync.Mutex
	processed int
	total     int
}

// Progress returns the seeds processed so far and the total seed count.
func (j *Job) Progress() (processed, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.processed, j.total
}

func (j *Job) setProgress(processed, total int) {
	j.mu.Lock()
	j.processed = processed
	j.total = total
	j.mu.Unlock()
}

// Status is a point-in-time snapshot of a running job.
type Status struct {
	ID        string     `json:"id"`
	ChatID    int64      `json:"chat_id"`
	Mode      types.Mode `json:"mode"`
	StartedAt time.Time  `json:"started_at"`
	Processed int        `json:"processed"`
	Total     int        `json:"total"`
}

// Registry maps chat IDs to their single active job. Safe for concurrent
// use.
type Registry struct {
	mu   sync.Mutex
	jobs map[int64]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[int64]*Job)}
}

// start registers a new job for the chat. Returns ErrBusy when one is
// already running.
func (r *Registry) start(chatID int64, mode types.Mode, cancel context.CancelFunc) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[chatID]; exists {
		return nil, ErrBusy
	}

	j := &Job{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Mode:      mode,
		StartedAt: time.Now(),
		cancel:    cancel,
	}
	r.jobs[chatID] = j
	return j, nil
}

// remove clears the chat's entry. Called on every terminal path.
func (r *Registry) remove(chatID int64) {
	r.mu.Lock()
	delete(r.jobs, chatID)
	r.mu.Unlock()
}

// Cancel requests cancellation of the chat's active job.
func (r *Registry) Cancel(chatID int64) error {
	r.mu.Lock()
	j, ok := r.jobs[chatID]
	r.mu.Unlock()

	if !ok {
		return ErrNoActiveJob
	}
	j.cancel()
	return nil
}

// Status returns a snapshot of the chat's active job.
func (r *Registry) Status(chatID int64) (Status, error) {
	r.mu.Lock()
	j, ok := r.jobs[chatID]
	r.mu.Unlock()

	if !ok {
		return Status{}, ErrNoActiveJob
	}
	processed, total := j.Progress()
	return Status{
		ID:        j.ID,
		ChatID:    j.ChatID,
		Mode:      j.Mode,
		StartedAt: j.StartedAt,
		Processed: processed,
		Total:     total,
	}, nil
}

// Active returns the number of running jobs.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
