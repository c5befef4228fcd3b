// Package job implements the hierarchical progress/cancellation primitive
// used by every long-running catalog operation: downloads, XML parsing,
// the two-phase refresh, and installation-oracle probes.
//
// A Job tracks title, progress (0..1), an optional error, a cancel flag,
// and a set of weighted sub-jobs. Cancellation and error propagation are
// polled cooperatively via ShouldProceed — nothing here preempts a running
// operation asynchronously.
package job

import (
	"sync"

	"github.com/google/uuid"
)

// State is a snapshot of a Job at the moment a change event fired. It is
// the payload delivered to progress.Reporter and is safe to retain after
// the event.
type State struct {
	ID        uuid.UUID
	Title     string
	Progress  float64
	Error     string
	Cancelled bool
	Completed bool
}

// Job is a node in the progress tree. The zero value is not usable; create
// one with New or NewSubJob.
type Job struct {
	mu sync.Mutex

	id        uuid.UUID
	title     string
	progress  float64
	errMsg    string
	cancelled bool
	completed bool

	parent       *Job
	subJobWeight float64 // weight of this job within its parent, 0 for roots

	listeners []func(State)
}

// New creates a root job with the given title.
func New(title string) *Job {
	return &Job{id: uuid.New(), title: title}
}

// NewSubJob creates a child job representing the given fraction (0..1) of
// this job's remaining work. The child's progress contributes
// weight*child.Progress() to the parent; the error message from a sub-job
// does not automatically propagate to the parent — callers must check
// sub.Error() and call parent.SetError explicitly, exactly as in the
// original job tree.
func (j *Job) NewSubJob(weight float64, title string) *Job {
	child := &Job{
		id:           uuid.New(),
		title:        title,
		parent:       j,
		subJobWeight: weight,
	}
	return child
}

// ID returns the job's unique identifier, stable for its lifetime.
func (j *Job) ID() uuid.UUID { return j.id }

// Title returns the current title.
func (j *Job) Title() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.title
}

// SetTitle updates the title and notifies listeners.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	j.title = title
	j.mu.Unlock()
	j.fireChange()
}

// Progress returns the current progress, 0..1.
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// SetProgress sets this job's progress and propagates a weighted
// contribution to the parent's progress, if any. The value is purely
// informational; Complete must still be called when the job finishes.
func (j *Job) SetProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	j.mu.Lock()
	delta := p - j.progress
	j.progress = p
	parent := j.parent
	weight := j.subJobWeight
	j.mu.Unlock()

	j.fireChange()

	if parent != nil {
		parent.bumpProgress(weight * delta)
	}
}

// bumpProgress advances the parent's own progress by delta (already
// weighted by the sub-job's share), clamped to 0..1, and passes the
// change actually applied on to its own parent, weighted the same way.
func (j *Job) bumpProgress(delta float64) {
	j.mu.Lock()
	old := j.progress
	j.progress += delta
	if j.progress > 1 {
		j.progress = 1
	}
	if j.progress < 0 {
		j.progress = 0
	}
	applied := j.progress - old
	parent := j.parent
	weight := j.subJobWeight
	j.mu.Unlock()
	j.fireChange()

	if parent != nil {
		parent.bumpProgress(weight * applied)
	}
}

// CompleteWithProgress marks a sub-job complete and folds its full weight
// into the parent's progress in one step — the common "this sub-step is
// done" case used throughout the loader and store.
func (j *Job) CompleteWithProgress() {
	j.SetProgress(1)
	j.Complete()
}

// Error returns the first error message recorded on this job, or "".
func (j *Job) Error() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

// SetError records the first error message for this job. Subsequent calls
// after an error is already set are no-ops, preserving the deepest
// concrete cause closest to the failure. The error does not propagate to
// the parent automatically.
func (j *Job) SetError(msg string) {
	j.mu.Lock()
	if j.errMsg == "" {
		j.errMsg = msg
	}
	j.mu.Unlock()
	j.fireChange()
}

// Cancel requests cancellation of this job and, transitively, every
// descendant (ShouldProceed on a descendant also checks its ancestors).
func (j *Job) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
	j.fireChange()
}

// Cancelled reports whether this job itself was cancelled (not counting
// ancestors).
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// ShouldProceed reports whether this job and every ancestor is neither
// cancelled nor in an error state. Every long-running leaf operation
// should poll this at reasonable intervals.
func (j *Job) ShouldProceed() bool {
	for n := j; n != nil; n = n.parent {
		n.mu.Lock()
		stop := n.cancelled || n.errMsg != ""
		n.mu.Unlock()
		if stop {
			return false
		}
	}
	return true
}

// Complete clamps progress to 1.0 and marks the job terminal, regardless
// of error or cancellation state. Every job must eventually call Complete
// so that listeners observe a terminal event.
func (j *Job) Complete() {
	j.mu.Lock()
	j.progress = 1
	j.completed = true
	j.mu.Unlock()
	j.fireChange()
}

// Completed reports whether Complete has been called.
func (j *Job) Completed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completed
}

// Subscribe registers a callback invoked on every change to this job
// (title, progress, error, completion). It is the Go replacement for the
// original's Qt "changed" signal.
func (j *Job) Subscribe(fn func(State)) {
	j.mu.Lock()
	j.listeners = append(j.listeners, fn)
	j.mu.Unlock()
}

func (j *Job) fireChange() {
	j.mu.Lock()
	s := State{
		ID:        j.id,
		Title:     j.title,
		Progress:  j.progress,
		Error:     j.errMsg,
		Cancelled: j.cancelled,
		Completed: j.completed,
	}
	listeners := make([]func(State), len(j.listeners))
	copy(listeners, j.listeners)
	j.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
