// Package progress renders a job.Job's change events to the console,
// the Go replacement for the original's CLProgress/JobState Qt-signal
// mechanism. It builds entirely on the teacher's own spinner/progress-bar
// primitives in internal/output rather than introducing a new rendering
// stack.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/output"
)

// barScale is the ProgressBar's internal resolution; job.Progress is a
// float64 in [0,1], and output.ProgressBar works in integer units.
const barScale = 1000

// Reporter drives an output.ProgressBar from a job.Job's change events.
// One Reporter tracks one job node; nested sub-jobs contribute to their
// parent's aggregated progress exactly as job.Job already does, so a
// Reporter attached to a top-level refresh job renders its overall
// completion percentage without needing to know about its children.
type Reporter struct {
	mu   sync.Mutex
	bar  *output.ProgressBar
	err  io.Writer
	done bool
}

// NewReporter attaches a Reporter to j, rendering to w (output.ProgressBar's
// target, not an error writer) and reporting a final error line to errw
// if the job ends with one set. Pass os.Stdout/os.Stderr for normal CLI
// use; tests can pass buffers instead.
func NewReporter(j *job.Job, w, errw io.Writer) *Reporter {
	bar := output.NewProgress(barScale, j.Title())
	bar.SetWriter(w)
	r := &Reporter{bar: bar, err: errw}
	j.Subscribe(r.onChange)
	return r
}

func (r *Reporter) onChange(s job.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}

	r.bar.SetCurrent(int(s.Progress * barScale))

	switch {
	case s.Error != "":
		r.done = true
		r.bar.Finish()
		fmt.Fprintf(r.err, "%s: %s\n", s.Title, s.Error)
	case s.Cancelled:
		r.done = true
		r.bar.Finish()
		fmt.Fprintf(r.err, "%s: cancelled\n", s.Title)
	case s.Completed:
		r.done = true
		r.bar.Finish()
	}
}

// RunWithSpinner runs fn behind an output.Spinner carrying message,
// mirroring the manual spinner-per-phase style the teacher's scan
// command uses for a single indeterminate step. The spinner prints once
// and returns immediately on a non-TTY writer, same as output.Spinner.
func RunWithSpinner(message string, fn func() error) error {
	spinner := output.NewSpinner(message)
	spinner.Start()
	err := fn()
	if err != nil {
		spinner.StopWithMessage(fmt.Sprintf("%s: %v", message, err))
		return err
	}
	spinner.StopWithMessage("✓ " + message)
	return nil
}
