package chain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the execution state of a single [Step].
//
// Steps move through Pending -> Running -> {Completed | Failed}. A step whose
// catalog entry cannot be found goes directly from Pending to Failed.
type Status string

// Step status values.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsValid returns true if s is one of the known status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for Completed and Failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NoIndex is the value of [Run.CurrentIndex] when no step is running.
const NoIndex = -1

// UnknownDisplayName is the display name given to steps whose entry could not
// be resolved when the chain was built.
const UnknownDisplayName = "Unknown Server"

// Step is the execution record of one catalog entry within a [Run].
type Step struct {
	// ID is unique within the run. It equals EntryID for the first occurrence
	// of an entry and carries a "#N" suffix for later duplicates.
	ID string `json:"id"`

	// EntryID references the catalog entry. It is looked up again when the
	// step executes.
	EntryID string `json:"entry_id"`

	// DisplayName is cached when the chain is resolved and never re-fetched.
	DisplayName string `json:"display_name"`

	Status Status `json:"status"`

	// Input is the value carried forward from the previous step, nil for the
	// first step and after a failure.
	Input any `json:"input"`

	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`

	// StartedAt and Duration are only set once the step has left Pending.
	StartedAt time.Time     `json:"started_at,omitzero"`
	Duration  time.Duration `json:"duration"`
}

// DurationMs returns the step duration in whole milliseconds.
func (s Step) DurationMs() int64 {
	return s.Duration.Milliseconds()
}

// OutcomeKind classifies a finished run.
type OutcomeKind string

// Outcome kinds.
//
// OutcomeError is reserved for runs that could not be attempted at all.
// Individual step failures always produce OutcomePartial.
const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomePartial OutcomeKind = "partial"
	OutcomeError   OutcomeKind = "error"
)

// Outcome is the aggregate result of a run.
type Outcome struct {
	Kind          OutcomeKind   `json:"kind"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Total         int           `json:"total"`
	TotalDuration time.Duration `json:"total_duration"`

	// Cancelled is set when the run stopped at a cancellation point before
	// attempting every step.
	Cancelled bool `json:"cancelled,omitempty"`

	// Err describes the setup failure for OutcomeError.
	Err string `json:"error,omitempty"`
}

// TotalDurationMs returns the summed step duration in whole milliseconds.
func (o Outcome) TotalDurationMs() int64 {
	return o.TotalDuration.Milliseconds()
}

// Summary renders the one-line run summary, e.g. "3/4 steps completed".
func (o Outcome) Summary() string {
	if o.Kind == OutcomeError {
		return fmt.Sprintf("run not started: %s", o.Err)
	}
	s := fmt.Sprintf("%d/%d steps completed", o.Completed, o.Total)
	if o.Cancelled {
		s += " (cancelled)"
	}
	return s
}

// Run is one end-to-end execution of a chain.
//
// Values handed out by [Executor.Snapshot] and the progress callback are deep
// copies; mutating them has no effect on the executor.
type Run struct {
	ID           uuid.UUID `json:"id"`
	Steps        []Step    `json:"steps"`
	CurrentIndex int       `json:"current_index"`
	StartedAt    time.Time `json:"started_at,omitzero"`

	// Outcome is nil until every step has been attempted (or the run was
	// cancelled).
	Outcome *Outcome `json:"outcome,omitempty"`
}

// idleRun is the state of an executor that has never run or was reset.
func idleRun() Run {
	return Run{CurrentIndex: NoIndex}
}

// Finished returns true once the run carries an outcome.
func (r Run) Finished() bool {
	return r.Outcome != nil
}

func (r Run) clone() Run {
	c := r
	if r.Steps != nil {
		c.Steps = make([]Step, len(r.Steps))
		copy(c.Steps, r.Steps)
	}
	if r.Outcome != nil {
		o := *r.Outcome
		c.Outcome = &o
	}
	return c
}
