// Package chain runs ordered chains of catalog entries as sequential pipelines.
//
// The chain package provides [Executor], which resolves a list of entry
// identifiers into [Step] records and runs them strictly one at a time. Each
// step's output is handed to the next step as its input. A failing step never
// stops the run: later steps still execute and the final [Outcome] reports how
// many steps completed.
//
// Key concepts:
//   - Entries are looked up through [EntryLookup] and executed through [ActionProvider]
//   - Progress is published as [Run] snapshots via [ProgressCallback]
//   - Cancellation is cooperative and checked between steps
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mcpchain/internal/catalog"
	"mcpchain/internal/logging"
	"mcpchain/internal/metrics"
)

// DefaultStepTimeout bounds a single action invocation when no timeout is configured.
const DefaultStepTimeout = 30 * time.Second

const tracerName = "mcpchain/internal/chain"

// Sentinel errors for chain execution.
var (
	// ErrEmptyChain is returned by [Executor.Start] and [Resolve] when the
	// chain has no entries. No run is created.
	ErrEmptyChain = errors.New("chain has no entries")

	// ErrRunInProgress is returned when a run is started or reset while
	// another run is still executing.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrInvalidTransition indicates an illegal step status change.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrEntryMissing is recorded on steps whose catalog entry cannot be
	// found at execution time.
	ErrEntryMissing = errors.New("server not found")
)

// EntryLookup finds catalog entries by identifier.
//
// FindEntry must return an error wrapping [catalog.ErrEntryNotFound] for
// unknown identifiers. The [catalog] package implementations satisfy it.
type EntryLookup interface {
	FindEntry(ctx context.Context, id string) (catalog.Entry, error)
}

// ActionProvider performs the work for one entry given the previous output.
//
// Invoke must either return an output or fail; it should honour ctx. The
// [action.Registry] type implements this interface.
type ActionProvider interface {
	Invoke(ctx context.Context, entryID string, input any) (any, error)
}

// ProgressCallback receives a snapshot of the run after every state change.
//
// The snapshot is a copy owned by the callback. The callback runs on the run
// loop's goroutine, so it should return quickly.
type ProgressCallback func(run Run)

// CarryPolicy decides what a step receives as input after its predecessor failed.
type CarryPolicy string

// Carry policies.
const (
	// CarryNull hands nil to the step after a failure.
	CarryNull CarryPolicy = "null"

	// CarryLastSuccess hands over the output of the most recent completed step.
	CarryLastSuccess CarryPolicy = "last-success"
)

// ParseCarryPolicy converts a configuration value to a [CarryPolicy].
// The empty string selects [CarryNull].
func ParseCarryPolicy(s string) (CarryPolicy, error) {
	switch CarryPolicy(s) {
	case "", CarryNull:
		return CarryNull, nil
	case CarryLastSuccess:
		return CarryLastSuccess, nil
	}
	return "", fmt.Errorf("unknown carry policy %q (want %q or %q)", s, CarryNull, CarryLastSuccess)
}

// Executor runs chains one at a time.
//
// Use [NewExecutor] to create an instance and [Executor.Start] to run a chain.
// An Executor may be reused for any number of sequential runs; starting a run
// while another is active is rejected with [ErrRunInProgress].
type Executor struct {
	lookup   EntryLookup
	provider ActionProvider

	progressCallback ProgressCallback
	stepTimeout      time.Duration
	stepDelay        time.Duration
	carry            CarryPolicy
	logger           *slog.Logger
	now              func() time.Time
	tracer           trace.Tracer

	mu      sync.Mutex
	running bool
	run     Run
}

// NewExecutor creates an idle Executor.
//
// The step timeout defaults to [DefaultStepTimeout], there is no inter-step
// delay and failed steps carry nil forward.
func NewExecutor(lookup EntryLookup, provider ActionProvider) *Executor {
	return &Executor{
		lookup:      lookup,
		provider:    provider,
		stepTimeout: DefaultStepTimeout,
		carry:       CarryNull,
		now:         time.Now,
		tracer:      otel.Tracer(tracerName),
		run:         idleRun(),
	}
}

// SetProgressCallback configures the snapshot callback. Pass nil to disable it.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// SetStepTimeout bounds each action invocation. Zero or negative disables the bound.
func (e *Executor) SetStepTimeout(d time.Duration) {
	e.stepTimeout = d
}

// SetStepDelay inserts a pause between steps for pacing.
func (e *Executor) SetStepDelay(d time.Duration) {
	e.stepDelay = d
}

// SetCarryPolicy selects the input handed on after a failed step.
func (e *Executor) SetCarryPolicy(p CarryPolicy) {
	e.carry = p
}

// SetLogger sets the logger. Without one the logger on the run context is used.
func (e *Executor) SetLogger(l *slog.Logger) {
	e.logger = l
}

// SetClock replaces the time source used for step timing.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

// SetTracerProvider selects the OpenTelemetry provider for step spans.
func (e *Executor) SetTracerProvider(tp trace.TracerProvider) {
	e.tracer = tp.Tracer(tracerName)
}

// Running reports whether a run is in flight.
func (e *Executor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Snapshot returns a copy of the current run state.
func (e *Executor) Snapshot() Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run.clone()
}

// Reset discards the current run and returns the executor to idle.
//
// Reset is a no-op on an idle executor. The caller must not reset while a run
// is in flight; doing so returns [ErrRunInProgress] and leaves the run intact.
func (e *Executor) Reset() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunInProgress
	}
	e.run = idleRun()
	snapshot := e.run.clone()
	e.mu.Unlock()

	e.publish(snapshot)
	return nil
}

// Start runs the chain to completion and returns its outcome.
//
// Start blocks until every step has been attempted or ctx is cancelled. Step
// failures are recorded on the steps and never returned as errors: callers
// detect degraded runs by comparing [Outcome.Completed] with [Outcome.Total].
//
// Start returns an error only when the run cannot begin: [ErrEmptyChain] for an
// empty chain and [ErrRunInProgress] while another run is active. In both cases
// the returned outcome has kind [OutcomeError] and no run is created.
//
// Cancelling ctx stops the run at the next step boundary. Steps already
// attempted keep their records, the rest stay Pending and the outcome is
// [OutcomePartial] with Cancelled set.
func (e *Executor) Start(ctx context.Context, entryIDs []string) (Outcome, error) {
	if len(entryIDs) == 0 {
		return setupFailure(ErrEmptyChain), ErrEmptyChain
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return setupFailure(ErrRunInProgress), ErrRunInProgress
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	steps, err := Resolve(ctx, e.lookup, entryIDs)
	if err != nil {
		return setupFailure(err), err
	}

	runID := uuid.New()
	logger := e.loggerFor(ctx).With("run_id", runID.String())

	e.update(func(r *Run) {
		*r = Run{
			ID:           runID,
			Steps:        steps,
			CurrentIndex: NoIndex,
			StartedAt:    e.now(),
		}
	})
	logger.Info("run started", "steps", len(steps))

	var carried any
	cancelled := false
	for i := range steps {
		if ctx.Err() != nil {
			cancelled = true
			logger.Warn("run cancelled", "remaining", len(steps)-i, "error", ctx.Err())
			break
		}

		e.update(func(r *Run) { r.CurrentIndex = i })

		output, ok := e.executeStep(ctx, logger, i, carried)
		switch {
		case ok:
			carried = output
		case e.carry == CarryNull:
			carried = nil
		}

		if e.stepDelay > 0 && i < len(steps)-1 {
			e.pause(ctx)
		}
	}

	var outcome Outcome
	e.update(func(r *Run) {
		outcome = aggregate(r.Steps, cancelled)
		r.CurrentIndex = NoIndex
		r.Outcome = &outcome
	})

	metrics.IncRunOutcome(string(outcome.Kind))
	logger.Info("run finished",
		"outcome", outcome.Kind,
		"completed", outcome.Completed,
		"total", outcome.Total,
		"duration_ms", outcome.TotalDurationMs(),
	)

	return outcome, nil
}

// executeStep drives step i through its state machine and returns the output
// to carry forward. ok is false when the step failed.
func (e *Executor) executeStep(ctx context.Context, logger *slog.Logger, i int, input any) (output any, ok bool) {
	var step Step
	e.update(func(r *Run) {
		r.Steps[i].Input = input
		step = r.Steps[i]
	})
	logger = logger.With("step_id", step.ID, "entry_id", step.EntryID)

	// A started step runs to completion or timeout; run cancellation is
	// observed at the top of the loop.
	ctx, span := e.tracer.Start(context.WithoutCancel(ctx), "chain.step", trace.WithAttributes(
		attribute.String("chain.step.id", step.ID),
		attribute.String("chain.entry.id", step.EntryID),
		attribute.Int("chain.step.index", i),
	))
	defer span.End()

	if _, err := e.lookup.FindEntry(ctx, step.EntryID); err != nil {
		reason := fmt.Sprintf("%s: %s", ErrEntryMissing, step.EntryID)
		if !errors.Is(err, catalog.ErrEntryNotFound) {
			reason = fmt.Sprintf("%s (%v)", reason, err)
		}
		e.finishStep(logger, span, i, func(s *Step) error { return s.fail(reason, e.now()) })
		return nil, false
	}

	if err := e.transitionStep(i, func(s *Step) error { return s.begin(e.now()) }); err != nil {
		logger.Error("step could not start", "error", err)
		return nil, false
	}
	logger.Debug("step running")

	out, err := e.invoke(ctx, step.EntryID, input)
	if err != nil {
		e.finishStep(logger, span, i, func(s *Step) error { return s.fail(err.Error(), e.now()) })
		return nil, false
	}

	e.finishStep(logger, span, i, func(s *Step) error { return s.complete(out, e.now()) })
	return out, true
}

type invokeResult struct {
	output any
	err    error
}

// invoke calls the action provider under the step timeout. ctx must not be
// cancellable except by that timeout. Panics are converted to errors and an
// action that ignores its context is abandoned once the deadline passes.
func (e *Executor) invoke(ctx context.Context, entryID string, input any) (any, error) {
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	done := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeResult{err: fmt.Errorf("action panicked: %v", r)}
			}
		}()
		out, err := e.provider.Invoke(ctx, entryID, input)
		done <- invokeResult{output: out, err: err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("action timed out after %s: %w", e.stepTimeout, ctx.Err())
	}
}

// finishStep applies a terminal transition and records it in logs, metrics and the span.
func (e *Executor) finishStep(logger *slog.Logger, span trace.Span, i int, apply func(*Step) error) {
	var step Step
	err := e.transitionStep(i, func(s *Step) error {
		if err := apply(s); err != nil {
			return err
		}
		step = *s
		return nil
	})
	if err != nil {
		logger.Error("step transition rejected", "error", err)
		return
	}

	metrics.IncStepStatus(string(step.Status))
	metrics.ObserveStepDuration(step.Duration)
	span.SetAttributes(
		attribute.String("chain.step.status", string(step.Status)),
		attribute.Int64("chain.step.duration_ms", step.DurationMs()),
	)

	if step.Status == StatusFailed {
		span.SetStatus(codes.Error, step.Error)
		logger.Warn("step failed", "duration_ms", step.DurationMs(), "error", step.Error)
		return
	}
	span.SetStatus(codes.Ok, "")
	logger.Info("step completed", "duration_ms", step.DurationMs())
}

// transitionStep applies fn to step i under the lock and publishes on success.
func (e *Executor) transitionStep(i int, fn func(*Step) error) error {
	e.mu.Lock()
	if err := fn(&e.run.Steps[i]); err != nil {
		e.mu.Unlock()
		return err
	}
	snapshot := e.run.clone()
	e.mu.Unlock()

	e.publish(snapshot)
	return nil
}

// update mutates the run under the lock and publishes the result.
func (e *Executor) update(fn func(*Run)) {
	e.mu.Lock()
	fn(&e.run)
	snapshot := e.run.clone()
	e.mu.Unlock()

	e.publish(snapshot)
}

func (e *Executor) publish(snapshot Run) {
	if e.progressCallback != nil {
		e.progressCallback(snapshot)
	}
}

// pause waits for the inter-step delay or until ctx is done. Cancellation is
// picked up by the check at the top of the next iteration.
func (e *Executor) pause(ctx context.Context) {
	timer := time.NewTimer(e.stepDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (e *Executor) loggerFor(ctx context.Context) *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logging.FromContext(ctx)
}

// aggregate classifies a run from its step records.
func aggregate(steps []Step, cancelled bool) Outcome {
	o := Outcome{
		Total:     len(steps),
		Cancelled: cancelled,
	}
	for _, s := range steps {
		switch s.Status {
		case StatusCompleted:
			o.Completed++
		case StatusFailed:
			o.Failed++
		}
		o.TotalDuration += s.Duration
	}

	if o.Completed == o.Total {
		o.Kind = OutcomeSuccess
	} else {
		o.Kind = OutcomePartial
	}
	return o
}

func setupFailure(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err.Error()}
}
