package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ipsync/internal/log"
	"ipsync/internal/metrics"
)

// Run is the handle of one admitted speed-test run. Outcome and FinishedAt
// are meaningful once Done is closed.
type Run struct {
	ID        uuid.UUID
	Addresses int
	StartedAt time.Time

	done       chan struct{}
	outcome    Status
	finishedAt time.Time
}

func newRun(addresses int) *Run {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Run{
		ID:        id,
		Addresses: addresses,
		StartedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
}

// Done is closed after the run's terminal status has been stored.
func (r *Run) Done() <-chan struct{} { return r.done }

// Outcome returns the terminal status, or Running while the run is in
// flight.
func (r *Run) Outcome() Status {
	select {
	case <-r.done:
		return r.outcome
	default:
		return Running{}
	}
}

// FinishedAt returns the completion time, or the zero time while the run
// is in flight.
func (r *Run) FinishedAt() time.Time {
	select {
	case <-r.done:
		return r.finishedAt
	default:
		return time.Time{}
	}
}

// Orchestrator admits at most one speed-test run at a time, executes it in
// the background and publishes its outcome through a StatusStore.
type Orchestrator struct {
	store      *StatusStore
	runner     Runner
	resultPath string
	logger     *slog.Logger

	mu      sync.Mutex
	current *Run
}

// NewOrchestrator wires a status store, a runner and the path of the result
// artifact the runner produces.
func NewOrchestrator(store *StatusStore, runner Runner, resultPath string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		store:      store,
		runner:     runner,
		resultPath: resultPath,
		logger:     logger,
	}
}

// Start launches a run over addresses unless one is already in flight, in
// which case the in-flight run is returned and addresses are ignored. It
// never waits for the run to finish. The run outlives ctx: values such as
// log attributes are kept, cancellation is not.
func (o *Orchestrator) Start(ctx context.Context, addresses []string) *Run {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.store.TryBegin() {
		metrics.RecordSpeedTestAdmission(false)
		if o.current != nil {
			o.logger.InfoContext(ctx, "speedtest_joined", "run_id", o.current.ID.String())
		}
		return o.current
	}

	run := newRun(len(addresses))
	o.current = run
	metrics.RecordSpeedTestAdmission(true)

	runCtx := log.ContextAttrs(context.WithoutCancel(ctx), slog.String("run_id", run.ID.String()))
	o.logger.InfoContext(runCtx, "speedtest_started", "addresses", run.Addresses)

	go o.execute(runCtx, run, append([]string(nil), addresses...))

	return run
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, addresses []string) {
	status := o.runSafely(ctx, addresses)

	run.outcome = status
	run.finishedAt = time.Now().UTC()
	if err := o.store.Finish(status); err != nil {
		o.logger.ErrorContext(ctx, "speedtest_finish_failed", "error", err)
	}

	elapsed := run.finishedAt.Sub(run.StartedAt)
	switch s := status.(type) {
	case Succeeded:
		metrics.RecordSpeedTestRun("succeeded", elapsed.Milliseconds())
		o.logger.InfoContext(ctx, "speedtest_finished", "elapsed_ms", elapsed.Milliseconds())
	case Failed:
		metrics.RecordSpeedTestRun("failed", elapsed.Milliseconds())
		o.logger.ErrorContext(ctx, "speedtest_failed", "elapsed_ms", elapsed.Milliseconds(), "error", s.Message)
	case Idle, Running:
		// runSafely only returns terminal values
	}

	close(run.done)
}

func (o *Orchestrator) runSafely(ctx context.Context, addresses []string) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			status = Failed{Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if err := o.runner.Run(ctx, addresses); err != nil {
		return Failed{Message: err.Error()}
	}
	return Succeeded{}
}

// Status returns the current status. When the last run failed, the
// failure is reported as a *FailedError carrying its message.
func (o *Orchestrator) Status() (Status, error) {
	switch s := o.store.Load().(type) {
	case Failed:
		return s, &FailedError{Message: s.Message}
	case Idle, Running, Succeeded:
		return s, nil
	default:
		return s, fmt.Errorf("unknown status %T", s)
	}
}

// Collect reads the result artifact and returns its valid rows. It does
// not look at the run status.
func (o *Orchestrator) Collect(ctx context.Context) ([]Row, error) {
	rows, err := ReadResults(o.resultPath)
	if err != nil {
		metrics.RecordResultRead(false, 0)
		o.logger.WarnContext(ctx, "speedtest_results_unavailable", "error", err)
		return nil, err
	}
	metrics.RecordResultRead(true, len(rows))
	return rows, nil
}

// Current returns the most recently admitted run, or nil.
func (o *Orchestrator) Current() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Wait blocks until the most recently admitted run is done or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) error {
	run := o.Current()
	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
