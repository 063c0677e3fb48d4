package tasksync

import (
	"context"
	"sync/atomic"
)

// schedulerState is the small state machine both scheduler
// implementations share: Idle -> Running -> Idle, CAS-driven,
// mirroring the teacher package's FastState/LoopState pattern but
// reduced to the two states a Run call actually passes through (no
// Sleeping/Awake/Terminated distinction, since neither scheduler here
// idles on an I/O poller, and a scheduler may drive a fresh Run call
// once a prior one has returned — Run describes one root Task's
// lifetime, not the scheduler's).
type schedulerState int32

const (
	schedulerIdle schedulerState = iota
	schedulerRunning
)

// Scheduler is the common interface both CooperativeScheduler and
// ParallelScheduler satisfy: driving a Task[Unit] to completion.
// runRoot is unexported because there are, by construction, only two
// implementations of this package's task interpreter; external code
// only ever calls the generic Run helper below, or a scheduler's own
// Run method for a Task[Unit] directly.
type Scheduler interface {
	runRoot(ctx context.Context, task Task[Unit]) error
	Metrics() *Metrics
}

// Run drives task to completion on s and returns its result. It
// adapts an arbitrary Task[A] to the Task[Unit] both schedulers'
// ready-queues hold, by sequencing a final step that stashes the
// result into a private cell and reads it back out once runRoot
// returns successfully.
func Run[A any](ctx context.Context, s Scheduler, task Task[A]) (A, error) {
	cell := &resultCell[A]{}
	root := Bind(task, func(a A) Task[Unit] {
		return Task[Unit](func() step[Unit] {
			cell.set(a)
			return stepDone[Unit]{value: Unit{}}
		})
	})
	if err := s.runRoot(ctx, root); err != nil {
		var zero A
		return zero, err
	}
	v, _ := cell.get()
	return v, nil
}

// schedulerCore holds the fields every scheduler constructor resolves
// from SchedulerOption the same way, so CooperativeScheduler and
// ParallelScheduler need not duplicate option-resolution logic.
type schedulerCore struct {
	state   atomic.Int32
	logger  Logger
	metrics *Metrics
}

func newSchedulerCore(cfg *schedulerOptions) schedulerCore {
	var m *Metrics
	if cfg.metrics {
		m = NewMetrics()
	}
	return schedulerCore{logger: cfg.logger, metrics: m}
}

func (c *schedulerCore) tryStart() error {
	if !c.state.CompareAndSwap(int32(schedulerIdle), int32(schedulerRunning)) {
		return ErrSchedulerAlreadyRunning
	}
	return nil
}

func (c *schedulerCore) finish() {
	c.state.Store(int32(schedulerIdle))
}

// Metrics returns the scheduler's Metrics, or nil if WithMetrics(true)
// was not supplied at construction.
func (c *schedulerCore) Metrics() *Metrics {
	return c.metrics
}
