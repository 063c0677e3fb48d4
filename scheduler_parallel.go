package tasksync

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-tasksync/clock"
)

// ParallelScheduler drives every forked task on its own goroutine,
// joined by an errgroup.Group: Fork spawns a new goroutine rather than
// queuing a continuation, Yield is runtime.Gosched(), Wait is a real
// clock.Clock.Sleep, and AcquireLock mints a real semaphore-backed
// Mutex that blocks its goroutine rather than looping. Any task
// panicking (without an enclosing TryWith) cancels the group's
// context and fails the whole Run with a *TaskError, via the same
// first-error-wins behaviour errgroup.WithContext gives any other
// fan-out of concurrent work.
type ParallelScheduler struct {
	schedulerCore
	clock clock.Clock
}

// NewParallelScheduler constructs a ParallelScheduler. WithParallelism
// is advisory only (it is never enforced as a hard cap — every forked
// task gets its own goroutine and relies on GOMAXPROCS/the Go runtime
// scheduler for actual parallelism).
func NewParallelScheduler(opts ...SchedulerOption) *ParallelScheduler {
	cfg := resolveSchedulerOptions(opts)
	return &ParallelScheduler{
		schedulerCore: newSchedulerCore(cfg),
		clock:         cfg.clock,
	}
}

// Run drives task (and everything it forks) to completion across
// goroutines, returning ErrSchedulerAlreadyRunning if this scheduler
// is already running.
func (s *ParallelScheduler) Run(ctx context.Context, task Task[Unit]) error {
	return s.runRoot(ctx, task)
}

func (s *ParallelScheduler) runRoot(ctx context.Context, task Task[Unit]) error {
	if err := s.tryStart(); err != nil {
		return err
	}
	defer s.finish()

	g, gCtx := errgroup.WithContext(ctx)
	s.metrics.addLiveTasks(1)
	s.spawn(g, gCtx, task)
	return g.Wait()
}

// spawn adds one goroutine to g that drives t, and every task it
// forks, to completion.
func (s *ParallelScheduler) spawn(g *errgroup.Group, ctx context.Context, t Task[Unit]) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &TaskError{Value: r}
			}
		}()
		return s.run(g, ctx, t)
	})
}

func (s *ParallelScheduler) run(g *errgroup.Group, ctx context.Context, t Task[Unit]) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch st := t().(type) {
		case stepDone[Unit]:
			s.metrics.addLiveTasks(-1)
			return nil

		case stepFork[Unit]:
			s.metrics.addLiveTasks(1)
			s.spawn(g, ctx, st.child)
			t = st.next

		case stepYield[Unit]:
			runtime.Gosched()
			t = st.next

		case stepWait[Unit]:
			s.clock.Sleep(st.duration)
			t = st.next

		case stepAcquireLock[Unit]:
			st.assign(newParallelMutex())
			t = st.next

		default:
			panic("tasksync: unreachable step kind")
		}
	}
}
