package tasksync

import (
	"context"

	"github.com/joeycumines/go-tasksync/clock"
)

// CooperativeScheduler drives every forked task on a single OS thread
// via a FIFO ready-queue, stepping one Task at a time and never
// blocking that thread. It is the scheduler to reach for when task
// trees must compose freely with plain non-reentrant Go state, since
// only one step is ever in flight: no two steps can race each other.
//
// Wait resolves by repeatedly comparing the scheduler's Clock against
// a deadline across ordinary Task-level yields (see clock.go); a lock
// minted under this scheduler is a ticket queue driven the same way
// (see newCooperativeMutex), so nothing a Task does here ever performs
// a real blocking syscall.
type CooperativeScheduler struct {
	schedulerCore
	clock clock.Clock
	queue readyQueue
}

// NewCooperativeScheduler constructs a CooperativeScheduler. Most
// callers only need WithLogger and WithMetrics; WithParallelism is
// accepted for symmetry with ParallelScheduler but logged and ignored,
// since this scheduler never runs more than one step concurrently.
func NewCooperativeScheduler(opts ...SchedulerOption) *CooperativeScheduler {
	cfg := resolveSchedulerOptions(opts)
	if cfg.parallelism > 1 && cfg.logger.IsEnabled(LevelDebug) {
		cfg.logger.Log(LogEntry{
			Level:    LevelDebug,
			Category: "scheduler",
			Message:  "WithParallelism is ignored by CooperativeScheduler",
		})
	}
	return &CooperativeScheduler{
		schedulerCore: newSchedulerCore(cfg),
		clock:         cfg.clock,
	}
}

// Run drives task to completion, returning ErrSchedulerAlreadyRunning
// if this scheduler is already running, ctx.Err() if ctx is cancelled
// before task finishes, or a *TaskError if task (or any of its forked
// children) panics without an enclosing TryWith to catch it.
func (s *CooperativeScheduler) Run(ctx context.Context, task Task[Unit]) error {
	return s.runRoot(ctx, task)
}

func (s *CooperativeScheduler) runRoot(ctx context.Context, task Task[Unit]) (err error) {
	if startErr := s.tryStart(); startErr != nil {
		return startErr
	}
	defer s.finish()

	s.queue = readyQueue{}
	s.queue.pushBack(task)
	s.metrics.addLiveTasks(1)

	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Value: r}
		}
	}()

	checkEvery := 0
	for {
		if s.queue.empty() {
			return nil
		}

		// Context cancellation is only cheap to check periodically; a
		// busy ready-queue would otherwise pay a channel-select cost
		// on every single step.
		checkEvery++
		if checkEvery%256 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		next := s.queue.popFront()
		s.step(next)
	}
}

func (s *CooperativeScheduler) step(t Task[Unit]) {
	switch st := t().(type) {
	case stepDone[Unit]:
		s.metrics.addLiveTasks(-1)

	case stepFork[Unit]:
		// The forker keeps running immediately (front of queue); the
		// child joins the back, like a newly submitted task.
		s.metrics.addLiveTasks(1)
		s.queue.pushBack(st.child)
		s.queue.pushFront(st.next)

	case stepYield[Unit]:
		s.queue.pushBack(st.next)

	case stepWait[Unit]:
		deadline := s.clock.Now().Add(st.duration)
		s.queue.pushBack(s.waitFor(deadline, st.next))

	case stepAcquireLock[Unit]:
		st.assign(newCooperativeMutex())
		s.queue.pushFront(st.next)

	default:
		panic("tasksync: unreachable step kind")
	}
}

// waitFor builds the Task that repeatedly re-queues itself as a Yield
// until the clock reaches deadline, at which point it steps into
// next. This is how Wait is resolved without ever blocking the single
// OS thread this scheduler runs on.
func (s *CooperativeScheduler) waitFor(deadline clock.Instant, next Task[Unit]) Task[Unit] {
	return Task[Unit](func() step[Unit] {
		if !s.clock.Now().Before(deadline) {
			return next()
		}
		return stepYield[Unit]{next: s.waitFor(deadline, next)}
	})
}

// readyQueue is a plain FIFO/deque of pending Task[Unit] continuations.
// It is only ever touched from the single goroutine driving runRoot,
// so it needs no locking, unlike the teacher package's ChunkedIngress.
type readyQueue struct {
	items []Task[Unit]
}

func (q *readyQueue) empty() bool { return len(q.items) == 0 }

func (q *readyQueue) pushBack(t Task[Unit]) {
	q.items = append(q.items, t)
}

func (q *readyQueue) pushFront(t Task[Unit]) {
	q.items = append(q.items, Task[Unit](nil))
	copy(q.items[1:], q.items)
	q.items[0] = t
}

func (q *readyQueue) popFront() Task[Unit] {
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t
}
