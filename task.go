package tasksync

import "time"

// Unit is the empty value, used wherever a Task or Signal carries no
// meaningful result (e.g. the continuation spawned by Fork, or a
// successful Send).
type Unit struct{}

// step is the result of evaluating a Task one level. It is one of
// stepDone, stepFork, stepYield, stepWait or stepAcquireLock. Only the
// schedulers in this package ever inspect a step; user code never
// constructs one directly.
type step[A any] interface {
	isStep()
}

// stepDone is a terminal step carrying the task's result value.
type stepDone[A any] struct {
	value A
}

func (stepDone[A]) isStep() {}

// stepFork spawns child as a sibling task and continues the forking
// task as next.
type stepFork[A any] struct {
	child Task[Unit]
	next  Task[A]
}

func (stepFork[A]) isStep() {}

// stepYield voluntarily relinquishes control, resuming as next.
type stepYield[A any] struct {
	next Task[A]
}

func (stepYield[A]) isStep() {}

// stepWait resumes as next no earlier than duration from the moment
// the step was produced.
type stepWait[A any] struct {
	duration time.Duration
	next     Task[A]
}

func (stepWait[A]) isStep() {}

// stepAcquireLock requests a fresh Mutex from whichever scheduler is
// driving the task. assign is invoked with the minted handle once the
// scheduler has constructed it; next then resumes.
type stepAcquireLock[A any] struct {
	assign func(Mutex)
	next   Task[A]
}

func (stepAcquireLock[A]) isStep() {}

// Task[A] is an immutable description of a computation producing a
// value of type A: a pure function from "no input" to a step result.
// Stepping the same Task twice is legal and must produce equivalent
// step results, excluding any observable effects a user explicitly
// encoded inside a Delay thunk. Every control-flow primitive in this
// package (Bind, TryWith, TryFinally, Using, While, For) is derived
// from Return, Delay, Bind and the scheduling nodes below, so that
// property holds for composite tasks too.
type Task[A any] func() step[A]

// Return builds a Task that steps immediately to Done(a). It performs
// no side effect of its own, so unlike the composition primitives it
// needs no Delay wrapper.
func Return[A any](a A) Task[A] {
	return Task[A](func() step[A] {
		return stepDone[A]{value: a}
	})
}

// Delay wraps a thunk that produces a Task. Stepping the returned Task
// evaluates thunk and steps its result. Every primitive that would
// otherwise run a side effect at construction time (rather than at
// step time) must be expressed through Delay, preserving the
// referential-transparency invariant of Task trees.
func Delay[A any](thunk func() Task[A]) Task[A] {
	return Task[A](func() step[A] {
		return thunk()()
	})
}

// Bind sequences source and a continuation k. When source steps to
// Done(v), the result steps to k(v). When source steps to any
// scheduling node (Fork, Yield, Wait, AcquireLock), Bind commutes past
// it: the same node is re-emitted with its "next" field wrapped in a
// further Bind(next, k).
func Bind[A, B any](source Task[A], k func(A) Task[B]) Task[B] {
	return Task[B](func() step[B] {
		switch s := source().(type) {
		case stepDone[A]:
			return k(s.value)()
		case stepFork[A]:
			return stepFork[B]{child: s.child, next: Bind(s.next, k)}
		case stepYield[A]:
			return stepYield[B]{next: Bind(s.next, k)}
		case stepWait[A]:
			return stepWait[B]{duration: s.duration, next: Bind(s.next, k)}
		case stepAcquireLock[A]:
			return stepAcquireLock[B]{assign: s.assign, next: Bind(s.next, k)}
		default:
			panic("tasksync: unreachable step kind")
		}
	})
}

// Fork builds a Task that, in one step, spawns task as a sibling and
// continues as Done(unit). The interpreter's ready-queue policy
// decides the relative order in which the forker and the child run
// next; see the scheduler documentation for the chosen policy.
func Fork(task Task[Unit]) Task[Unit] {
	return Task[Unit](func() step[Unit] {
		return stepFork[Unit]{child: task, next: Return(Unit{})}
	})
}

// YieldOnce builds a Task that, in one step, relinquishes control and
// resumes as Done(unit) on the scheduler's next opportunity.
func YieldOnce() Task[Unit] {
	return Task[Unit](func() step[Unit] {
		return stepYield[Unit]{next: Return(Unit{})}
	})
}

// Wait builds a Task that, in one step, suspends for at least duration
// before resuming as Done(unit).
func Wait(duration time.Duration) Task[Unit] {
	return Task[Unit](func() step[Unit] {
		return stepWait[Unit]{duration: duration, next: Return(Unit{})}
	})
}

// RequestLock builds a Task that asks whichever scheduler is driving
// it to mint a fresh Mutex, and steps to that handle once granted.
// Most callers will not call RequestLock directly: channels mint their
// own lock this way, and standalone locks are more conveniently
// obtained through NewMutex.
func RequestLock() Task[Mutex] {
	return Task[Mutex](func() step[Mutex] {
		var handle Mutex
		assign := func(m Mutex) { handle = m }
		next := Task[Mutex](func() step[Mutex] {
			return stepDone[Mutex]{value: handle}
		})
		return stepAcquireLock[Mutex]{assign: assign, next: next}
	})
}

// NewMutex is RequestLock under a name that reads better at call
// sites that only want a fresh, independent lock rather than the raw
// scheduling primitive.
func NewMutex() Task[Mutex] {
	return RequestLock()
}
