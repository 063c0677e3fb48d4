package tasksync

import "sync/atomic"

// Mutex is a FIFO lock whose Acquire is a task-level operation. A
// Mutex is always minted by a scheduler (via RequestLock/NewMutex, or
// implicitly by NewChannel), which chooses the concrete implementation
// appropriate to itself: the cooperative scheduler mints a ticket
// queue driven entirely by Task-level yields, while the parallel
// scheduler mints a real semaphore that blocks the acquiring
// goroutine. Both satisfy identical FIFO-acquire, mutual-exclusion,
// and scoped-release semantics; see CooperativeScheduler and
// ParallelScheduler for which is used where.
type Mutex interface {
	// Acquire suspends until this caller reaches the head of the
	// queue, then steps to a Releasable handle. Using(handle, body)
	// guarantees the lock is released on every exit path from body.
	Acquire() Task[Releasable]
}

// newCooperativeMutex mints a ticket-queue Mutex: Acquire assigns the
// caller the next ticket and then loops, yielding once per attempt,
// until that ticket reaches the head. Because every wait step is a
// plain Task-level Yield rather than a real block, this is safe to
// drive from the single OS thread the cooperative scheduler uses —
// unlike a real blocking lock, it can never deadlock that thread
// against itself.
func newCooperativeMutex() Mutex {
	return &cooperativeMutex{}
}

type cooperativeMutex struct {
	mu   spinMu
	next uint64
	head uint64
}

// spinMu is a tiny non-blocking mutual-exclusion helper used only to
// guard the handful of uint64 fields above; it is never held across a
// Task-level Yield, so an ordinary sync.Mutex would do equally well,
// but a CAS spin keeps the bookkeeping here consistent with the
// compare-and-swap style used throughout the rest of the package.
type spinMu struct {
	locked atomic.Bool
}

func (m *spinMu) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
	}
}

func (m *spinMu) Unlock() {
	m.locked.Store(false)
}

func (m *cooperativeMutex) Acquire() Task[Releasable] {
	return Delay(func() Task[Releasable] {
		m.mu.Lock()
		ticket := m.next
		m.next++
		m.mu.Unlock()
		return m.waitTurn(ticket)
	})
}

func (m *cooperativeMutex) waitTurn(ticket uint64) Task[Releasable] {
	return Delay(func() Task[Releasable] {
		m.mu.Lock()
		head := m.head
		m.mu.Unlock()
		if head == ticket {
			return Return[Releasable](&cooperativeMutexHandle{m: m, ticket: ticket})
		}
		return Bind(YieldOnce(), func(Unit) Task[Releasable] {
			return m.waitTurn(ticket)
		})
	})
}

type cooperativeMutexHandle struct {
	m        *cooperativeMutex
	ticket   uint64
	released atomic.Bool
}

func (h *cooperativeMutexHandle) Release() Task[Unit] {
	return Task[Unit](func() step[Unit] {
		if !h.released.CompareAndSwap(false, true) {
			panic(ErrDoubleRelease)
		}
		h.m.mu.Lock()
		h.m.head++
		h.m.mu.Unlock()
		return stepDone[Unit]{value: Unit{}}
	})
}

// newParallelMutex mints a semaphore-backed Mutex: Acquire performs a
// real blocking receive on a capacity-1 channel. This is safe under
// the parallel scheduler because every Task chain runs on its own
// goroutine there, so blocking one goroutine never starves the others.
// Go's runtime wakes blocked channel receivers in the order they
// arrived, so acquisition order matches arrival order in practice,
// though this is the OS/runtime's ordering rather than an
// explicit FIFO queue, as spec.md notes for the multi-threaded case.
func newParallelMutex() Mutex {
	m := &parallelMutex{sem: make(chan struct{}, 1)}
	m.sem <- struct{}{}
	return m
}

type parallelMutex struct {
	sem chan struct{}
}

func (m *parallelMutex) Acquire() Task[Releasable] {
	return Task[Releasable](func() step[Releasable] {
		<-m.sem
		return stepDone[Releasable]{value: &parallelMutexHandle{m: m}}
	})
}

type parallelMutexHandle struct {
	m        *parallelMutex
	released atomic.Bool
}

func (h *parallelMutexHandle) Release() Task[Unit] {
	return Task[Unit](func() step[Unit] {
		if !h.released.CompareAndSwap(false, true) {
			panic(ErrDoubleRelease)
		}
		h.m.sem <- struct{}{}
		return stepDone[Unit]{value: Unit{}}
	})
}
