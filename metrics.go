package tasksync

import (
	"sync"
	"time"
)

// Metrics accumulates observability data for one or more Signals: Sync
// latency (time from a Signal's Commit/Block attempt being issued to
// its value being delivered) and a running count of completed
// rendezvous. Wrap any Signal passed to Sync with the package-level
// Track function to have its timing folded in; attach a Metrics to a
// scheduler via WithMetrics(true) to also pick up its live-task gauge,
// and retrieve the whole thing with Scheduler.Metrics.
//
// Thread safety: safe for concurrent use; all mutation goes through
// mu, matching the teacher package's metrics.go convention of a single
// coarse lock guarding a handful of counters rather than per-field
// atomics.
type Metrics struct {
	mu          sync.Mutex
	syncLatency *psquareQuantile
	syncCount   int64
	rendezvous  int64
	liveTasks   int64
}

// NewMetrics returns a Metrics tracking the p99 of Sync latency.
func NewMetrics() *Metrics {
	return &Metrics{
		syncLatency: newPsquareQuantile(0.99),
	}
}

// observeSync records the latency between a Sync call's issue and
// delivery.
func (m *Metrics) observeSync(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncLatency.Update(float64(d))
	m.syncCount++
}

// recordRendezvous increments the completed Send/Receive (or Select
// commit) counter.
func (m *Metrics) recordRendezvous() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendezvous++
}

// addLiveTasks adjusts the live-task gauge by delta, which may be
// negative. A Fork increments it by one for the child; a Done step
// decrements it for whichever task just finished.
func (m *Metrics) addLiveTasks(delta int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liveTasks += delta
}

// SyncLatencyP99 returns the current p99 estimate of Sync latency, as
// a time.Duration. While fewer than 5 samples have been seen it is
// read directly from the sorted samples; from the fifth sample on it
// is an O(1)-memory streaming approximation.
func (m *Metrics) SyncLatencyP99() time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.syncLatency.Quantile())
}

// SyncCount returns the number of Sync calls observed.
func (m *Metrics) SyncCount() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncCount
}

// RendezvousCount returns the number of completed channel rendezvous
// and Select commits observed.
func (m *Metrics) RendezvousCount() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rendezvous
}

// LiveTasks returns the current count of forked-but-not-yet-Done
// tasks known to the scheduler.
func (m *Metrics) LiveTasks() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveTasks
}

// Track wraps s so that every Commit through it that returns a value,
// and every Block through it that later delivers one, contributes to
// m's Sync latency estimate and rendezvous count. A Commit that
// returns None is not recorded. A nil
// Metrics makes Track a no-op passthrough, so instrumentation can be
// toggled by swapping in a nil *Metrics without touching call sites.
// It is a free function rather than a method because Go methods
// cannot introduce a type parameter of their own beyond the
// receiver's.
func Track[A any](m *Metrics, s Signal[A]) Signal[A] {
	if m == nil {
		return s
	}
	return trackedSignal[A]{m: m, s: s}
}

type trackedSignal[A any] struct {
	m *Metrics
	s Signal[A]
}

func (t trackedSignal[A]) Poll() bool { return t.s.Poll() }

func (t trackedSignal[A]) Commit() Task[Option[A]] {
	start := time.Now()
	return Bind(t.s.Commit(), func(o Option[A]) Task[Option[A]] {
		if o.Ok {
			t.m.observeSync(time.Since(start))
			t.m.recordRendezvous()
		}
		return Return(o)
	})
}

func (t trackedSignal[A]) Block(claim *Claim, deliver func(A)) Task[Unit] {
	start := time.Now()
	return t.s.Block(claim, func(a A) {
		t.m.observeSync(time.Since(start))
		t.m.recordRendezvous()
		deliver(a)
	})
}
