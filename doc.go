// Package tasksync provides a cooperative concurrency runtime built on
// three composable primitives: [Task], a lazily-stepped effect tree;
// [Signal], a first-class synchronizable event combinable via [Choose]
// and [Select]; and [Channel], a synchronous CSP-style rendezvous
// point with zero capacity.
//
// # Architecture
//
// A [Task] is a pure description of a computation: stepping it
// produces either a final value or a scheduling node (Fork, Yield,
// Wait, or a lock request) that names what should happen next. Two
// interchangeable interpreters, [CooperativeScheduler] and
// [ParallelScheduler], drive those step trees to completion with
// identical observable Send/Receive/Sync semantics: the cooperative
// scheduler runs every task on one OS thread via a FIFO ready-queue
// and never performs a blocking syscall, while the parallel scheduler
// gives every forked task its own goroutine joined by an
// [errgroup.Group].
//
// A [Signal] names an event that may or may not be ready to fire.
// [Sync] is the commitment protocol: poll for an already-waiting
// counterpart, attempt an atomic Commit, and fall back to subscribing
// via Block otherwise. [Claim] is the tri-state cell ([ClaimWaiting],
// [ClaimClaimed], [ClaimSynced]) that guarantees a [Choose] between
// several Signals delivers exactly once, no matter which branch wins.
//
// [Channel] is built on the same primitives: its internal lock is a
// task-level [Mutex] (minted via [RequestLock], just like any
// standalone lock), not a raw sync.Mutex, because a real OS mutex held
// across a Task-level Yield would deadlock the cooperative scheduler's
// single thread.
//
// # Thread Safety
//
//   - Task trees are immutable and side-effect-free at construction;
//     all effects happen at step time, which only ever happens inside
//     whichever scheduler is driving the run.
//   - Signal, Claim and Mutex implementations are safe to share across
//     however many Task chains a [ParallelScheduler] concurrently
//     drives; [CooperativeScheduler] never drives more than one step
//     at a time, so its own locks are pure bookkeeping.
//   - [Logger] implementations and [Metrics] are safe for concurrent
//     use from either scheduler.
//
// # Usage
//
//	sched := tasksync.NewCooperativeScheduler()
//
//	program := tasksync.Bind(tasksync.NewChannel[int](), func(ch *tasksync.Channel[int]) tasksync.Task[int] {
//	    return tasksync.Bind(tasksync.Fork(tasksync.Bind(tasksync.Sync(ch.Send(42)), func(tasksync.Unit) tasksync.Task[tasksync.Unit] {
//	        return tasksync.Return(tasksync.Unit{})
//	    })), func(tasksync.Unit) tasksync.Task[int] {
//	        return tasksync.Sync(ch.Receive())
//	    })
//	})
//
//	result, err := tasksync.Run(context.Background(), sched, program)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result) // 42
//
// A complete walkthrough lives in example_test.go: ping-pong over one
// channel (run under both schedulers), a three-way [Select],
// cooperative mutex fairness, a [TimeOut] with no sender, a failure
// propagating through scheduling nodes, and a [Choose] over two
// receives on one channel.
package tasksync
