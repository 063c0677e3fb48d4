package tasksync

// Releasable is the scoped-release contract consumed by Using. A
// Releasable's Release is itself a Task, so releasing a resource
// participates in scheduling exactly like any other effect instead of
// running synchronously at construction time. Implementations should
// tolerate at most one successful Release; a second call is a
// programming error (see ErrDoubleRelease).
type Releasable interface {
	Release() Task[Unit]
}

// TryWith catches any failure raised while stepping body, or any of
// the continuations body emits, and steps into handler(err) instead.
// It is transparently pushed into every scheduling node body emits, so
// a failure surfacing many ticks after body was first stepped is still
// caught by the same handler.
func TryWith[A any](body Task[A], handler func(err any) Task[A]) Task[A] {
	return Task[A](func() (result step[A]) {
		defer func() {
			if r := recover(); r != nil {
				result = handler(r)()
			}
		}()
		switch s := body().(type) {
		case stepDone[A]:
			return s
		case stepFork[A]:
			return stepFork[A]{child: s.child, next: TryWith(s.next, handler)}
		case stepYield[A]:
			return stepYield[A]{next: TryWith(s.next, handler)}
		case stepWait[A]:
			return stepWait[A]{duration: s.duration, next: TryWith(s.next, handler)}
		case stepAcquireLock[A]:
			return stepAcquireLock[A]{assign: s.assign, next: TryWith(s.next, handler)}
		default:
			panic("tasksync: unreachable step kind")
		}
	})
}

// tryOutcome records whether body produced a value or raised a
// failure, so TryFinally can run its finalizer on either path and then
// re-surface whichever outcome body had.
type tryOutcome[A any] struct {
	value A
	err   any
	ok    bool
}

// TryFinally runs finalizer exactly once after body completes, on
// both the success and the failure path, then re-surfaces body's
// outcome: body's value if it completed normally, or body's failure
// (re-raised, so an enclosing TryWith still observes it) otherwise.
func TryFinally[A any](body Task[A], finalizer Task[Unit]) Task[A] {
	guarded := TryWith(
		Bind(body, func(a A) Task[tryOutcome[A]] {
			return Return(tryOutcome[A]{value: a, ok: true})
		}),
		func(err any) Task[tryOutcome[A]] {
			return Return(tryOutcome[A]{err: err})
		},
	)
	return Bind(guarded, func(outcome tryOutcome[A]) Task[A] {
		return Bind(finalizer, func(Unit) Task[A] {
			if outcome.ok {
				return Return(outcome.value)
			}
			return Task[A](func() step[A] {
				panic(outcome.err)
			})
		})
	})
}

// Using acquires resource and guarantees body's finalizer (resource's
// Release) runs exactly once, whether body completes normally or
// raises.
func Using[R Releasable, A any](resource R, body func(R) Task[A]) Task[A] {
	return TryFinally(body(resource), resource.Release())
}

// WithLock acquires lock, runs body once the acquisition completes,
// and releases the lock on every exit path. It is derived entirely
// from Bind and Using and carries no semantics of its own beyond
// threading the acquired handle through to the finalizer.
func WithLock[A any](lock Mutex, body func() Task[A]) Task[A] {
	return Bind(lock.Acquire(), func(h Releasable) Task[A] {
		return Using(h, func(Releasable) Task[A] {
			return body()
		})
	})
}

// While repeatedly evaluates pred; while it returns true, runs body
// and loops. pred is re-evaluated fresh before every iteration,
// including the first, via Delay so construction itself has no
// side effect.
func While(pred func() bool, body Task[Unit]) Task[Unit] {
	return Delay(func() Task[Unit] {
		if !pred() {
			return Return(Unit{})
		}
		return Bind(body, func(Unit) Task[Unit] {
			return While(pred, body)
		})
	})
}

// For runs fn(item) for every item in seq, in order, sequencing each
// via Bind so a later item's task is only constructed once the
// previous one has completed.
func For[T any](seq []T, fn func(T) Task[Unit]) Task[Unit] {
	return Delay(func() Task[Unit] {
		if len(seq) == 0 {
			return Return(Unit{})
		}
		head, rest := seq[0], seq[1:]
		return Bind(fn(head), func(Unit) Task[Unit] {
			return For(rest, fn)
		})
	})
}
