package tasksync

import "time"

// afterSignal returns a one-shot Signal that becomes committable only
// once d has elapsed. It has no counterpart to rendezvous with: Poll
// always reports false (so Sync always installs a real subscription)
// and Block spawns a sibling task that waits out the duration before
// delivering, honoring whatever claim it was given so it composes
// correctly inside Choose.
func afterSignal(d time.Duration) Signal[Unit] {
	return afterSig{d: d}
}

type afterSig struct {
	d time.Duration
}

func (afterSig) Poll() bool { return false }

func (afterSig) Commit() Task[Option[Unit]] {
	return Return(None[Unit]())
}

func (a afterSig) Block(claim *Claim, deliver func(Unit)) Task[Unit] {
	return Fork(Bind(Wait(a.d), func(Unit) Task[Unit] {
		return Delay(func() Task[Unit] {
			if claim.TryTransition(ClaimWaiting, ClaimSynced) {
				deliver(Unit{})
			}
			return Return(Unit{})
		})
	}))
}

// TimeOut wraps signal so that Sync returns Some(value) if the
// rendezvous completes within d, or None if d elapses first. It is
// built from Choose over a one-shot timer signal, matching the
// convenience TimeOut combinator described alongside the core's
// Wait-based timing primitive: the core itself exposes no other
// cancellation mechanism.
func TimeOut[A any](d time.Duration, signal Signal[A]) Signal[Option[A]] {
	hit := Map(func(a A) Option[A] { return Some(a) }, signal)
	miss := Map(func(Unit) Option[A] { return None[A]() }, afterSignal(d))
	return Choose(hit, miss)
}
