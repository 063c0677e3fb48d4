package tasksync

import "sync/atomic"

// Channel[A] is a synchronous rendezvous point: a Send and a Receive
// complete in a single coordinated step, with no buffering (capacity
// is always zero — this is a CSP/Go-style channel, not a queue).
// NewChannel is the only constructor; there is no capacity argument,
// deliberately, per spec.md's Non-goal of buffered backpressure.
//
// A Channel holds only its lock (a Mutex, minted the same way any
// standalone lock is — see RequestLock) and two FIFO queues of pending
// subscriptions. Send and Receive return Signals; all of the
// coordination logic lives in those Signals' Commit and Block, run
// under the channel's lock.
type Channel[A any] struct {
	lock    Mutex
	logger  Logger
	limiter contentionLimiter

	senders      []senderEntry[A]
	receivers    []receiverEntry[A]
	sendersLen   atomic.Int64
	receiversLen atomic.Int64
}

// contentionLimiter is the narrow interface Channel needs from a rate
// limiter; satisfied by *internal ratelimit.Limiter, and trivially
// satisfiable by a test double.
type contentionLimiter interface {
	Allow() bool
}

type senderEntry[A any] struct {
	claim  *Claim
	notify func(Unit)
	value  A
}

type receiverEntry[A any] struct {
	claim   *Claim
	deliver func(A)
}

// NewChannel mints a Channel's lock via RequestLock and returns the
// channel, ready for use. Building a channel is therefore itself a
// Task, since minting its lock requires whichever scheduler drives
// this Task to choose the concrete Mutex implementation appropriate
// to itself.
func NewChannel[A any](opts ...ChannelOption) Task[*Channel[A]] {
	cfg := resolveChannelOptions(opts)
	return Bind(RequestLock(), func(lock Mutex) Task[*Channel[A]] {
		return Return(&Channel[A]{
			lock:    lock,
			logger:  cfg.logger,
			limiter: cfg.limiter,
		})
	})
}

// Send returns a Signal that, when synced, offers value to a matching
// Receive. The Signal is single-use: once it fires, that particular
// Signal value has nothing left to offer.
func (ch *Channel[A]) Send(value A) Signal[Unit] {
	return &sendSignal[A]{ch: ch, value: value}
}

// Receive returns a Signal that, when synced, accepts a value from a
// matching Send.
func (ch *Channel[A]) Receive() Signal[A] {
	return &receiveSignal[A]{ch: ch}
}

func (ch *Channel[A]) logContention(op string) {
	if ch.logger == nil || !ch.logger.IsEnabled(LevelDebug) {
		return
	}
	if ch.limiter != nil && !ch.limiter.Allow() {
		return
	}
	ch.logger.Log(LogEntry{
		Level:    LevelDebug,
		Category: "channel",
		Message:  op + ": retrying contended claim",
	})
}

func (ch *Channel[A]) appendSenderLocked(claim *Claim, notify func(Unit), value A) {
	ch.senders = append(ch.senders, senderEntry[A]{claim: claim, notify: notify, value: value})
	ch.sendersLen.Store(int64(len(ch.senders)))
}

func (ch *Channel[A]) popFrontSenderLocked() {
	ch.senders = ch.senders[1:]
	ch.sendersLen.Store(int64(len(ch.senders)))
}

func (ch *Channel[A]) removeSenderAtLocked(i int) {
	ch.senders = append(ch.senders[:i], ch.senders[i+1:]...)
	ch.sendersLen.Store(int64(len(ch.senders)))
}

func (ch *Channel[A]) findOtherSenderLocked(mine *Claim) (int, bool) {
	for i := range ch.senders {
		if ch.senders[i].claim != mine {
			return i, true
		}
	}
	return 0, false
}

func (ch *Channel[A]) appendReceiverLocked(claim *Claim, deliver func(A)) {
	ch.receivers = append(ch.receivers, receiverEntry[A]{claim: claim, deliver: deliver})
	ch.receiversLen.Store(int64(len(ch.receivers)))
}

func (ch *Channel[A]) popFrontReceiverLocked() {
	ch.receivers = ch.receivers[1:]
	ch.receiversLen.Store(int64(len(ch.receivers)))
}

func (ch *Channel[A]) removeReceiverAtLocked(i int) {
	ch.receivers = append(ch.receivers[:i], ch.receivers[i+1:]...)
	ch.receiversLen.Store(int64(len(ch.receivers)))
}

func (ch *Channel[A]) findOtherReceiverLocked(mine *Claim) (int, bool) {
	for i := range ch.receivers {
		if ch.receivers[i].claim != mine {
			return i, true
		}
	}
	return 0, false
}

// --- Send ---

type sendSignal[A any] struct {
	ch    *Channel[A]
	value A
}

// Poll is a best-effort, lock-free probe: are there receivers queued
// right now? It deliberately bypasses the channel's lock (reading an
// atomically-maintained counter instead), trading a little staleness
// for letting the common case — a counterpart is already waiting — skip
// any queue manipulation whatsoever.
func (s *sendSignal[A]) Poll() bool {
	return s.ch.receiversLen.Load() > 0
}

func (s *sendSignal[A]) Commit() Task[Option[Unit]] {
	return WithLock(s.ch.lock, func() Task[Option[Unit]] {
		return s.ch.commitSendLocked(s.value)
	})
}

func (ch *Channel[A]) commitSendLocked(value A) Task[Option[Unit]] {
	return Delay(func() Task[Option[Unit]] {
		if len(ch.receivers) == 0 {
			return Return(None[Unit]())
		}
		r := ch.receivers[0]
		switch {
		case r.claim.TryTransition(ClaimWaiting, ClaimSynced):
			ch.popFrontReceiverLocked()
			r.deliver(value)
			return Return(Some(Unit{}))
		case r.claim.Load() == ClaimSynced:
			ch.popFrontReceiverLocked()
			return ch.commitSendLocked(value)
		default: // ClaimClaimed: a concurrent commit/block is mid-flight on this receiver.
			ch.logContention("send-commit")
			return Bind(YieldOnce(), func(Unit) Task[Option[Unit]] {
				return ch.commitSendLocked(value)
			})
		}
	})
}

func (s *sendSignal[A]) Block(myClaim *Claim, notifySender func(Unit)) Task[Unit] {
	return WithLock(s.ch.lock, func() Task[Unit] {
		return s.ch.blockSendLocked(myClaim, notifySender, s.value)
	})
}

func (ch *Channel[A]) blockSendLocked(myClaim *Claim, notifySender func(Unit), value A) Task[Unit] {
	return Delay(func() Task[Unit] {
		idx, found := ch.findOtherReceiverLocked(myClaim)
		if !found {
			ch.appendSenderLocked(myClaim, notifySender, value)
			return Return(Unit{})
		}
		other := ch.receivers[idx]
		if !myClaim.TryTransition(ClaimWaiting, ClaimClaimed) {
			// Someone else already claimed us (e.g. via Choose's shared
			// claim). Abandon without touching the candidate receiver.
			return Return(Unit{})
		}
		switch {
		case other.claim.TryTransition(ClaimWaiting, ClaimSynced):
			myClaim.TryTransition(ClaimClaimed, ClaimSynced)
			ch.removeReceiverAtLocked(idx)
			notifySender(Unit{})
			other.deliver(value)
			return Return(Unit{})
		case other.claim.Load() == ClaimSynced:
			myClaim.TryTransition(ClaimClaimed, ClaimWaiting)
			ch.removeReceiverAtLocked(idx)
			return ch.blockSendLocked(myClaim, notifySender, value)
		default: // other is ClaimClaimed
			myClaim.TryTransition(ClaimClaimed, ClaimWaiting)
			ch.logContention("send-block")
			return Bind(YieldOnce(), func(Unit) Task[Unit] {
				return ch.blockSendLocked(myClaim, notifySender, value)
			})
		}
	})
}

// --- Receive ---

type receiveSignal[A any] struct {
	ch *Channel[A]
}

func (r *receiveSignal[A]) Poll() bool {
	return r.ch.sendersLen.Load() > 0
}

func (r *receiveSignal[A]) Commit() Task[Option[A]] {
	return WithLock(r.ch.lock, func() Task[Option[A]] {
		return r.ch.commitReceiveLocked()
	})
}

func (ch *Channel[A]) commitReceiveLocked() Task[Option[A]] {
	return Delay(func() Task[Option[A]] {
		if len(ch.senders) == 0 {
			return Return(None[A]())
		}
		s := ch.senders[0]
		switch {
		case s.claim.TryTransition(ClaimWaiting, ClaimSynced):
			ch.popFrontSenderLocked()
			s.notify(Unit{})
			return Return(Some(s.value))
		case s.claim.Load() == ClaimSynced:
			ch.popFrontSenderLocked()
			return ch.commitReceiveLocked()
		default:
			ch.logContention("receive-commit")
			return Bind(YieldOnce(), func(Unit) Task[Option[A]] {
				return ch.commitReceiveLocked()
			})
		}
	})
}

func (r *receiveSignal[A]) Block(myClaim *Claim, deliver func(A)) Task[Unit] {
	return WithLock(r.ch.lock, func() Task[Unit] {
		return r.ch.blockReceiveLocked(myClaim, deliver)
	})
}

func (ch *Channel[A]) blockReceiveLocked(myClaim *Claim, deliver func(A)) Task[Unit] {
	return Delay(func() Task[Unit] {
		idx, found := ch.findOtherSenderLocked(myClaim)
		if !found {
			ch.appendReceiverLocked(myClaim, deliver)
			return Return(Unit{})
		}
		other := ch.senders[idx]
		if !myClaim.TryTransition(ClaimWaiting, ClaimClaimed) {
			return Return(Unit{})
		}
		switch {
		case other.claim.TryTransition(ClaimWaiting, ClaimSynced):
			myClaim.TryTransition(ClaimClaimed, ClaimSynced)
			ch.removeSenderAtLocked(idx)
			other.notify(Unit{})
			deliver(other.value)
			return Return(Unit{})
		case other.claim.Load() == ClaimSynced:
			myClaim.TryTransition(ClaimClaimed, ClaimWaiting)
			ch.removeSenderAtLocked(idx)
			return ch.blockReceiveLocked(myClaim, deliver)
		default:
			myClaim.TryTransition(ClaimClaimed, ClaimWaiting)
			ch.logContention("receive-block")
			return Bind(YieldOnce(), func(Unit) Task[Unit] {
				return ch.blockReceiveLocked(myClaim, deliver)
			})
		}
	})
}
