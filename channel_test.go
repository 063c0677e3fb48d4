package tasksync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestChannel[A any](t *testing.T, sched Scheduler) *Channel[A] {
	t.Helper()
	ch, err := Run[*Channel[A]](context.Background(), sched, NewChannel[A]())
	require.NoError(t, err)
	return ch
}

func TestChannelPingPong(t *testing.T) {
	sched := NewCooperativeScheduler()
	ctx := context.Background()
	ch := newTestChannel[string](t, sched)

	var got []string
	ping := Bind(Sync(ch.Send("ping")), func(Unit) Task[Unit] { return Return(Unit{}) })
	pong := Bind(Sync(ch.Receive()), func(s string) Task[Unit] {
		return Task[Unit](func() step[Unit] {
			got = append(got, s)
			return stepDone[Unit]{value: Unit{}}
		})
	})

	program := Bind(Fork(ping), func(Unit) Task[Unit] { return pong })
	require.NoError(t, sched.Run(ctx, program))
	require.Equal(t, []string{"ping"}, got)
}

func TestChannelReceiveBeforeSendBlocksThenDelivers(t *testing.T) {
	sched := NewCooperativeScheduler()
	ctx := context.Background()
	ch := newTestChannel[int](t, sched)

	var got int
	receiver := Bind(Sync(ch.Receive()), func(n int) Task[Unit] {
		return Task[Unit](func() step[Unit] {
			got = n
			return stepDone[Unit]{value: Unit{}}
		})
	})
	sender := Bind(YieldOnce(), func(Unit) Task[Unit] {
		return Bind(Sync(ch.Send(99)), func(Unit) Task[Unit] { return Return(Unit{}) })
	})

	program := Bind(Fork(sender), func(Unit) Task[Unit] { return receiver })
	require.NoError(t, sched.Run(ctx, program))
	require.Equal(t, 99, got)
}

func TestChannelFIFOOrderingOfMultipleReceivers(t *testing.T) {
	sched := NewCooperativeScheduler()
	ctx := context.Background()
	ch := newTestChannel[int](t, sched)

	var order []int
	recv := func(tag int) Task[Unit] {
		return Bind(Sync(ch.Receive()), func(n int) Task[Unit] {
			return Task[Unit](func() step[Unit] {
				order = append(order, tag)
				return stepDone[Unit]{value: Unit{}}
			})
		})
	}
	send := func(v int) Task[Unit] {
		return Bind(Sync(ch.Send(v)), func(Unit) Task[Unit] { return Return(Unit{}) })
	}

	// The forker keeps going, so send(20) runs first and queues as a
	// sender; receiver 1 then takes that value, receiver 2 queues, and
	// send(10) delivers to it. Receivers are served in the order forked.
	program := Bind(Fork(recv(1)), func(Unit) Task[Unit] {
		return Bind(Fork(recv(2)), func(Unit) Task[Unit] {
			return Bind(Fork(send(10)), func(Unit) Task[Unit] {
				return send(20)
			})
		})
	})

	require.NoError(t, sched.Run(ctx, program))
	require.Equal(t, []int{1, 2}, order)
}

func TestChannelOnParallelScheduler(t *testing.T) {
	sched := NewParallelScheduler()
	ctx := context.Background()
	ch := newTestChannel[int](t, sched)

	resultCh := make(chan int, 1)
	sender := Bind(Sync(ch.Send(123)), func(Unit) Task[Unit] { return Return(Unit{}) })
	receiver := Bind(Sync(ch.Receive()), func(n int) Task[Unit] {
		return Task[Unit](func() step[Unit] {
			resultCh <- n
			return stepDone[Unit]{value: Unit{}}
		})
	})

	program := Bind(Fork(sender), func(Unit) Task[Unit] { return receiver })
	require.NoError(t, sched.Run(ctx, program))
	require.Equal(t, 123, <-resultCh)
}

func TestChannelPollReflectsQueueDepth(t *testing.T) {
	sched := NewCooperativeScheduler()
	ctx := context.Background()
	ch := newTestChannel[int](t, sched)

	send := ch.Send(1)
	require.False(t, send.Poll(), "no receivers queued yet")

	recv := Bind(Sync(ch.Receive()), func(int) Task[Unit] { return Return(Unit{}) })
	program := Bind(Fork(recv), func(Unit) Task[Unit] {
		// The cooperative scheduler's Fork policy runs this
		// continuation before the newly forked receiver gets its
		// first turn, so yield once to let it queue itself first.
		return Bind(YieldOnce(), func(Unit) Task[Unit] {
			return Bind(Task[Unit](func() step[Unit] {
				require.True(t, send.Poll(), "a receiver is now queued")
				return stepDone[Unit]{value: Unit{}}
			}), func(Unit) Task[Unit] {
				// Complete the rendezvous so the queued receiver
				// finishes and Run can return.
				return Sync(send)
			})
		})
	})
	require.NoError(t, sched.Run(ctx, program))
}
