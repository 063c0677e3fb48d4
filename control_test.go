package tasksync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func runUnit(t *testing.T, task Task[Unit]) error {
	t.Helper()
	sched := NewCooperativeScheduler()
	return sched.Run(context.Background(), task)
}

func run[A any](t *testing.T, task Task[A]) (A, error) {
	t.Helper()
	sched := NewCooperativeScheduler()
	return Run(context.Background(), sched, task)
}

func TestTryWithCatchesImmediatePanic(t *testing.T) {
	var caught any
	task := TryWith(Task[int](func() step[int] {
		panic("boom")
	}), func(err any) Task[int] {
		caught = err
		return Return(-1)
	})
	v, err := run(t, task)
	require.NoError(t, err)
	require.Equal(t, -1, v)
	require.Equal(t, "boom", caught)
}

func TestTryWithCatchesPanicAfterYield(t *testing.T) {
	task := TryWith(Bind(YieldOnce(), func(Unit) Task[int] {
		return Task[int](func() step[int] {
			panic("later")
		})
	}), func(err any) Task[int] {
		return Return(1)
	})
	v, err := run(t, task)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestTryWithPassesThroughSuccess(t *testing.T) {
	task := TryWith(Return(5), func(any) Task[int] {
		return Return(-1)
	})
	v, err := run(t, task)
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestTryFinallyRunsOnSuccess(t *testing.T) {
	var ran bool
	task := TryFinally(Return(3), Task[Unit](func() step[Unit] {
		ran = true
		return stepDone[Unit]{value: Unit{}}
	}))
	v, err := run(t, task)
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.True(t, ran)
}

func TestTryFinallyRunsOnPanicAndRepanics(t *testing.T) {
	var ran bool
	task := TryFinally(Task[int](func() step[int] {
		panic("fail")
	}), Task[Unit](func() step[Unit] {
		ran = true
		return stepDone[Unit]{value: Unit{}}
	}))
	wrapped := TryWith(task, func(err any) Task[int] {
		require.Equal(t, "fail", err)
		return Return(0)
	})
	v, err := run(t, wrapped)
	require.NoError(t, err)
	require.Equal(t, 0, v)
	require.True(t, ran, "finalizer must run even though body panicked")
}

type fakeReleasable struct {
	released *bool
}

func (r fakeReleasable) Release() Task[Unit] {
	return Task[Unit](func() step[Unit] {
		*r.released = true
		return stepDone[Unit]{value: Unit{}}
	})
}

func TestUsingReleasesOnSuccess(t *testing.T) {
	var released bool
	task := Using(fakeReleasable{released: &released}, func(r fakeReleasable) Task[int] {
		return Return(42)
	})
	v, err := run(t, task)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, released)
}

func TestWithLockReleasesOnEveryExitPathIncludingPanic(t *testing.T) {
	sched := NewCooperativeScheduler()
	ctx := context.Background()

	lock, err := Run(ctx, sched, NewMutex())
	require.NoError(t, err)

	failingCritical := TryWith(WithLock(lock, func() Task[Unit] {
		return Task[Unit](func() step[Unit] {
			panic("critical section failed")
		})
	}), func(any) Task[Unit] {
		return Return(Unit{})
	})

	// If WithLock failed to release on the panic path, this second
	// acquisition would never see the lock become free.
	program := Bind(failingCritical, func(Unit) Task[Unit] {
		return WithLock(lock, func() Task[Unit] {
			return Return(Unit{})
		})
	})

	err = sched.Run(ctx, program)
	require.NoError(t, err)
}

func TestWhileLoopsUntilFalse(t *testing.T) {
	i := 0
	task := While(func() bool { return i < 5 }, Task[Unit](func() step[Unit] {
		i++
		return stepDone[Unit]{value: Unit{}}
	}))
	err := runUnit(t, task)
	require.NoError(t, err)
	require.Equal(t, 5, i)
}

func TestForVisitsEveryItemInOrder(t *testing.T) {
	var seen []int
	task := For([]int{1, 2, 3}, func(n int) Task[Unit] {
		return Task[Unit](func() step[Unit] {
			seen = append(seen, n)
			return stepDone[Unit]{value: Unit{}}
		})
	})
	err := runUnit(t, task)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, seen)
}

func TestForEmptySequence(t *testing.T) {
	var called bool
	task := For([]int{}, func(int) Task[Unit] {
		called = true
		return Return(Unit{})
	})
	err := runUnit(t, task)
	require.NoError(t, err)
	require.False(t, called)
}
