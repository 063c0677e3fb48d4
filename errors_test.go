package tasksync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskErrorWrapsUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	te := &TaskError{Value: cause}
	require.Equal(t, "tasksync: task failed: boom", te.Error())
	require.ErrorIs(t, te, cause)
	require.Same(t, cause, te.Unwrap())
}

func TestTaskErrorWrapsNonErrorValue(t *testing.T) {
	te := &TaskError{Value: "plain string panic"}
	require.Equal(t, "tasksync: task failed: plain string panic", te.Error())
	require.Nil(t, te.Unwrap())
}

func TestErrSchedulerAlreadyRunningIsSentinel(t *testing.T) {
	err := errors.New("wrapped: " + ErrSchedulerAlreadyRunning.Error())
	require.NotErrorIs(t, err, ErrSchedulerAlreadyRunning, "plain string concatenation must not satisfy errors.Is")

	wrapped := fmt.Errorf("run failed: %w", ErrSchedulerAlreadyRunning)
	require.ErrorIs(t, wrapped, ErrSchedulerAlreadyRunning)
}

func TestErrDoubleReleaseIsSentinel(t *testing.T) {
	te := &TaskError{Value: ErrDoubleRelease}
	require.ErrorIs(t, te, ErrDoubleRelease)
}
