package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToMaxWithinWindow(t *testing.T) {
	l := New(3, time.Second)
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow(), "a fourth event within the window must be rejected")
}

func TestLimiterRecoversAfterWindowElapses(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow())
	require.False(t, l.Allow())

	now = now.Add(2 * time.Second)
	require.True(t, l.Allow(), "an event outside the window should be pruned, freeing capacity")
}

func TestLimiterZeroMaxAlwaysRejects(t *testing.T) {
	l := New(0, time.Second)
	require.False(t, l.Allow())
}
