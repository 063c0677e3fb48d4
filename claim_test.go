package tasksync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimInitialState(t *testing.T) {
	c := NewClaim()
	require.Equal(t, ClaimWaiting, c.Load())
}

func TestClaimFastPathTransition(t *testing.T) {
	c := NewClaim()
	require.True(t, c.TryTransition(ClaimWaiting, ClaimSynced))
	require.Equal(t, ClaimSynced, c.Load())
	require.False(t, c.TryTransition(ClaimWaiting, ClaimSynced), "Synced is terminal")
}

func TestClaimClaimedRoundTrip(t *testing.T) {
	c := NewClaim()
	require.True(t, c.TryTransition(ClaimWaiting, ClaimClaimed))
	require.True(t, c.TryTransition(ClaimClaimed, ClaimWaiting))
	require.Equal(t, ClaimWaiting, c.Load())
}

func TestClaimExactlyOnceUnderContention(t *testing.T) {
	c := NewClaim()
	const attempts = 64
	var wg sync.WaitGroup
	wins := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = c.TryTransition(ClaimWaiting, ClaimSynced)
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	require.Equal(t, 1, count, "exactly one concurrent transition should win")
	require.Equal(t, ClaimSynced, c.Load())
}

func TestClaimStateString(t *testing.T) {
	require.Equal(t, "Waiting", ClaimWaiting.String())
	require.Equal(t, "Claimed", ClaimClaimed.String())
	require.Equal(t, "Synced", ClaimSynced.String())
	require.Equal(t, "Unknown", ClaimState(99).String())
}
