package tasksync

import "sync/atomic"

// ClaimState is one of the three states a Claim can occupy.
//
// State Machine:
//
//	Waiting --(CAS)--> Claimed   [a firing side is attempting to win this subscription]
//	Claimed --(CAS)--> Waiting   [that attempt aborted; another side may retry]
//	Claimed --(CAS)--> Synced    [that attempt won; terminal]
//	Waiting --(CAS)--> Synced    [fast path: nobody contended, straight to terminal]
//
// Synced is terminal: no transition leaves it. All transitions are
// compare-and-swap only, so a Claim can be shared by multiple
// subscriptions (as Choose does) without any additional locking.
type ClaimState int32

const (
	// ClaimWaiting is a Claim's initial state: not yet fired, not
	// presently being fired.
	ClaimWaiting ClaimState = iota
	// ClaimClaimed is a transient lock held by a party attempting to
	// fire this subscription right now. It must be released back to
	// ClaimWaiting (abort) or forwarded to ClaimSynced (win).
	ClaimClaimed
	// ClaimSynced is terminal: the subscription has fired and will
	// never deliver again.
	ClaimSynced
)

// String renders the state for logging and test failure messages.
func (s ClaimState) String() string {
	switch s {
	case ClaimWaiting:
		return "Waiting"
	case ClaimClaimed:
		return "Claimed"
	case ClaimSynced:
		return "Synced"
	default:
		return "Unknown"
	}
}

// Claim is a shared, atomically-updatable three-state cell that
// coordinates which of potentially several subscriptions (as installed
// by Signal.Block) actually delivers a value. A blocked Sync allocates
// exactly one Claim; Choose shares that same Claim across both of its
// branches, so that whichever branch's counterparty wins the
// compare-and-swap race is the only one that ever delivers.
type Claim struct {
	state atomic.Int32
}

// NewClaim returns a fresh Claim in the Waiting state.
func NewClaim() *Claim {
	return &Claim{}
}

// Load returns the current state.
func (c *Claim) Load() ClaimState {
	return ClaimState(c.state.Load())
}

// TryTransition attempts the compare-and-swap from to. It returns true
// if this call performed the transition.
func (c *Claim) TryTransition(from, to ClaimState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}
