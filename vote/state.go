package vote

import (
	"github.com/eth2030/valcore/internal/log"
	"github.com/eth2030/valcore/internal/metrics"
	"github.com/eth2030/valcore/types"
)

var logger = log.Default().Module("vote")

// AccountHandle carries the signer bit and address of the vote account
// invoking an operation -- the "keyed-account handle" every VoteState
// operation is driven through.
type AccountHandle struct {
	Key      types.VoteId
	IsSigner bool
}

func signedBy(id types.VoteId, h AccountHandle, coSigners []types.VoteId) bool {
	if h.IsSigner && h.Key == id {
		return true
	}
	for _, s := range coSigners {
		if s == id {
			return true
		}
	}
	return false
}

// Initialize sets up a freshly-allocated vote account. It fails with
// AlreadyInitialized if AuthorizedVoter is already set to a non-default
// value; this transition is one-way.
func Initialize(h AccountHandle, state *State, nodePubkey types.NodeId, commission uint8) error {
	if !state.AuthorizedVoter.IsZero() {
		return newError(AlreadyInitialized, nil)
	}
	*state = State{
		NodePubkey:      nodePubkey,
		AuthorizedVoter: h.Key,
		Commission:      commission,
	}
	return nil
}

// Authorize changes the authorized voter. The current authorized voter
// must have signed, either as the account itself or via coSigners.
// Idempotent if newVoter already equals the current authorized voter.
func Authorize(h AccountHandle, state *State, newVoter types.VoteId, coSigners []types.VoteId) error {
	if !signedBy(state.AuthorizedVoter, h, coSigners) {
		metrics.VoteAuthorizeFailures.Inc()
		return newError(MissingRequiredSignature, nil)
	}
	state.AuthorizedVoter = newVoter
	return nil
}

// Withdraw atomically moves lamports from the vote account's balance to
// destination's, requiring the account itself to be a signer. Balances are
// owned by the account-storage collaborator, not by State, so callers
// supply them by reference.
func Withdraw(h AccountHandle, lamports uint64, sourceBalance, destBalance *uint64) error {
	if !h.IsSigner {
		return newError(MissingRequiredSignature, nil)
	}
	if *sourceBalance < lamports {
		return newError(InsufficientFunds, nil)
	}
	*sourceBalance -= lamports
	*destBalance += lamports
	return nil
}

// ProcessVotes authorizes and then applies each submitted vote in order.
// It fails outright with UninitializedAccount or MissingRequiredSignature;
// individual vote rejections (regression, missing witness) are silent and
// leave state unchanged for that vote without failing the whole call.
func ProcessVotes(h AccountHandle, state *State, witnesses SlotHashes, epoch types.Epoch, coSigners []types.VoteId, votes []Vote) error {
	if state.AuthorizedVoter.IsZero() {
		return newError(UninitializedAccount, nil)
	}
	if !signedBy(state.AuthorizedVoter, h, coSigners) {
		metrics.VoteAuthorizeFailures.Inc()
		return newError(MissingRequiredSignature, nil)
	}
	for _, v := range votes {
		processVote(state, v, witnesses, epoch, true)
	}
	return nil
}

// processVote applies a single vote to state following the tower protocol:
// regression check, witness check, expiration sweep, overflow/root
// promotion, push, and lockout doubling. When requireWitness is false the
// witness and regression checks implied by ProcessVotes's spec are still
// performed for regression (never skipped) but the witness match against
// slotHashes is bypassed -- used by the unchecked test helpers to build a
// tower without fabricating a slot-hashes window.
func processVote(state *State, v Vote, witnesses SlotHashes, epoch types.Epoch, requireWitness bool) {
	if n := len(state.Votes); n > 0 && state.Votes[n-1].Slot >= v.Slot {
		metrics.VotesIgnored.Inc()
		return
	}
	if requireWitness && !witnesses.Contains(v.Slot, v.Hash) {
		logger.Debug("vote witness not found, ignoring", "slot", v.Slot)
		metrics.VotesIgnored.Inc()
		return
	}

	l := Lockout{Slot: v.Slot, ConfirmationCount: 1}

	for n := len(state.Votes); n > 0 && state.Votes[n-1].IsExpired(v.Slot); n = len(state.Votes) {
		state.Votes = state.Votes[:n-1]
	}

	if len(state.Votes) == MaxLockoutHistory {
		popped := state.Votes[0]
		state.Votes = state.Votes[1:]
		state.RootSlot = popped.Slot
		state.HasRoot = true
		incrementCredits(state, epoch)
		metrics.VoteTowerRootAdvances.Inc()
	}

	state.Votes = append(state.Votes, l)

	n := len(state.Votes)
	for i := 0; i < n; i++ {
		if uint32(n-i) > state.Votes[i].ConfirmationCount {
			state.Votes[i].ConfirmationCount++
		}
	}
	metrics.VotesProcessed.Inc()
}

// incrementCredits rolls the credit counter forward, recording an
// epoch-boundary snapshot in EpochCredits whenever epoch advances.
func incrementCredits(state *State, epoch types.Epoch) {
	if epoch != state.Epoch {
		state.EpochCredits = append(state.EpochCredits, EpochCreditEntry{
			Epoch:            state.Epoch,
			Credits:          state.Credits,
			PrevEpochCredits: state.LastEpochCredits,
		})
		if len(state.EpochCredits) > MaxEpochCreditsHistory {
			state.EpochCredits = state.EpochCredits[1:]
		}
		state.Epoch = epoch
		state.LastEpochCredits = state.Credits
	}
	state.Credits++
}

// CommissionSplit divides amount between the voter and the stakers
// according to state.Commission, a fraction of 255.
func CommissionSplit(state *State, amount float64) (voterShare, stakerShare float64, wasSplit bool) {
	switch state.Commission {
	case 0:
		return 0, amount, false
	case 255:
		return amount, 0, false
	default:
		voterShare = amount * float64(state.Commission) / 255.0
		return voterShare, amount - voterShare, true
	}
}

// NthRecentVote returns the vote at position counted from the back
// (position 0 is the newest vote), or false if position is out of range.
func NthRecentVote(state *State, position int) (Lockout, bool) {
	if position < 0 || position >= len(state.Votes) {
		return Lockout{}, false
	}
	return state.Votes[len(state.Votes)-1-position], true
}

// Credits returns the account's lifetime credit counter.
func Credits(state *State) uint64 { return state.Credits }

// EpochCreditsHistory returns a copy of the bounded epoch-credit history.
func EpochCreditsHistory(state *State) []EpochCreditEntry {
	out := make([]EpochCreditEntry, len(state.EpochCredits))
	copy(out, state.EpochCredits)
	return out
}

// ProcessVoteUnchecked applies a vote for slot without requiring a
// slot-hashes witness match, using state's current epoch. It exists for
// tests that need to build a tower directly, mirroring the reference
// implementation's test-only unchecked vote helper.
func ProcessVoteUnchecked(state *State, slot types.Slot) {
	processVote(state, Vote{Slot: slot}, nil, state.Epoch, false)
}

// ProcessSlotVoteUnchecked is ProcessVoteUnchecked named to match the
// reference implementation's test helper for submitting a bare slot vote.
func ProcessSlotVoteUnchecked(state *State, slot types.Slot) {
	ProcessVoteUnchecked(state, slot)
}
