// Package vote implements the per-account vote state machine: a bounded
// tower of votes with lockout-doubling semantics, expiration sweeps, root
// promotion, credit accrual, and authorized-voter delegation.
package vote

import (
	"errors"
	"fmt"

	"github.com/eth2030/valcore/types"
)

// MaxLockoutHistory bounds the depth of the vote tower.
const MaxLockoutHistory = 31

// MaxEpochCreditsHistory bounds the retained epoch-credit history.
const MaxEpochCreditsHistory = 64

// Kind identifies one of the named VoteState failure categories.
type Kind int

const (
	// MissingRequiredSignature: an operation required a signature from the
	// current authorized voter (or account owner) that was not present.
	MissingRequiredSignature Kind = iota
	// UninitializedAccount: a vote was submitted before Initialize.
	UninitializedAccount
	// AlreadyInitialized: Initialize was called on an already-initialized account.
	AlreadyInitialized
	// InsufficientFunds: a withdrawal exceeded the account's balance.
	InsufficientFunds
	// AccountDataTooSmall: serialization did not fit the destination buffer.
	AccountDataTooSmall
	// InvalidAccountData: deserialization of malformed or truncated input failed.
	InvalidAccountData
	// GenericError: an otherwise-unclassified failure.
	GenericError
)

func (k Kind) String() string {
	switch k {
	case MissingRequiredSignature:
		return "missing_required_signature"
	case UninitializedAccount:
		return "uninitialized_account"
	case AlreadyInitialized:
		return "already_initialized"
	case InsufficientFunds:
		return "insufficient_funds"
	case AccountDataTooSmall:
		return "account_data_too_small"
	case InvalidAccountData:
		return "invalid_account_data"
	default:
		return "generic_error"
	}
}

// Error is the typed error VoteState operations fail with. It is usable
// with errors.Is against the package's sentinel errors and with errors.As
// to recover the Kind and any wrapped cause.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("vote: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("vote: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is the sentinel error for e's Kind, so that
// errors.Is(err, ErrMissingRequiredSignature) works without callers
// needing to type-assert to *Error first.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinelByKind[e.Kind]
	return ok && target == sentinel
}

func newError(k Kind, cause error) *Error { return &Error{Kind: k, cause: cause} }

// Sentinel errors, one per Kind, for errors.Is comparisons against a
// package-level value rather than against a Kind.
var (
	ErrMissingRequiredSignature = errors.New("vote: missing required signature")
	ErrUninitializedAccount     = errors.New("vote: uninitialized account")
	ErrAlreadyInitialized       = errors.New("vote: already initialized")
	ErrInsufficientFunds        = errors.New("vote: insufficient funds")
	ErrAccountDataTooSmall      = errors.New("vote: account data too small")
	ErrInvalidAccountData       = errors.New("vote: invalid account data")
	ErrGenericError             = errors.New("vote: generic error")
)

var sentinelByKind = map[Kind]error{
	MissingRequiredSignature: ErrMissingRequiredSignature,
	UninitializedAccount:     ErrUninitializedAccount,
	AlreadyInitialized:       ErrAlreadyInitialized,
	InsufficientFunds:        ErrInsufficientFunds,
	AccountDataTooSmall:      ErrAccountDataTooSmall,
	InvalidAccountData:       ErrInvalidAccountData,
	GenericError:             ErrGenericError,
}

// Lockout is one entry in the vote tower: a voted-for slot and how many
// further votes have piled on top of it since.
type Lockout struct {
	Slot              types.Slot
	ConfirmationCount uint32
}

// LockoutSlots returns the number of future slots this lockout forbids
// voting for a conflicting fork: 2^ConfirmationCount.
func (l Lockout) LockoutSlots() uint64 {
	return uint64(1) << l.ConfirmationCount
}

// ExpirationSlot is the last slot protected by this lockout.
func (l Lockout) ExpirationSlot() types.Slot {
	return l.Slot + types.Slot(l.LockoutSlots())
}

// IsExpired reports whether this lockout no longer protects against a vote
// at slot s.
func (l Lockout) IsExpired(s types.Slot) bool {
	return l.ExpirationSlot() < s
}

// Vote is one inbound vote instruction: the slot being voted for and the
// ledger-state hash the voter observed at that slot.
type Vote struct {
	Slot types.Slot
	Hash types.Hash
}

// SlotHashEntry is one witness the caller supplies to ProcessVotes: a
// (slot, hash) pair drawn from the recent-blockhashes/slot-hashes sysvar
// the ledger maintains.
type SlotHashEntry struct {
	Slot types.Slot
	Hash types.Hash
}

// SlotHashes is an ordered recent-(slot,hash) witness window, most recent
// first, as the ledger's sysvar collaborator supplies it.
type SlotHashes []SlotHashEntry

// Contains reports whether witnesses includes the exact (slot, hash) pair.
func (w SlotHashes) Contains(slot types.Slot, hash types.Hash) bool {
	for _, e := range w {
		if e.Slot == slot && e.Hash == hash {
			return true
		}
	}
	return false
}

// EpochCreditEntry records the credit totals at an epoch boundary:
// (epoch, lifetime credits at end of epoch, lifetime credits at its start).
type EpochCreditEntry struct {
	Epoch             types.Epoch
	Credits           uint64
	PrevEpochCredits  uint64
}

// State is the per-vote-account state: identity, authorization, the vote
// tower, root promotion, and credit accounting.
type State struct {
	NodePubkey      types.NodeId
	AuthorizedVoter types.VoteId
	Commission      uint8

	Votes []Lockout

	HasRoot  bool
	RootSlot types.Slot

	Epoch             types.Epoch
	Credits           uint64
	LastEpochCredits  uint64
	EpochCredits      []EpochCreditEntry
}

// New returns a zero-initialized VoteState, as an uninitialized vote
// account would appear before Initialize is called.
func New() *State {
	return &State{}
}
