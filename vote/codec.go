package vote

import (
	"encoding/binary"

	"github.com/eth2030/valcore/types"
)

// Wire layout (little-endian throughout), following the fixed/variable
// container convention used elsewhere in this codebase: fixed-size fields
// are written in place, variable-size fields are represented in the fixed
// section by a 4-byte offset into the trailing variable section.
//
//	offset  size  field
//	0       32    node_pubkey
//	32      32    authorized_voter
//	64      1     commission
//	65      4     votes_offset
//	69      1     root_slot_present
//	70      8     root_slot (meaningful only if present)
//	78      8     epoch
//	86      8     credits
//	94      8     last_epoch_credits
//	102     4     epoch_credits_offset
//
// root_slot is a fixed field rather than a variable one: Option<Slot> has a
// statically known maximum size, so there is nothing to gain from an
// offset indirection.
const (
	fixedSize            = 106
	lockoutSize          = 12 // Slot(8) + ConfirmationCount(4)
	epochCreditEntrySize = 24 // Epoch(8) + Credits(8) + PrevEpochCredits(8)
)

// SizeUpperBound returns the largest possible encoded size of a State, used
// by callers to size destination buffers before calling Marshal.
func SizeUpperBound() int {
	return fixedSize + lockoutSize*MaxLockoutHistory + epochCreditEntrySize*MaxEpochCreditsHistory
}

// Marshal encodes state into buf, returning the number of bytes written.
// It fails with AccountDataTooSmall if buf cannot hold the encoding.
func Marshal(state *State, buf []byte) (int, error) {
	votesLen := lockoutSize * len(state.Votes)
	creditsLen := epochCreditEntrySize * len(state.EpochCredits)
	total := fixedSize + votesLen + creditsLen
	if len(buf) < total {
		return 0, newError(AccountDataTooSmall, nil)
	}

	votesOffset := uint32(fixedSize)
	epochCreditsOffset := votesOffset + uint32(votesLen)

	copy(buf[0:32], state.NodePubkey[:])
	copy(buf[32:64], state.AuthorizedVoter[:])
	buf[64] = state.Commission
	binary.LittleEndian.PutUint32(buf[65:69], votesOffset)
	if state.HasRoot {
		buf[69] = 1
	} else {
		buf[69] = 0
	}
	binary.LittleEndian.PutUint64(buf[70:78], uint64(state.RootSlot))
	binary.LittleEndian.PutUint64(buf[78:86], uint64(state.Epoch))
	binary.LittleEndian.PutUint64(buf[86:94], state.Credits)
	binary.LittleEndian.PutUint64(buf[94:102], state.LastEpochCredits)
	binary.LittleEndian.PutUint32(buf[102:106], epochCreditsOffset)

	pos := int(votesOffset)
	for _, l := range state.Votes {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], uint64(l.Slot))
		binary.LittleEndian.PutUint32(buf[pos+8:pos+12], l.ConfirmationCount)
		pos += lockoutSize
	}
	for _, ec := range state.EpochCredits {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], uint64(ec.Epoch))
		binary.LittleEndian.PutUint64(buf[pos+8:pos+16], ec.Credits)
		binary.LittleEndian.PutUint64(buf[pos+16:pos+24], ec.PrevEpochCredits)
		pos += epochCreditEntrySize
	}

	return total, nil
}

// Unmarshal decodes a State from data, failing with InvalidAccountData if
// data is truncated or its internal offsets are inconsistent.
func Unmarshal(data []byte) (*State, error) {
	if len(data) < fixedSize {
		return nil, newError(InvalidAccountData, nil)
	}

	s := &State{}
	copy(s.NodePubkey[:], data[0:32])
	copy(s.AuthorizedVoter[:], data[32:64])
	s.Commission = data[64]
	votesOffset := binary.LittleEndian.Uint32(data[65:69])
	switch data[69] {
	case 0:
		s.HasRoot = false
	case 1:
		s.HasRoot = true
	default:
		return nil, newError(InvalidAccountData, nil)
	}
	s.RootSlot = types.Slot(binary.LittleEndian.Uint64(data[70:78]))
	s.Epoch = types.Epoch(binary.LittleEndian.Uint64(data[78:86]))
	s.Credits = binary.LittleEndian.Uint64(data[86:94])
	s.LastEpochCredits = binary.LittleEndian.Uint64(data[94:102])
	epochCreditsOffset := binary.LittleEndian.Uint32(data[102:106])

	total := uint32(len(data))
	if votesOffset < fixedSize || epochCreditsOffset < votesOffset || epochCreditsOffset > total {
		return nil, newError(InvalidAccountData, nil)
	}
	votesLen := epochCreditsOffset - votesOffset
	creditsLen := total - epochCreditsOffset
	if votesLen%lockoutSize != 0 || creditsLen%epochCreditEntrySize != 0 {
		return nil, newError(InvalidAccountData, nil)
	}
	numVotes := int(votesLen) / lockoutSize
	numCredits := int(creditsLen) / epochCreditEntrySize
	if numVotes > MaxLockoutHistory || numCredits > MaxEpochCreditsHistory {
		return nil, newError(InvalidAccountData, nil)
	}

	pos := int(votesOffset)
	if numVotes > 0 {
		s.Votes = make([]Lockout, numVotes)
	}
	for i := 0; i < numVotes; i++ {
		s.Votes[i] = Lockout{
			Slot:              types.Slot(binary.LittleEndian.Uint64(data[pos : pos+8])),
			ConfirmationCount: binary.LittleEndian.Uint32(data[pos+8 : pos+12]),
		}
		pos += lockoutSize
	}
	if numCredits > 0 {
		s.EpochCredits = make([]EpochCreditEntry, numCredits)
	}
	for i := 0; i < numCredits; i++ {
		s.EpochCredits[i] = EpochCreditEntry{
			Epoch:            types.Epoch(binary.LittleEndian.Uint64(data[pos : pos+8])),
			Credits:          binary.LittleEndian.Uint64(data[pos+8 : pos+16]),
			PrevEpochCredits: binary.LittleEndian.Uint64(data[pos+16 : pos+24]),
		}
		pos += epochCreditEntrySize
	}

	return s, nil
}
