package vote

import (
	"errors"
	"testing"

	"github.com/eth2030/valcore/types"
)

func sampleState() *State {
	s := New()
	s.NodePubkey = nodeFrom(1)
	s.AuthorizedVoter = voteIdFrom(2)
	s.Commission = 42
	for i := 0; i < 5; i++ {
		ProcessVoteUnchecked(s, types.Slot(i*2))
	}
	s.HasRoot = true
	s.RootSlot = 100
	s.Epoch = 3
	s.Credits = 77
	s.LastEpochCredits = 50
	s.EpochCredits = []EpochCreditEntry{
		{Epoch: 1, Credits: 10, PrevEpochCredits: 0},
		{Epoch: 2, Credits: 40, PrevEpochCredits: 10},
	}
	return s
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	s := sampleState()
	buf := make([]byte, SizeUpperBound())
	n, err := Marshal(s, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Unmarshal(buf[:n])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.NodePubkey != s.NodePubkey || got.AuthorizedVoter != s.AuthorizedVoter {
		t.Fatal("identity fields did not round-trip")
	}
	if got.Commission != s.Commission || got.Epoch != s.Epoch || got.Credits != s.Credits {
		t.Fatal("scalar fields did not round-trip")
	}
	if got.HasRoot != s.HasRoot || got.RootSlot != s.RootSlot {
		t.Fatal("root fields did not round-trip")
	}
	if len(got.Votes) != len(s.Votes) {
		t.Fatalf("len(votes) = %d, want %d", len(got.Votes), len(s.Votes))
	}
	for i := range s.Votes {
		if got.Votes[i] != s.Votes[i] {
			t.Fatalf("votes[%d] = %+v, want %+v", i, got.Votes[i], s.Votes[i])
		}
	}
	if len(got.EpochCredits) != len(s.EpochCredits) {
		t.Fatalf("len(epoch_credits) = %d, want %d", len(got.EpochCredits), len(s.EpochCredits))
	}
	for i := range s.EpochCredits {
		if got.EpochCredits[i] != s.EpochCredits[i] {
			t.Fatalf("epoch_credits[%d] = %+v, want %+v", i, got.EpochCredits[i], s.EpochCredits[i])
		}
	}
}

func TestMarshalRejectsUndersizedBuffer(t *testing.T) {
	s := sampleState()
	buf := make([]byte, 10)
	_, err := Marshal(s, buf)
	if !errors.Is(err, ErrAccountDataTooSmall) {
		t.Fatalf("err = %v, want ErrAccountDataTooSmall", err)
	}
}

func TestUnmarshalRejectsTruncatedFixedSection(t *testing.T) {
	_, err := Unmarshal(make([]byte, fixedSize-1))
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Fatalf("err = %v, want ErrInvalidAccountData", err)
	}
}

func TestUnmarshalRejectsInconsistentOffsets(t *testing.T) {
	s := sampleState()
	buf := make([]byte, SizeUpperBound())
	n, _ := Marshal(s, buf)
	// Corrupt votes_offset to point before the fixed section.
	buf[65], buf[66], buf[67], buf[68] = 0, 0, 0, 0
	_, err := Unmarshal(buf[:n])
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Fatalf("err = %v, want ErrInvalidAccountData", err)
	}
}

func TestUninitializedStateRoundTrip(t *testing.T) {
	s := New()
	buf := make([]byte, SizeUpperBound())
	n, err := Marshal(s, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Unmarshal(buf[:n])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AuthorizedVoter.IsZero() {
		t.Fatal("fresh state round-trip should preserve the zero authorized_voter")
	}
}
