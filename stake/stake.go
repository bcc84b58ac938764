// Package stake defines the Stake Snapshot Provider collaborator: the
// abstract source of (node identity, effective stake) pairs that the
// leader schedule builder consumes to weight its shuffle. The core never
// computes stake itself; it only consumes snapshots through this
// interface, kept thin so that callers can back it with a live ledger-state
// handle, a fixture, or a replay log.
package stake

import (
	"github.com/eth2030/valcore/internal/metrics"
	"github.com/eth2030/valcore/types"
)

// Entry pairs a validator identity with its effective stake weight for one
// epoch. Weight is always strictly positive; the provider must omit
// entries for nodes with zero effective stake.
type Entry struct {
	NodeId types.NodeId
	Weight uint64
}

// Snapshot is the full set of staked nodes for one epoch, plus that
// epoch's slot count (the length the leader schedule builder must produce).
type Snapshot struct {
	Entries  []Entry
	NumSlots uint64
}

// TotalWeight returns the sum of all entry weights.
func (s Snapshot) TotalWeight() uint64 {
	var total uint64
	for _, e := range s.Entries {
		total += e.Weight
	}
	return total
}

// Provider resolves the stake snapshot that determines leadership for a
// given epoch. The second return value is false when the snapshot is not
// yet known — e.g. the epoch lies beyond what the backing ledger state has
// observed — in which case the caller must not cache any derived result.
type Provider interface {
	StakesForEpoch(e types.Epoch) (Snapshot, bool)
}

// StaticProvider is a Provider backed by a fixed, in-memory map, useful for
// tests and for replaying a known sequence of snapshots.
type StaticProvider struct {
	byEpoch map[types.Epoch]Snapshot
}

// NewStaticProvider builds a StaticProvider from the given per-epoch
// snapshots.
func NewStaticProvider(byEpoch map[types.Epoch]Snapshot) *StaticProvider {
	cp := make(map[types.Epoch]Snapshot, len(byEpoch))
	for e, s := range byEpoch {
		cp[e] = s
	}
	return &StaticProvider{byEpoch: cp}
}

// StakesForEpoch implements Provider.
func (p *StaticProvider) StakesForEpoch(e types.Epoch) (Snapshot, bool) {
	s, ok := p.byEpoch[e]
	if !ok {
		metrics.StakeSnapshotMisses.Inc()
		return s, ok
	}
	metrics.StakeSnapshotSize.Set(int64(len(s.Entries)))
	return s, ok
}

// Set installs or replaces the snapshot for epoch e.
func (p *StaticProvider) Set(e types.Epoch, s Snapshot) {
	p.byEpoch[e] = s
}
