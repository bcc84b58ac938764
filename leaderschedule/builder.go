// Package leaderschedule computes and caches the per-epoch assignment of
// slots to leaders. The builder (this file) turns a stake snapshot into a
// deterministic schedule; the cache (cache.go) memoizes builder output
// behind a bounded, concurrency-safe front end.
package leaderschedule

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/eth2030/valcore/stake"
	"github.com/eth2030/valcore/types"
	"golang.org/x/crypto/chacha20"
)

// Schedule is an immutable, O(1)-indexable assignment of slot-index within
// an epoch to the leader permitted to produce that slot's block.
type Schedule struct {
	leaders []types.NodeId
}

// NumSlots returns the number of slots the schedule covers.
func (s Schedule) NumSlots() int { return len(s.leaders) }

// LeaderAt returns the node assigned to slot-index idx within the epoch.
// idx must be in [0, NumSlots()); callers are expected to have already
// range-checked against epoch.SlotsIn.
func (s Schedule) LeaderAt(idx uint64) types.NodeId {
	return s.leaders[idx]
}

// domainTag is mixed into every PRNG seed so that this module's keystream
// can never collide with a seed derived for an unrelated purpose under the
// same key material.
var domainTag = [8]byte{'l', 's', 'c', 'h', 'e', 'd', 'v', '1'}

// seedForEpoch derives the 32-byte ChaCha20 key for epoch e: an 8-byte
// domain tag, the little-endian epoch number, and zero padding to 32 bytes.
func seedForEpoch(e types.Epoch) [chacha20.KeySize]byte {
	var seed [chacha20.KeySize]byte
	copy(seed[:8], domainTag[:])
	binary.LittleEndian.PutUint64(seed[8:16], uint64(e))
	return seed
}

// drawPool is a working copy of a stake snapshot's entries, sorted by
// (weight desc, NodeId desc-lexicographic) for deterministic tie-breaking,
// with weights consumed as the builder samples without replacement.
type drawPool struct {
	entries []stake.Entry
	total   uint64
}

func newDrawPool(snapshot stake.Snapshot) drawPool {
	entries := make([]stake.Entry, len(snapshot.Entries))
	copy(entries, snapshot.Entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return bytesGreater(entries[i].NodeId[:], entries[j].NodeId[:])
	})
	var total uint64
	for _, e := range entries {
		total += e.Weight
	}
	return drawPool{entries: entries, total: total}
}

func bytesGreater(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// draw consumes one uniform value u in [0, total) and returns the NodeId of
// the entry that owns u by prefix sum, then removes that entry's weight
// from the pool.
func (p *drawPool) draw(u uint64) types.NodeId {
	var cumulative uint64
	for i := range p.entries {
		cumulative += p.entries[i].Weight
		if u < cumulative {
			winner := p.entries[i].NodeId
			p.total -= p.entries[i].Weight
			p.entries[i].Weight = 0
			return winner
		}
	}
	// Unreachable if total and entries stay consistent; fall back to the
	// last entry rather than panicking on float/overflow edge cases.
	last := len(p.entries) - 1
	winner := p.entries[last].NodeId
	p.total -= p.entries[last].Weight
	p.entries[last].Weight = 0
	return winner
}

func (p *drawPool) exhausted() bool { return p.total == 0 }

// Build produces the deterministic leader schedule for epoch e from the
// given stake snapshot, whose length must equal the epoch's slot count.
// snapshot.Entries must be non-empty with every weight strictly positive.
// Build returns an error for an empty snapshot or a zero NumSlots; it does
// not check that the weights are positive, since the stake snapshot
// provider owns that invariant.
func Build(e types.Epoch, snapshot stake.Snapshot) (Schedule, error) {
	if len(snapshot.Entries) == 0 {
		return Schedule{}, fmt.Errorf("leaderschedule: empty stake snapshot for epoch %d", e)
	}
	if snapshot.NumSlots == 0 {
		return Schedule{}, fmt.Errorf("leaderschedule: zero-length epoch %d", e)
	}

	seed := seedForEpoch(e)
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return Schedule{}, fmt.Errorf("leaderschedule: chacha20 init for epoch %d: %w", e, err)
	}

	leaders := make([]types.NodeId, 0, snapshot.NumSlots)
	pool := newDrawPool(snapshot)
	var keystream [8]byte
	var zero [8]byte
	for uint64(len(leaders)) < snapshot.NumSlots {
		if pool.exhausted() {
			pool = newDrawPool(snapshot)
		}
		cipher.XORKeyStream(keystream[:], zero[:])
		draw := binary.LittleEndian.Uint64(keystream[:]) % pool.total
		leaders = append(leaders, pool.draw(draw))
	}
	return Schedule{leaders: leaders}, nil
}
