// Package epoch implements the slot-to-epoch mapping used by the leader
// schedule cache and the stake snapshot provider. An epoch is a contiguous
// range of slots; when warmup is enabled the first several epochs are
// shorter than the configured steady-state length, doubling until they
// reach it, so that stake concentrated at genesis does not lock in an
// oversized leader schedule before it has had a chance to redistribute.
package epoch

import (
	"fmt"

	"github.com/eth2030/valcore/types"
)

// Slot and Epoch are aliases of the shared identifier types so that callers
// throughout the module can pass types.Slot / types.Epoch values directly
// to this package's arithmetic without a conversion at every call site.
type Slot = types.Slot
type Epoch = types.Epoch

// minimumSlotsPerEpoch is the shortest an epoch may be during warmup.
const minimumSlotsPerEpoch uint64 = 32

// Config describes how slots are partitioned into epochs.
type Config struct {
	// SlotsPerEpoch is the steady-state number of slots in an epoch, once
	// warmup (if any) has completed.
	SlotsPerEpoch uint64

	// LeaderScheduleSlotOffset is how many slots before an epoch begins its
	// leader schedule is derived from the stake snapshot.
	LeaderScheduleSlotOffset uint64

	// Warmup enables the doubling-length ramp for the earliest epochs.
	Warmup bool

	// firstNormalEpoch and firstNormalSlot are derived from SlotsPerEpoch
	// and Warmup by NewConfig; zero when Warmup is false.
	firstNormalEpoch uint64
	firstNormalSlot  uint64
}

// NewConfig builds a Config, pre-computing the warmup boundary. It panics if
// the configuration is invalid; callers that accept untrusted input should
// build a Config by hand and call Prepare instead, which returns the error.
func NewConfig(slotsPerEpoch, leaderScheduleSlotOffset uint64, warmup bool) Config {
	c := Config{
		SlotsPerEpoch:            slotsPerEpoch,
		LeaderScheduleSlotOffset: leaderScheduleSlotOffset,
		Warmup:                   warmup,
	}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	c.deriveWarmup()
	return c
}

// DefaultConfig returns the steady-state configuration used when no
// configuration file is supplied: a 32,768-slot epoch, a one-epoch leader
// schedule offset, and warmup enabled.
func DefaultConfig() Config {
	return NewConfig(32768, 32768, true)
}

// Validate reports whether the configuration is self-consistent.
func (c *Config) Validate() error {
	if c.SlotsPerEpoch < minimumSlotsPerEpoch {
		return fmt.Errorf("epoch: slots_per_epoch %d below minimum %d", c.SlotsPerEpoch, minimumSlotsPerEpoch)
	}
	return nil
}

// deriveWarmup populates firstNormalEpoch and firstNormalSlot from
// SlotsPerEpoch and Warmup. Must be called (via NewConfig or Prepare)
// before any of the epoch-arithmetic methods are used on a hand-built
// Config.
func (c *Config) deriveWarmup() {
	if !c.Warmup {
		c.firstNormalEpoch = 0
		c.firstNormalSlot = 0
		return
	}
	nextPowerOfTwo := nextPowerOfTwo(c.SlotsPerEpoch)
	log2SlotsPerEpoch := trailingZeros(nextPowerOfTwo) - trailingZeros(minimumSlotsPerEpoch)
	c.firstNormalEpoch = uint64(log2SlotsPerEpoch)
	// sum of a geometric series of warmup epoch lengths
	// minimum*2^0 + minimum*2^1 + ... + minimum*2^(firstNormalEpoch-1)
	// collapses to nextPowerOfTwo(slotsPerEpoch) - minimum, since
	// minimum*2^firstNormalEpoch == nextPowerOfTwo(slotsPerEpoch).
	c.firstNormalSlot = saturatingSub(nextPowerOfTwo, minimumSlotsPerEpoch)
}

// Prepare must be called once on a Config built with composite-literal
// syntax (rather than NewConfig) before using it, after Validate succeeds.
func (c *Config) Prepare() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.deriveWarmup()
	return nil
}

// SlotsIn returns the number of slots in the given epoch.
func (c *Config) SlotsIn(e Epoch) uint64 {
	if uint64(e) < c.firstNormalEpoch {
		return uint64(1) << (uint64(e) + trailingZeros(minimumSlotsPerEpoch))
	}
	return c.SlotsPerEpoch
}

// FirstSlotOf returns the first slot belonging to the given epoch.
func (c *Config) FirstSlotOf(e Epoch) Slot {
	if uint64(e) <= c.firstNormalEpoch {
		return Slot(saturatingMul(minimumSlotsPerEpoch, saturatingSub(uint64(1)<<uint64(e), 1)))
	}
	return Slot((uint64(e)-c.firstNormalEpoch)*c.SlotsPerEpoch + c.firstNormalSlot)
}

// LastSlotOf returns the final slot belonging to the given epoch.
func (c *Config) LastSlotOf(e Epoch) Slot {
	return c.FirstSlotOf(e) + Slot(c.SlotsIn(e)) - 1
}

// EpochOf returns the epoch containing slot and the slot's zero-based index
// within that epoch.
func (c *Config) EpochOf(slot Slot) (Epoch, uint64) {
	e := c.epochContaining(slot)
	return e, uint64(slot) - uint64(c.FirstSlotOf(e))
}

func (c *Config) epochContaining(slot Slot) Epoch {
	if uint64(slot) < c.firstNormalSlot {
		// Invert the doubling series: find the smallest epoch e such that
		// FirstSlotOf(e+1) > slot.
		slotsVisited := uint64(0)
		e := uint64(0)
		for {
			length := uint64(1) << (e + trailingZeros(minimumSlotsPerEpoch))
			if slotsVisited+length > uint64(slot) {
				return Epoch(e)
			}
			slotsVisited += length
			e++
		}
	}
	epochsSinceNormal := (uint64(slot) - c.firstNormalSlot) / c.SlotsPerEpoch
	return Epoch(c.firstNormalEpoch + epochsSinceNormal)
}

// StakersEpoch returns the epoch whose leader schedule is fully determined
// by the stake snapshot available once slot is rooted. Past warmup this is
// the epoch containing the slot LeaderScheduleSlotOffset slots after slot;
// for a slot inside the warmup epochs it is the epoch after the one
// containing slot, and LeaderScheduleSlotOffset is not used.
func (c *Config) StakersEpoch(slot Slot) Epoch {
	if uint64(slot) < c.firstNormalSlot {
		return c.epochContaining(slot) + 1
	}
	slotsSinceNormal := uint64(slot) - c.firstNormalSlot
	leaderScheduleSlot := slotsSinceNormal + c.LeaderScheduleSlotOffset
	return Epoch(c.firstNormalEpoch + leaderScheduleSlot/c.SlotsPerEpoch)
}

func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

func trailingZeros(n uint64) uint64 {
	if n == 0 {
		return 64
	}
	var z uint64
	for n&1 == 0 {
		z++
		n >>= 1
	}
	return z
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	r := a * b
	if r/a != b {
		return ^uint64(0)
	}
	return r
}
