package leaderschedule

import (
	"fmt"
	"sync"

	"github.com/eth2030/valcore/epoch"
	"github.com/eth2030/valcore/internal/log"
	"github.com/eth2030/valcore/internal/metrics"
	"github.com/eth2030/valcore/stake"
	"github.com/eth2030/valcore/types"
)

// MaxSchedules bounds how many epochs' schedules the cache retains at once.
// Once exceeded, the oldest-inserted epoch (not the least-recently-used
// one) is evicted.
const MaxSchedules = 10

// BlockstoreView reports, for a given slot, whether at least one block
// shred has already been received for it -- the signal next-leader-slot
// scanning treats as a forfeited slot. A nil BlockstoreView is equivalent
// to "nothing has been received yet".
type BlockstoreView interface {
	Received(slot types.Slot) bool
}

var logger = log.Default().Module("leaderschedule")

// Cache is a memoizing front end over Build: it enforces per-epoch
// at-most-once insertion, a bounded FIFO retention policy, and a confirmed
// epoch horizon advanced by SetRoot. Queries beyond the horizon return
// "unknown" without computing.
type Cache struct {
	cfg      epoch.Config
	provider stake.Provider

	// schedulesMu guards byEpoch and insertionOrder jointly.
	schedulesMu    sync.RWMutex
	byEpoch        map[types.Epoch]Schedule
	insertionOrder []types.Epoch

	// horizonMu guards maxEpoch independently of schedulesMu, so that a
	// root update never blocks on, or is blocked by, schedule reads.
	horizonMu sync.RWMutex
	maxEpoch  types.Epoch
	hasRoot   bool
}

// RootState is the ledger-state handle LSC consults when it needs to
// extend its horizon or compute a schedule: the current rooted slot, plus
// access to the stake snapshot provider is carried separately via the
// Cache's own provider field, matching spec's framing of the state handle
// as "epoch arithmetic + stake snapshot fetch" passed per call.
type RootState struct {
	Slot types.Slot
}

// New constructs a Cache, establishes its horizon from root, and
// best-effort warms every epoch up to (but not including) the horizon.
func New(cfg epoch.Config, provider stake.Provider, root RootState) *Cache {
	c := &Cache{
		cfg:            cfg,
		provider:       provider,
		byEpoch:        make(map[types.Epoch]Schedule),
		insertionOrder: make([]types.Epoch, 0, MaxSchedules),
	}
	c.SetRoot(root)
	maxEpoch, _ := c.horizon()
	for e := types.Epoch(0); e < maxEpoch; e++ {
		first := c.cfg.FirstSlotOf(e)
		c.SlotLeaderAt(first, &root)
	}
	return c
}

func (c *Cache) horizon() (types.Epoch, bool) {
	c.horizonMu.RLock()
	defer c.horizonMu.RUnlock()
	return c.maxEpoch, c.hasRoot
}

// SetRoot advances the confirmed epoch horizon to stakers_epoch(root.Slot).
// The new horizon must never regress; a caller that violates this has a
// corrupted view of the chain, and the violation is fatal.
func (c *Cache) SetRoot(root RootState) {
	newMax := c.cfg.StakersEpoch(root.Slot)

	c.horizonMu.Lock()
	if c.hasRoot && newMax < c.maxEpoch {
		c.horizonMu.Unlock()
		logger.Warn("set_root called with non-monotonic epoch horizon", "current_max", c.maxEpoch, "requested_max", newMax, "root_slot", root.Slot)
		panic(fmt.Sprintf("leaderschedule: set_root monotonicity violation: current max_epoch %d, requested %d", c.maxEpoch, newMax))
	}
	grew := !c.hasRoot || newMax > c.maxEpoch
	c.maxEpoch = newMax
	c.hasRoot = true
	c.horizonMu.Unlock()

	if grew {
		metrics.EpochAdvances.Inc()
		metrics.EpochHeight.Set(int64(newMax))
		c.SlotLeaderAt(c.cfg.FirstSlotOf(newMax), &root)
	}
}

// SlotLeaderAt returns the node permitted to lead slot. If state is nil,
// this is a read-only lookup against already-cached schedules. If state is
// non-nil, a cache miss within the horizon triggers computation.
func (c *Cache) SlotLeaderAt(slot types.Slot, state *RootState) (types.NodeId, bool) {
	metrics.LeaderScheduleLookupRate.Mark(1)
	e, idx := c.cfg.EpochOf(slot)

	if sched, ok := c.lookup(e); ok {
		metrics.LeaderScheduleCacheHit.Inc()
		return sched.LeaderAt(idx), true
	}
	if state == nil {
		return types.NodeId{}, false
	}

	maxEpoch, hasRoot := c.horizon()
	if !hasRoot || e > maxEpoch {
		logger.Debug("requested leader beyond confirmed horizon", "slot", slot, "epoch", e, "max_epoch", maxEpoch)
		return types.NodeId{}, false
	}

	metrics.LeaderScheduleCacheMiss.Inc()
	sched, ok := c.computeAndInsert(e)
	if !ok {
		return types.NodeId{}, false
	}
	return sched.LeaderAt(idx), true
}

func (c *Cache) lookup(e types.Epoch) (Schedule, bool) {
	c.schedulesMu.RLock()
	defer c.schedulesMu.RUnlock()
	sched, ok := c.byEpoch[e]
	return sched, ok
}

// computeAndInsert builds the schedule for e via the stake snapshot
// provider and inserts it. After building, and before inserting, it
// re-checks under the write lock for an entry another caller inserted
// concurrently (double-checked memoization). Two
// callers may race to build the same epoch; the loser's result is
// discarded, since Build is pure and the alternative -- holding the write
// lock across the whole computation -- would serialize every reader.
func (c *Cache) computeAndInsert(e types.Epoch) (Schedule, bool) {
	snapshot, ok := c.provider.StakesForEpoch(e)
	if !ok {
		return Schedule{}, false
	}

	timer := metrics.NewTimer(metrics.LeaderScheduleBuildDuration)
	sched, err := Build(e, snapshot)
	timer.Stop()
	if err != nil {
		logger.Warn("leader schedule build failed", "epoch", e, "error", err)
		return Schedule{}, false
	}

	c.schedulesMu.Lock()
	defer c.schedulesMu.Unlock()
	if existing, ok := c.byEpoch[e]; ok {
		return existing, true
	}
	c.byEpoch[e] = sched
	c.insertionOrder = append(c.insertionOrder, e)
	if len(c.insertionOrder) > MaxSchedules {
		evicted := c.insertionOrder[0]
		c.insertionOrder = c.insertionOrder[1:]
		delete(c.byEpoch, evicted)
		metrics.LeaderScheduleCacheEvict.Inc()
	}
	return sched, true
}

// NextLeaderSlot searches slots strictly greater than currentSlot for the
// first contiguous run in which node leads, skipping over any slot the
// blockstore reports as already received (treated as a forfeited
// interruption that does not itself terminate the run). It stops searching
// once it reaches an epoch beyond the confirmed horizon.
func (c *Cache) NextLeaderSlot(node types.NodeId, currentSlot types.Slot, state RootState, blockstore BlockstoreView) (first, last types.Slot, ok bool) {
	maxEpoch, hasRoot := c.horizon()
	if !hasRoot {
		return 0, 0, false
	}

	slot := currentSlot + 1
	started := false

	for {
		e, _ := c.cfg.EpochOf(slot)
		if e > maxEpoch {
			break
		}
		leader, found := c.SlotLeaderAt(slot, &state)
		if !found {
			break
		}

		if leader != node {
			// Once a run has actually started, a different leader ends it.
			// Before that, a foreign slot is just ordinary scanning.
			if started {
				break
			}
			slot++
			continue
		}

		// node leads this slot. A slot the blockstore already has a shred
		// for is forfeited: it neither starts nor extends the reportable
		// range, but it does not break run continuity either -- scanning
		// continues past it as if it belonged to the same run.
		if blockstore == nil || !blockstore.Received(slot) {
			if !started {
				first = slot
				started = true
			}
			last = slot
		}
		slot++
	}

	if !started {
		return 0, 0, false
	}
	return first, last, true
}
