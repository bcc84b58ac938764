package metrics

// Pre-defined metrics for the validator core. All metrics live in
// DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Epoch metrics ----

	// EpochHeight tracks the confirmed epoch horizon (the stakers epoch of
	// the latest root), as last advanced by set_root.
	EpochHeight = DefaultRegistry.Gauge("epoch.height")
	// EpochAdvances counts set_root calls that advanced the confirmed epoch
	// horizon, including the first one.
	EpochAdvances = DefaultRegistry.Counter("epoch.advances")

	// ---- Leader schedule cache metrics ----

	// LeaderScheduleCacheHit counts slot-leader lookups served from cache.
	LeaderScheduleCacheHit = DefaultRegistry.Counter("leaderschedule.cache_hit_total")
	// LeaderScheduleCacheMiss counts slot-leader lookups that required a build.
	LeaderScheduleCacheMiss = DefaultRegistry.Counter("leaderschedule.cache_miss_total")
	// LeaderScheduleCacheEvict counts FIFO evictions from the schedule cache.
	LeaderScheduleCacheEvict = DefaultRegistry.Counter("leaderschedule.cache_evict_total")
	// LeaderScheduleBuildDuration records schedule-build latency in milliseconds.
	LeaderScheduleBuildDuration = DefaultRegistry.Histogram("leaderschedule.build_duration_ms")

	// ---- Stake snapshot metrics ----

	// StakeSnapshotSize tracks the number of staked nodes in the most
	// recently fetched snapshot.
	StakeSnapshotSize = DefaultRegistry.Gauge("stake.snapshot_size")
	// StakeSnapshotMisses counts StakesForEpoch calls that found no snapshot.
	StakeSnapshotMisses = DefaultRegistry.Counter("stake.snapshot_misses")

	// ---- Vote state machine metrics ----

	// VotesProcessed counts votes accepted into a tower.
	VotesProcessed = DefaultRegistry.Counter("vote.votes_processed")
	// VotesIgnored counts votes rejected for regression or a missing witness.
	VotesIgnored = DefaultRegistry.Counter("vote.votes_ignored")
	// VoteTowerRootAdvances counts tower overflow events that promote a root.
	VoteTowerRootAdvances = DefaultRegistry.Counter("vote.tower_root_advances")
	// VoteAuthorizeFailures counts Authorize/ProcessVotes calls rejected for
	// a missing required signature.
	VoteAuthorizeFailures = DefaultRegistry.Counter("vote.authorize_failures")

	// LeaderScheduleLookupRate tracks the 1/5/15-minute rate of slot-leader
	// lookups, the way a Unix load average tracks scheduler pressure.
	LeaderScheduleLookupRate = NewMeter()
)
