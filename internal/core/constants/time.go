package constants

import "time"

const (
	// Live tracking: a gap strictly longer than this closes the open session
	InactivityThreshold = 15 * time.Minute

	// Per-path quiet period before a file change is recorded
	DebounceWindow = 1 * time.Second

	// How often a running watcher logs aggregate stats
	HeartbeatInterval = 60 * time.Second

	// Retrospective estimator: commit gap that starts a new estimated session
	EstimatorSessionGap = 30 * time.Minute

	// Assumed unobserved work behind every commit
	MinutesPerCommit = 5

	// Expected effort for the exercise, used by the report target check
	TargetMinutes = 4 * 60

	// Upper bound for a single git subprocess
	GitCommandTimeout = 10 * time.Second
)
