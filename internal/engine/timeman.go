package engine

import (
	"time"
)

// TimeManager handles time allocation for searches.
type TimeManager struct {
	optimumTime time.Duration // Don't start a new iteration past this
	maximumTime time.Duration // Hard deadline
	startTime   time.Time     // When search started
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts the clock for a new search. Without a move time the
// search is bounded by depth only.
func (tm *TimeManager) Init(limits SearchLimits) {
	tm.startTime = time.Now()

	if limits.MoveTime <= 0 {
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		return
	}

	tm.maximumTime = limits.MoveTime
	// No new iteration starts past the midpoint.
	tm.optimumTime = limits.MoveTime / 2
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Deadline returns the wall-clock instant at which the search must stop.
func (tm *TimeManager) Deadline() time.Time {
	return tm.startTime.Add(tm.maximumTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop returns true if the deadline has passed.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximumTime
}

// PastOptimum returns true if we've exceeded the optimum time.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}
