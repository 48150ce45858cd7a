package store

import (
	"math"
	"time"
)

// DefaultServiceMinutesPerUnit is the fallback per-person service rate
// for queues that don't carry their own.
const DefaultServiceMinutesPerUnit = 1.5

// JoinPosition assigns the position of the first member of an incoming
// group: one past the people already in line. A group of size g then
// occupies positions position..position+g-1.
func JoinPosition(currentCount int) int {
	if currentCount < 0 {
		currentCount = 0
	}
	return currentCount + 1
}

// EstimateWaitMinutes is the snapshot ETA taken once at join time. It
// assumes everyone ahead is served at the fixed per-unit rate and is
// never recomputed afterwards.
func EstimateWaitMinutes(position int, minutesPerUnit float64) int {
	if minutesPerUnit <= 0 {
		minutesPerUnit = DefaultServiceMinutesPerUnit
	}
	return int(math.Floor(float64(position) * minutesPerUnit))
}

// RecomputePosition derives the live position of a waiting reservation
// from wall-clock time alone. The initial position is reconstructed
// from the frozen estimate, then one unit is subtracted for every full
// service interval that has elapsed since the reservation was created.
// The result never drops below 1 ("your turn") and, for a fixed
// reservation, never increases as now advances.
func RecomputePosition(estimatedWaitMinutes int, minutesPerUnit float64, createdAt, now time.Time) int {
	if minutesPerUnit <= 0 {
		minutesPerUnit = DefaultServiceMinutesPerUnit
	}
	initial := int(math.Ceil(float64(estimatedWaitMinutes) / minutesPerUnit))
	elapsed := now.Sub(createdAt).Minutes()
	if elapsed < 0 {
		elapsed = 0
	}
	served := int(math.Floor(elapsed / minutesPerUnit))
	position := initial - served
	if position < 1 {
		position = 1
	}
	return position
}
