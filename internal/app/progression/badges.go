package progression

import (
	"slices"

	"github.com/tutu-network/focusera/internal/domain"
)

// Badges returns the badge catalog. Era badges reuse the boundaries of t.
func Badges(t domain.ThresholdTable) []domain.Badge {
	totalAtLeast := func(secs int64) func(domain.BadgeStats) bool {
		return func(s domain.BadgeStats) bool { return s.TotalFocusTime >= secs }
	}
	streakAtLeast := func(days int) func(domain.BadgeStats) bool {
		return func(s domain.BadgeStats) bool { return s.Streak >= days }
	}
	daysAtLeast := func(days int) func(domain.BadgeStats) bool {
		return func(s domain.BadgeStats) bool { return s.TotalFocusDays >= days }
	}

	return []domain.Badge{
		// Era Progression
		{ID: "ancientbadge", Name: "Conqueror of Egypt", Category: domain.BadgeEraProgression,
			Description: "Completed the Ancient Era and stepped into the Renaissance.",
			Predicate:   totalAtLeast(t.RenaissanceStart)},
		{ID: "renaissancebadge", Name: "Ruler of the Renaissance", Category: domain.BadgeEraProgression,
			Description: "Moved past the Renaissance Era toward the future.",
			Predicate:   totalAtLeast(t.FutureStart)},
		{ID: "futurebadge", Name: "Beyond Time", Category: domain.BadgeEraProgression,
			Description: "Completed the final era.",
			Predicate:   totalAtLeast(t.FutureEnd)},

		// Total Focus Time
		{ID: "totaltime10", Name: "The First 10", Category: domain.BadgeTotalFocusTime,
			Description: "Logged 10 hours of focus.", Predicate: totalAtLeast(10 * secondsPerHour)},
		{ID: "totaltime100", Name: "Centurion of Focus", Category: domain.BadgeTotalFocusTime,
			Description: "Logged 100 hours of focus.", Predicate: totalAtLeast(100 * secondsPerHour)},
		{ID: "totaltime1000", Name: "The Thousand Hour Master", Category: domain.BadgeTotalFocusTime,
			Description: "Logged 1000 hours of focus.", Predicate: totalAtLeast(1000 * secondsPerHour)},

		// Streaks
		{ID: "streak10", Name: "Streak Seeker", Category: domain.BadgeStreaks,
			Description: "Focused 10 days in a row.", Predicate: streakAtLeast(10)},
		{ID: "streak30", Name: "One-Month Monk", Category: domain.BadgeStreaks,
			Description: "Focused 30 days in a row.", Predicate: streakAtLeast(30)},
		{ID: "streak100", Name: "The Unbroken 100", Category: domain.BadgeStreaks,
			Description: "Focused 100 days in a row.", Predicate: streakAtLeast(100)},

		// Total Focus Days
		{ID: "totaldays10", Name: "The First Ten Days", Category: domain.BadgeTotalFocusDays,
			Description: "Focused on 10 different days.", Predicate: daysAtLeast(10)},
		{ID: "totaldays100", Name: "Century of Days", Category: domain.BadgeTotalFocusDays,
			Description: "Focused on 100 different days.", Predicate: daysAtLeast(100)},
		{ID: "totaldays1000", Name: "1000-Day Legend", Category: domain.BadgeTotalFocusDays,
			Description: "Focused on 1000 different days.", Predicate: daysAtLeast(1000)},
	}
}

// TotalFocusDays counts log entries with positive focus.
func TotalFocusDays(logs map[string]int64) int {
	n := 0
	for _, secs := range logs {
		if secs > 0 {
			n++
		}
	}
	return n
}

// EvaluateBadges checks every predicate against stats. Ids already in
// unlocked are kept whatever the stats say; newly crossed badges are
// appended in catalog order.
func EvaluateBadges(catalog []domain.Badge, stats domain.BadgeStats, unlocked []string) domain.BadgeResult {
	result := domain.BadgeResult{Unlocked: slices.Clone(unlocked)}
	if result.Unlocked == nil {
		result.Unlocked = []string{}
	}

	for _, b := range catalog {
		if slices.Contains(result.Unlocked, b.ID) {
			continue
		}
		if b.Predicate != nil && b.Predicate(stats) {
			result.Unlocked = append(result.Unlocked, b.ID)
			result.Newly = append(result.Newly, b)
		}
	}
	return result
}

// SplitBadges partitions the catalog by unlock status, keeping catalog order.
func SplitBadges(catalog []domain.Badge, unlocked []string) (got, locked []domain.Badge) {
	got, locked = []domain.Badge{}, []domain.Badge{}
	for _, b := range catalog {
		if slices.Contains(unlocked, b.ID) {
			got = append(got, b)
		} else {
			locked = append(locked, b)
		}
	}
	return got, locked
}
