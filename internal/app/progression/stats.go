package progression

import (
	"math"
	"sort"

	"github.com/tutu-network/focusera/internal/domain"
)

// DailyStatsOf summarises the per-day log. Empty logs give all zeros.
func DailyStatsOf(logs map[string]int64) domain.DailyStats {
	if len(logs) == 0 {
		return domain.DailyStats{}
	}

	var sum, longest int64
	for _, secs := range logs {
		secs = max(secs, 0)
		sum += secs
		longest = max(longest, secs)
	}
	return domain.DailyStats{
		Average: float64(sum) / float64(len(logs)),
		Longest: longest,
		NumDays: len(logs),
	}
}

// WeeklyTrend returns minutes focused on each day of today's ISO week,
// Monday first, rounded to one decimal. Days without entries are 0.
func WeeklyTrend(logs map[string]int64, today Day) [7]float64 {
	var trend [7]float64
	monday := today.WeekStart()
	if monday == "" {
		return trend
	}
	for i := range trend {
		secs := max(logs[string(monday.AddDays(i))], 0)
		trend[i] = math.Round(float64(secs)/60*10) / 10
	}
	return trend
}

// MarkedDates lists the days with positive focus, oldest first, for the
// calendar view.
func MarkedDates(logs map[string]int64) []string {
	days := make([]string, 0, len(logs))
	for day, secs := range logs {
		if secs > 0 {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}
