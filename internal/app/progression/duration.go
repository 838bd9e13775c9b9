package progression

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
)

// FormatDuration renders seconds as a compact "1d 2h 3m 4s" label, trimmed of
// leading and trailing zero units. In max mode an exact number of days, hours
// or minutes collapses to that single unit ("25h", not "1d 1h").
func FormatDuration(seconds int64, max bool) string {
	if seconds <= 0 {
		return "0s"
	}

	if max {
		switch {
		case seconds%secondsPerDay == 0:
			return fmt.Sprintf("%dd", seconds/secondsPerDay)
		case seconds%secondsPerHour == 0:
			return fmt.Sprintf("%dh", seconds/secondsPerHour)
		case seconds%secondsPerMinute == 0:
			return fmt.Sprintf("%dm", seconds/secondsPerMinute)
		}
	}

	units := [4]struct {
		value  int64
		suffix string
	}{
		{seconds / secondsPerDay, "d"},
		{seconds % secondsPerDay / secondsPerHour, "h"},
		{seconds % secondsPerHour / secondsPerMinute, "m"},
		{seconds % secondsPerMinute, "s"},
	}

	first, last := -1, -1
	for i, u := range units {
		if u.value != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	parts := make([]string, 0, last-first+1)
	for _, u := range units[first : last+1] {
		parts = append(parts, strconv.FormatInt(u.value, 10)+u.suffix)
	}
	return strings.Join(parts, " ")
}

// FormatClock renders a running timer as "MM:SS". Minutes do not wrap.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/secondsPerMinute, seconds%secondsPerMinute)
}
