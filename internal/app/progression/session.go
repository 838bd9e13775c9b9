package progression

import "maps"

// SessionUpdate is the result of folding one completed session into a profile.
type SessionUpdate struct {
	UpdatedTotal int64            `json:"updated_total"`
	UpdatedLogs  map[string]int64 `json:"updated_logs"`
	Today        Day              `json:"today"`
	Recorded     bool             `json:"recorded"`
}

// AggregateSession adds session seconds to the total and to today's log
// entry. prevLogs is never mutated. Sessions of zero or fewer seconds are not
// recorded.
func AggregateSession(prevTotal int64, prevLogs map[string]int64, session int64, today Day) SessionUpdate {
	if prevTotal < 0 {
		prevTotal = 0
	}

	logs := make(map[string]int64, len(prevLogs)+1)
	maps.Copy(logs, prevLogs)

	if session <= 0 {
		return SessionUpdate{UpdatedTotal: prevTotal, UpdatedLogs: logs, Today: today}
	}

	logs[string(today)] = max(logs[string(today)], 0) + session
	return SessionUpdate{
		UpdatedTotal: prevTotal + session,
		UpdatedLogs:  logs,
		Today:        today,
		Recorded:     true,
	}
}

// SumLogs recomputes the cumulative total from the per-day log. Negative
// entries count as zero.
func SumLogs(logs map[string]int64) int64 {
	var total int64
	for _, secs := range logs {
		if secs > 0 {
			total += secs
		}
	}
	return total
}

// ReconcileTotal returns the authoritative cumulative total: the larger of
// the stored total and the sum of the per-day log. The log catches up a total
// whose write was lost; the stored total keeps history that predates logging.
func ReconcileTotal(storedTotal int64, logs map[string]int64) int64 {
	return max(storedTotal, SumLogs(logs), 0)
}

// TimerMode is the focus timer style.
type TimerMode string

const (
	ModePomodoro  TimerMode = "pomodoro"
	ModeStopwatch TimerMode = "stopwatch"
)

// TimerPhase is the pomodoro phase.
type TimerPhase string

const (
	PhaseFocus TimerPhase = "focus"
	PhaseBreak TimerPhase = "break"
)

// LiveFocusTime is the total shown while a session is running. Pomodoro
// breaks do not count as focus.
func LiveFocusTime(mode TimerMode, phase TimerPhase, storedTotal, sessionSeconds int64) int64 {
	storedTotal = max(storedTotal, 0)
	if mode == ModePomodoro && phase == PhaseBreak {
		return storedTotal
	}
	return storedTotal + max(sessionSeconds, 0)
}
