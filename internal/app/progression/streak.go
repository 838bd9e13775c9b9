package progression

// StreakUpdate is the result of crediting a session to the streak.
type StreakUpdate struct {
	Streak      int  `json:"streak"`
	UpdatedDate Day  `json:"updated_date"`
	Changed     bool `json:"changed"`
}

// NextStreak credits today to the streak. A second call on the same day is a
// no-op, yesterday extends the streak, anything else (gap, empty or
// malformed date) restarts it at 1.
func NextStreak(lastStudyDate string, streak int, today Day) StreakUpdate {
	if streak < 0 {
		streak = 0
	}

	switch Day(lastStudyDate) {
	case today:
		return StreakUpdate{Streak: streak, UpdatedDate: today}
	case today.Yesterday():
		return StreakUpdate{Streak: streak + 1, UpdatedDate: today, Changed: true}
	default:
		return StreakUpdate{Streak: 1, UpdatedDate: today, Changed: true}
	}
}
