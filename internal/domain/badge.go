package domain

// BadgeCategory groups badges on the badge screen.
type BadgeCategory string

const (
	BadgeEraProgression BadgeCategory = "Era Progression"
	BadgeTotalFocusTime BadgeCategory = "Total Focus Time"
	BadgeStreaks        BadgeCategory = "Streaks"
	BadgeTotalFocusDays BadgeCategory = "Total Focus Days"
)

// BadgeStats is the aggregate snapshot badge predicates evaluate.
type BadgeStats struct {
	TotalFocusTime int64 `json:"total_focus_time"`
	Streak         int   `json:"streak"`
	TotalFocusDays int   `json:"total_focus_days"`
}

// Badge is a static catalog entry. Once unlocked it is never re-locked.
type Badge struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    BadgeCategory         `json:"category"`
	Predicate   func(BadgeStats) bool `json:"-"`
}

// BadgeResult is the outcome of one evaluation. Unlocked is the union of the
// previous set and Newly.
type BadgeResult struct {
	Unlocked []string `json:"unlocked"`
	Newly    []Badge  `json:"newly"`
}
