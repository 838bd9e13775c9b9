package domain

// ─── Leaderboard ────────────────────────────────────────────────────────────

// LeaderboardEntry is built per query from the current user and friends.
type LeaderboardEntry struct {
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	TotalFocusTime int64  `json:"total_focus_time"`
	Rank           int    `json:"rank"`
}

// Standing is the current user's position on their friends board.
type Standing struct {
	Rank              int               `json:"rank"`
	Entries           int               `json:"entries"`
	OutperformPercent int               `json:"outperform_percent"`
	Leading           bool              `json:"leading"`
	Gap               int64             `json:"gap"`
	Ahead             *LeaderboardEntry `json:"ahead,omitempty"`
	Message           string            `json:"message"`
}

// FriendCheck is the outcome of validating a friend request.
type FriendCheck string

const (
	FriendSelf            FriendCheck = "self"
	FriendAlready         FriendCheck = "alreadyFriends"
	FriendYouSentRequest  FriendCheck = "youSentRequest"
	FriendTheySentRequest FriendCheck = "theySentRequest"
	FriendOK              FriendCheck = "ok"
)

// ─── Daily Stats ────────────────────────────────────────────────────────────

// DailyStats summarises the per-day log.
type DailyStats struct {
	Average float64 `json:"average"`
	Longest int64   `json:"longest"`
	NumDays int     `json:"num_days"`
}
