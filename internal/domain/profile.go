// Package domain holds the pure focusera types shared by the progression
// engine, the application services and the storage adapters.
package domain

import (
	"slices"
	"time"
)

// ─── Focus Profile ──────────────────────────────────────────────────────────

// FocusProfile is the per-user document. Owned by exactly one user and only
// mutated by session completion and badge unlocks.
type FocusProfile struct {
	UserID         string           `json:"user_id"`
	Username       string           `json:"username"`
	PhotoURL       string           `json:"photo_url,omitempty"`
	TotalFocusTime int64            `json:"total_focus_time"` // seconds, cached sum of DailyLogs
	Streak         int              `json:"streak"`
	LastStudyDate  string           `json:"last_study_date"` // YYYY-MM-DD or ""
	DailyLogs      map[string]int64 `json:"daily_logs"`      // YYYY-MM-DD -> seconds
	UnlockedBadges []string         `json:"unlocked_badges"`
	Friends        []string         `json:"friends"`
	FriendRequests []string         `json:"friend_requests"` // incoming, by sender id
	CreatedAt      time.Time        `json:"created_at"`
}

// HasFriend reports whether id is in the friend list.
func (p FocusProfile) HasFriend(id string) bool { return slices.Contains(p.Friends, id) }

// HasRequestFrom reports whether id has a pending request to this profile.
func (p FocusProfile) HasRequestFrom(id string) bool {
	return slices.Contains(p.FriendRequests, id)
}

// ProfileUpdate is a merge-style write. Nil fields are left untouched;
// DailyLogs entries are merged per day key rather than replacing the map.
type ProfileUpdate struct {
	Username       *string
	PhotoURL       *string
	TotalFocusTime *int64
	Streak         *int
	LastStudyDate  *string
	DailyLogs      map[string]int64
	UnlockedBadges []string // full set when non-nil
	Friends        []string // full list when non-nil
	FriendRequests []string // full list when non-nil
}

// IsEmpty reports whether the update would write nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Username == nil && u.PhotoURL == nil && u.TotalFocusTime == nil &&
		u.Streak == nil && u.LastStudyDate == nil && len(u.DailyLogs) == 0 &&
		u.UnlockedBadges == nil && u.Friends == nil && u.FriendRequests == nil
}

// Apply merges the update into p in place. Stores that cannot express a
// partial write natively read, Apply, then write back.
func (u ProfileUpdate) Apply(p *FocusProfile) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
	if u.TotalFocusTime != nil {
		p.TotalFocusTime = *u.TotalFocusTime
	}
	if u.Streak != nil {
		p.Streak = *u.Streak
	}
	if u.LastStudyDate != nil {
		p.LastStudyDate = *u.LastStudyDate
	}
	if len(u.DailyLogs) > 0 {
		if p.DailyLogs == nil {
			p.DailyLogs = make(map[string]int64, len(u.DailyLogs))
		}
		for day, secs := range u.DailyLogs {
			p.DailyLogs[day] = secs
		}
	}
	if u.UnlockedBadges != nil {
		p.UnlockedBadges = slices.Clone(u.UnlockedBadges)
	}
	if u.Friends != nil {
		p.Friends = slices.Clone(u.Friends)
	}
	if u.FriendRequests != nil {
		p.FriendRequests = slices.Clone(u.FriendRequests)
	}
}

// ─── Planner ────────────────────────────────────────────────────────────────

// Priority ranks planner tasks.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task is a planner entry. DueDate is YYYY-MM-DD and sorts lexically.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	DueDate   string    `json:"due_date"`
	Priority  Priority  `json:"priority"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}
