package domain

import "time"

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyBadge      NotificationType = "badge"
	NotifyEra        NotificationType = "era"
	NotifyUpgrade    NotificationType = "upgrade"
	NotifyFriendship NotificationType = "friendship"
)

// Notification is a user-facing message kept in the local outbox.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often notifications are sent.
type NotificationPolicy struct {
	MaxPerDay  int    `toml:"max_per_day" json:"max_per_day"`
	QuietStart string `toml:"quiet_start" json:"quiet_start"` // "22:00"
	QuietEnd   string `toml:"quiet_end" json:"quiet_end"`     // "08:00"
}

// DefaultNotificationPolicy allows three messages a day outside 22:00 to 08:00.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  3,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}

// DeviceToken is a push registration for one of a user's devices.
type DeviceToken struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"` // "android", "ios" or ""
}
