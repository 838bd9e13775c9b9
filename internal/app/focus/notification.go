package focus

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/infra/metrics"
)

// Notifier applies the notification policy, keeps the outbox and pushes to
// registered devices.
//   - At most MaxPerDay notifications per user per calendar day
//   - Nothing between QuietStart and QuietEnd
//   - Only unlocks, upgrades and friend activity generate notifications
type Notifier struct {
	outbox domain.NotificationLog
	pusher domain.Pusher
	policy domain.NotificationPolicy
	clock  progression.Clock
	loc    *time.Location
}

// NewNotifier creates a notifier with the default policy. A nil pusher keeps
// notifications in the outbox only.
func NewNotifier(outbox domain.NotificationLog, pusher domain.Pusher) *Notifier {
	return NewNotifierWithPolicy(outbox, pusher, domain.DefaultNotificationPolicy())
}

// NewNotifierWithPolicy creates a notifier with a custom policy.
func NewNotifierWithPolicy(outbox domain.NotificationLog, pusher domain.Pusher, policy domain.NotificationPolicy) *Notifier {
	return &Notifier{
		outbox: outbox,
		pusher: pusher,
		policy: policy,
		clock:  progression.SystemClock{},
		loc:    time.Local,
	}
}

// WithClock sets the clock and time zone used for quiet hours and the
// daily cap.
func (n *Notifier) WithClock(c progression.Clock, loc *time.Location) *Notifier {
	n.clock = c
	if loc != nil {
		n.loc = loc
	}
	return n
}

// Notify stores and pushes notif if the policy allows it. Returns the
// notification id, or 0 when the policy suppressed it.
func (n *Notifier) Notify(ctx context.Context, notif domain.Notification) (int64, error) {
	now := n.clock.Now().In(n.loc)

	if n.isQuietHour(now) {
		metrics.Notifications.WithLabelValues(string(notif.Type), "quiet").Inc()
		return 0, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.loc)
	count, err := n.outbox.NotificationCountSince(ctx, notif.UserID, midnight)
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	if count >= n.policy.MaxPerDay {
		metrics.Notifications.WithLabelValues(string(notif.Type), "capped").Inc()
		return 0, nil
	}

	notif.CreatedAt = now
	notif.Shown = false
	id, err := n.outbox.InsertNotification(ctx, notif)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	notif.ID = id

	outcome := "sent"
	if n.pusher != nil {
		devices, err := n.outbox.ListDevices(ctx, notif.UserID)
		if err != nil {
			return id, fmt.Errorf("list devices: %w", err)
		}
		if len(devices) > 0 {
			if err := n.pusher.Push(ctx, devices, notif); err != nil {
				log.Printf("[focus] push %d to %s: %v", id, notif.UserID, err)
				outcome = "failed"
			}
		}
	}
	metrics.Notifications.WithLabelValues(string(notif.Type), outcome).Inc()
	return id, nil
}

// Pending returns unshown notifications.
func (n *Notifier) Pending(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return n.outbox.ListPendingNotifications(ctx, userID, limit)
}

// MarkShown marks a notification as shown.
func (n *Notifier) MarkShown(ctx context.Context, userID string, id int64) error {
	return n.outbox.MarkNotificationShown(ctx, userID, id)
}

// RegisterDevice records a push token for the user.
func (n *Notifier) RegisterDevice(ctx context.Context, d domain.DeviceToken) error {
	d.Token = strings.TrimSpace(d.Token)
	if d.UserID == "" || d.Token == "" {
		return domain.ErrMissingFields
	}
	return n.outbox.RegisterDevice(ctx, d)
}

// Policy returns the current notification policy.
func (n *Notifier) Policy() domain.NotificationPolicy {
	return n.policy
}

// isQuietHour returns true if the given time falls within quiet hours.
func (n *Notifier) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes == endMinutes {
		return false
	}
	if startMinutes > endMinutes {
		// Wraps midnight: e.g. 22:00 to 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
