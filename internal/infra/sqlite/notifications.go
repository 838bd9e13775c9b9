package sqlite

import (
	"context"
	"time"

	"github.com/tutu-network/focusera/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (d *DB) InsertNotification(ctx context.Context, n domain.Notification) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Title, n.Body, n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NotificationCountSince returns how many notifications a user got since t.
func (d *DB) NotificationCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`,
		userID, since.Unix(),
	).Scan(&count)
	return count, err
}

// ListPendingNotifications returns a user's unshown notifications, newest first.
func (d *DB) ListPendingNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, body, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifs := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &createdAt, &n.Shown); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(createdAt, 0)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks one of a user's notifications as shown.
func (d *DB) MarkNotificationShown(ctx context.Context, userID string, id int64) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE notifications SET shown = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// ─── Devices ────────────────────────────────────────────────────────────────

// RegisterDevice stores a push token. A token moves to the latest user.
func (d *DB) RegisterDevice(ctx context.Context, dev domain.DeviceToken) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO devices (token, user_id, platform) VALUES (?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET user_id=excluded.user_id, platform=excluded.platform`,
		dev.Token, dev.UserID, dev.Platform,
	)
	return err
}

// ListDevices returns a user's registered push tokens.
func (d *DB) ListDevices(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT token, user_id, platform FROM devices WHERE user_id = ? ORDER BY token`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []domain.DeviceToken
	for rows.Next() {
		var dev domain.DeviceToken
		if err := rows.Scan(&dev.Token, &dev.UserID, &dev.Platform); err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}
