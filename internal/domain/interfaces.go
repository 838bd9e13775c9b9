package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ProfileStore is the per-user document store. Implemented by
// infra/sqlite, infra/postgres and infra/firestore.
type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound when the user has no document.
	GetProfile(ctx context.Context, userID string) (*FocusProfile, error)

	// FindByUsername returns ErrProfileNotFound when no user has the name.
	FindByUsername(ctx context.Context, username string) (*FocusProfile, error)

	// CreateProfile returns ErrProfileExists or ErrUsernameTaken on conflict.
	CreateProfile(ctx context.Context, p FocusProfile) error

	// MergeProfile writes only the fields set in u. Last write wins per field.
	MergeProfile(ctx context.Context, userID string, u ProfileUpdate) error

	Ping(ctx context.Context) error
	Close() error
}

// TaskStore keeps planner tasks per user.
type TaskStore interface {
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	PutTask(ctx context.Context, userID string, t Task) error
	// DeleteTask returns ErrTaskNotFound when nothing was removed.
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// Store is a full document backend.
type Store interface {
	ProfileStore
	TaskStore
}

// NotificationLog is the local notification outbox.
type NotificationLog interface {
	InsertNotification(ctx context.Context, n Notification) (int64, error)
	NotificationCountSince(ctx context.Context, userID string, since time.Time) (int, error)
	ListPendingNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkNotificationShown(ctx context.Context, userID string, id int64) error
	RegisterDevice(ctx context.Context, d DeviceToken) error
	ListDevices(ctx context.Context, userID string) ([]DeviceToken, error)
}

// Pusher delivers a notification to a user's devices.
type Pusher interface {
	Push(ctx context.Context, devices []DeviceToken, n Notification) error
}
