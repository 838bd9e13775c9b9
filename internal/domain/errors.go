package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidUsername = errors.New("username may only contain letters, digits, '.', '_' and '-'")
	ErrMissingFields   = errors.New("all fields are required")

	// Session errors
	ErrInvalidSession = errors.New("session length must be positive")

	// Progression errors
	ErrUnknownEra     = errors.New("unknown era")
	ErrInvalidCatalog = errors.New("invalid era catalog")

	// Social errors
	ErrFriendSelf      = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrRequestPending  = errors.New("friend request already sent")
	ErrNoFriendRequest = errors.New("no pending friend request from this user")
	ErrNotFriends      = errors.New("not friends with this user")

	// Planner errors
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidPriority = errors.New("priority must be Low, Medium or High")
	ErrInvalidDueDate  = errors.New("due date must be YYYY-MM-DD")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Access errors
	ErrUnauthenticated = errors.New("authentication required")

	// Storage errors
	ErrStatsUnavailable = errors.New("stats unavailable")
)
