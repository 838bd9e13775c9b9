package focus

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/tutu-network/focusera/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// IsValidUsername reports whether name uses only letters, digits, '.', '_'
// and '-'.
func IsValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// AllFieldsFilled reports whether every field has non-blank content.
func AllFieldsFilled(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// ProfileImageName maps a photo URL to one of the bundled avatars.
func ProfileImageName(photoURL string) string {
	switch {
	case strings.Contains(photoURL, "griffin"):
		return "griffin"
	case strings.Contains(photoURL, "robot"):
		return "robot"
	default:
		return "sphinx"
	}
}

// CreateProfile registers a new user with an empty focus history.
func (s *Service) CreateProfile(ctx context.Context, userID, username, photoURL string) (*domain.FocusProfile, error) {
	username = strings.TrimSpace(username)
	if !AllFieldsFilled(userID, username) {
		return nil, domain.ErrMissingFields
	}
	if !IsValidUsername(username) {
		return nil, domain.ErrInvalidUsername
	}

	p := domain.FocusProfile{
		UserID:         userID,
		Username:       username,
		PhotoURL:       photoURL,
		DailyLogs:      map[string]int64{},
		UnlockedBadges: []string{},
		Friends:        []string{},
		FriendRequests: []string{},
		CreatedAt:      s.clock.Now(),
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", username, err)
	}
	log.Printf("[focus] created profile %s (%s)", username, userID)
	return &p, nil
}

// Profile returns the user's profile with its total reconciled against the
// daily logs.
func (s *Service) Profile(ctx context.Context, userID string) (*domain.FocusProfile, error) {
	return s.profile(ctx, userID)
}

// UpdateProfile renames the user or changes their avatar. Nil arguments are
// left untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID string, username, photoURL *string) (*domain.FocusProfile, error) {
	u := domain.ProfileUpdate{PhotoURL: photoURL}
	if username != nil {
		name := strings.TrimSpace(*username)
		if !IsValidUsername(name) {
			return nil, domain.ErrInvalidUsername
		}
		u.Username = &name
	}

	unlock := s.locks.lock(userID)
	defer unlock()
	if !u.IsEmpty() {
		if err := s.store.MergeProfile(ctx, userID, u); err != nil {
			return nil, err
		}
	}
	return s.profile(ctx, userID)
}
