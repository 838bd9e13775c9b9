package focus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/tutu-network/focusera/internal/domain"
)

// ValidateAddFriend classifies a friend request from current to target.
// Checks run in order: self, already friends, request already sent by
// current, request already sent by target.
func ValidateAddFriend(current, target *domain.FocusProfile) domain.FriendCheck {
	switch {
	case current.UserID == target.UserID:
		return domain.FriendSelf
	case current.HasFriend(target.UserID):
		return domain.FriendAlready
	case target.HasRequestFrom(current.UserID):
		return domain.FriendYouSentRequest
	case current.HasRequestFrom(target.UserID):
		return domain.FriendTheySentRequest
	default:
		return domain.FriendOK
	}
}

// FriendRequestResult reports what a friend request did.
type FriendRequestResult struct {
	Check    domain.FriendCheck `json:"check"`
	TargetID string             `json:"target_id"`
	Accepted bool               `json:"accepted"`
}

// SendFriendRequest asks the user named username to become a friend. When
// that user already asked us, the pending request is accepted instead.
func (s *Service) SendFriendRequest(ctx context.Context, userID, username string) (*FriendRequestResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrMissingFields
	}
	target, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", username, err)
	}

	unlock := s.locks.lockPair(userID, target.UserID)
	defer unlock()

	current, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Re-read under the lock.
	target, err = s.store.GetProfile(ctx, target.UserID)
	if err != nil {
		return nil, err
	}

	check := ValidateAddFriend(current, target)
	res := &FriendRequestResult{Check: check, TargetID: target.UserID}
	switch check {
	case domain.FriendSelf:
		return res, domain.ErrFriendSelf
	case domain.FriendAlready:
		return res, domain.ErrAlreadyFriends
	case domain.FriendYouSentRequest:
		return res, domain.ErrRequestPending
	case domain.FriendTheySentRequest:
		if err := s.befriend(ctx, current, target); err != nil {
			return res, err
		}
		res.Accepted = true
		s.notifyFriend(ctx, target.UserID, "Friend request accepted",
			current.Username+" is now your friend.")
		return res, nil
	}

	requests := append(slices.Clone(target.FriendRequests), userID)
	if err := s.store.MergeProfile(ctx, target.UserID, domain.ProfileUpdate{FriendRequests: requests}); err != nil {
		return res, fmt.Errorf("save friend request: %w", err)
	}
	log.Printf("[focus] %s sent a friend request to %s", userID, target.UserID)
	s.notifyFriend(ctx, target.UserID, "New friend request",
		current.Username+" wants to compare focus time with you.")
	return res, nil
}

// AcceptFriend accepts the pending request from fromID.
func (s *Service) AcceptFriend(ctx context.Context, userID, fromID string) error {
	unlock := s.locks.lockPair(userID, fromID)
	defer unlock()

	current, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !current.HasRequestFrom(fromID) {
		return domain.ErrNoFriendRequest
	}
	from, err := s.store.GetProfile(ctx, fromID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		// The requester is gone; drop the stale request.
		_ = s.store.MergeProfile(ctx, userID, domain.ProfileUpdate{
			FriendRequests: without(current.FriendRequests, fromID),
		})
		return err
	}
	if err != nil {
		return err
	}

	if err := s.befriend(ctx, current, from); err != nil {
		return err
	}
	s.notifyFriend(ctx, fromID, "Friend request accepted", current.Username+" is now your friend.")
	return nil
}

// DeclineFriend drops the pending request from fromID.
func (s *Service) DeclineFriend(ctx context.Context, userID, fromID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !current.HasRequestFrom(fromID) {
		return domain.ErrNoFriendRequest
	}
	return s.store.MergeProfile(ctx, userID, domain.ProfileUpdate{
		FriendRequests: without(current.FriendRequests, fromID),
	})
}

// RemoveFriend ends a friendship on both sides.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	unlock := s.locks.lockPair(userID, friendID)
	defer unlock()

	current, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !current.HasFriend(friendID) {
		return domain.ErrNotFriends
	}
	if err := s.store.MergeProfile(ctx, userID, domain.ProfileUpdate{
		Friends: without(current.Friends, friendID),
	}); err != nil {
		return err
	}

	friend, err := s.store.GetProfile(ctx, friendID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return nil
	case err != nil:
		return err
	case !friend.HasFriend(userID):
		return nil
	}
	return s.store.MergeProfile(ctx, friendID, domain.ProfileUpdate{
		Friends: without(friend.Friends, userID),
	})
}

// FriendRequests lists the profiles with a pending request to userID.
func (s *Service) FriendRequests(ctx context.Context, userID string) ([]domain.LeaderboardEntry, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, 0, len(p.FriendRequests))
	for _, id := range p.FriendRequests {
		from, err := s.profile(ctx, id)
		if errors.Is(err, domain.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entryOf(from))
	}
	return out, nil
}

// befriend links a and b and clears requests between them. Callers hold
// both user locks.
func (s *Service) befriend(ctx context.Context, a, b *domain.FocusProfile) error {
	link := func(p *domain.FocusProfile, other string) error {
		u := domain.ProfileUpdate{FriendRequests: without(p.FriendRequests, other)}
		if !p.HasFriend(other) {
			u.Friends = append(slices.Clone(p.Friends), other)
		}
		return s.store.MergeProfile(ctx, p.UserID, u)
	}
	if err := link(a, b.UserID); err != nil {
		return fmt.Errorf("link %s: %w", a.UserID, err)
	}
	if err := link(b, a.UserID); err != nil {
		return fmt.Errorf("link %s: %w", b.UserID, err)
	}
	log.Printf("[focus] %s and %s are now friends", a.UserID, b.UserID)
	return nil
}

func (s *Service) notifyFriend(ctx context.Context, userID, title, body string) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, domain.Notification{
		UserID: userID, Type: domain.NotifyFriendship, Title: title, Body: body,
	})
	if err != nil {
		log.Printf("[focus] notify %s (friendship): %v", userID, err)
	}
}

// without returns list minus every occurrence of id, never nil.
func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
