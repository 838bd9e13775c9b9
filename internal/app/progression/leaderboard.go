package progression

import (
	"math"
	"sort"

	"github.com/tutu-network/focusera/internal/domain"
)

// LeadingMessage is shown when the current user ranks first.
const LeadingMessage = "You're leading the board!"

// SortedLeaderboard merges the current user into the friends list and sorts
// by total descending. The current user is appended after the friends before
// sorting, and the sort is stable, so ties keep friends ahead in their given
// order. Ranks are 1-based positions.
func SortedLeaderboard(current domain.LeaderboardEntry, friends []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	board := make([]domain.LeaderboardEntry, 0, len(friends)+1)
	for _, f := range friends {
		if f.UserID == current.UserID {
			continue
		}
		f.TotalFocusTime = max(f.TotalFocusTime, 0)
		board = append(board, f)
	}
	current.TotalFocusTime = max(current.TotalFocusTime, 0)
	board = append(board, current)

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalFocusTime > board[j].TotalFocusTime
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// Rank computes the current user's standing among their friends.
func Rank(current domain.LeaderboardEntry, friends []domain.LeaderboardEntry) domain.Standing {
	return StandingOf(SortedLeaderboard(current, friends), current.UserID)
}

// StandingOf reads the standing of userID from an already sorted board.
// A user missing from the board gets the zero Standing.
func StandingOf(board []domain.LeaderboardEntry, userID string) domain.Standing {
	pos := -1
	for i, e := range board {
		if e.UserID == userID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return domain.Standing{}
	}

	n := len(board)
	s := domain.Standing{Rank: pos + 1, Entries: n}
	if pos == 0 {
		s.OutperformPercent = 100
		s.Leading = true
		s.Message = LeadingMessage
		return s
	}

	s.OutperformPercent = int(math.Round(float64(n-s.Rank) / float64(n-1) * 100))
	ahead := board[pos-1]
	s.Ahead = &ahead
	s.Gap = ahead.TotalFocusTime - board[pos].TotalFocusTime
	s.Message = "Catch " + ahead.DisplayName + " by clocking " + FormatDuration(s.Gap, false) + " more"
	return s
}
