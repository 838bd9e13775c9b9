package focus

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
)

// SortBy orders the planner list.
type SortBy string

const (
	SortDeadline SortBy = "deadline"
	SortPriority SortBy = "priority"
)

// ParseSortBy accepts "deadline" or "priority"; anything else is deadline.
func ParseSortBy(s string) SortBy {
	if SortBy(strings.ToLower(s)) == SortPriority {
		return SortPriority
	}
	return SortDeadline
}

var priorityRank = map[domain.Priority]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
}

// SortTasks returns a sorted copy of tasks. Deadline order compares due
// dates lexically; priority order puts High first and breaks ties by due
// date. Both sorts are stable.
func SortTasks(tasks []domain.Task, by SortBy) []domain.Task {
	sorted := slices.Clone(tasks)
	if by == SortPriority {
		sort.SliceStable(sorted, func(i, j int) bool {
			pi, pj := priorityRank[sorted[i].Priority], priorityRank[sorted[j].Priority]
			if pi != pj {
				return pi < pj
			}
			return sorted[i].DueDate < sorted[j].DueDate
		})
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate < sorted[j].DueDate
	})
	return sorted
}

// PriorityColor is the card background for a priority.
func PriorityColor(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "#ffe5e5"
	case domain.PriorityMedium:
		return "#fff5d6"
	case domain.PriorityLow:
		return "#e5f5e5"
	default:
		return "#ffffff"
	}
}

// ParsePriority accepts a priority name case-insensitively. Empty means
// Medium.
func ParsePriority(s string) (domain.Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.PriorityMedium, nil
	}
	p := domain.Priority(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPriority, s)
	}
	return p, nil
}

// ─── Planner Operations ─────────────────────────────────────────────────────

// AddTask creates a planner task.
func (s *Service) AddTask(ctx context.Context, userID, text, dueDate, priority string) (*domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrMissingFields
	}
	dueDate = strings.TrimSpace(dueDate)
	if dueDate != "" {
		if _, ok := progression.ParseDay(dueDate); !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDueDate, dueDate)
		}
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return nil, err
	}

	t := domain.Task{
		ID:        uuid.NewString(),
		Text:      text,
		DueDate:   dueDate,
		Priority:  p,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.PutTask(ctx, userID, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return &t, nil
}

// ListTasks returns the user's tasks in the requested order.
func (s *Service) ListTasks(ctx context.Context, userID string, by SortBy) ([]domain.Task, error) {
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return SortTasks(tasks, by), nil
}

// ToggleTask flips a task between done and open.
func (s *Service) ToggleTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	i := slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == taskID })
	if i < 0 {
		return nil, domain.ErrTaskNotFound
	}

	t := tasks[i]
	t.Done = !t.Done
	if err := s.store.PutTask(ctx, userID, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return &t, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.store.DeleteTask(ctx, userID, taskID)
}
