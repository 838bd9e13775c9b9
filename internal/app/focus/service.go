// Package focus is the application layer of focusera. It reads a user's
// profile snapshot, runs the progression engine over it and persists the
// changed fields with a single merge write.
package focus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/infra/metrics"
)

// Service coordinates sessions, dashboards, friends and the planner.
type Service struct {
	store    domain.Store
	catalog  *progression.Catalog
	clock    progression.Clock
	loc      *time.Location
	notifier *Notifier
	locks    *userLocks
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the clock used for "today".
func WithClock(c progression.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the time zone calendar days are cut in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithNotifier enables notifications for unlocks and friend activity.
func WithNotifier(n *Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a focus service over store and catalog.
func NewService(store domain.Store, catalog *progression.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		clock:   progression.SystemClock{},
		loc:     time.Local,
		locks:   newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the era catalog in use.
func (s *Service) Catalog() *progression.Catalog { return s.catalog }

// Notifier returns the configured notifier, or nil.
func (s *Service) Notifier() *Notifier { return s.notifier }

func (s *Service) today() progression.Day {
	return progression.Today(s.clock, s.loc)
}

// profile loads a snapshot and reconciles its cached total with the logs.
func (s *Service) profile(ctx context.Context, userID string) (*domain.FocusProfile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStatsUnavailable, err)
	}
	p.TotalFocusTime = progression.ReconcileTotal(p.TotalFocusTime, p.DailyLogs)
	return p, nil
}

// ─── Session Completion ─────────────────────────────────────────────────────

// SessionResult describes everything a completed session changed.
type SessionResult struct {
	Seconds        int64             `json:"seconds"`
	Today          string            `json:"today"`
	TotalFocusTime int64             `json:"total_focus_time"`
	TodaySeconds   int64             `json:"today_seconds"`
	Streak         int               `json:"streak"`
	StreakChanged  bool              `json:"streak_changed"`
	Before         domain.EraState   `json:"before"`
	After          domain.EraState   `json:"after"`
	EraChanged     bool              `json:"era_changed"`
	LevelChanged   bool              `json:"level_changed"`
	NewBadges      []domain.Badge    `json:"new_badges"`
	Scene          []SceneAsset      `json:"scene"`
	Delta          domain.SceneDelta `json:"delta"`
}

// CompleteSession folds a finished focus session into the user's profile:
// total, today's log, streak and badges are updated in one merge write.
// Non-positive sessions are rejected without touching storage.
func (s *Service) CompleteSession(ctx context.Context, userID string, seconds int64) (*SessionResult, error) {
	if seconds <= 0 {
		metrics.SessionsRejected.WithLabelValues("non_positive").Inc()
		return nil, domain.ErrInvalidSession
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	prevTotal := p.TotalFocusTime
	agg := progression.AggregateSession(prevTotal, p.DailyLogs, seconds, today)
	streak := progression.NextStreak(p.LastStudyDate, p.Streak, today)
	badges := progression.EvaluateBadges(s.catalog.Badges(), domain.BadgeStats{
		TotalFocusTime: agg.UpdatedTotal,
		Streak:         streak.Streak,
		TotalFocusDays: progression.TotalFocusDays(agg.UpdatedLogs),
	}, p.UnlockedBadges)

	todaySecs := agg.UpdatedLogs[string(today)]
	update := domain.ProfileUpdate{
		TotalFocusTime: &agg.UpdatedTotal,
		DailyLogs:      map[string]int64{string(today): todaySecs},
	}
	if streak.Changed {
		day := string(streak.UpdatedDate)
		update.Streak = &streak.Streak
		update.LastStudyDate = &day
	}
	if len(badges.Newly) > 0 {
		update.UnlockedBadges = badges.Unlocked
	}

	if err := s.store.MergeProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	before := s.catalog.Classify(prevTotal)
	after := s.catalog.Classify(agg.UpdatedTotal)
	prevScene, _ := s.catalog.Resolve(after.Era, prevTotal)
	nextScene, _ := s.catalog.Resolve(after.Era, agg.UpdatedTotal)

	result := &SessionResult{
		Seconds:        seconds,
		Today:          string(today),
		TotalFocusTime: agg.UpdatedTotal,
		TodaySeconds:   todaySecs,
		Streak:         streak.Streak,
		StreakChanged:  streak.Changed,
		Before:         before,
		After:          after,
		EraChanged:     before.Era != after.Era,
		LevelChanged:   before.Era == after.Era && before.Level != after.Level,
		NewBadges:      badges.Newly,
		Scene:          s.withImages(after.Era, nextScene),
		Delta:          progression.Diff(prevScene, nextScene),
	}
	if result.NewBadges == nil {
		result.NewBadges = []domain.Badge{}
	}

	metrics.SessionsCompleted.Inc()
	metrics.FocusSeconds.Add(float64(seconds))
	metrics.SessionLength.Observe(float64(seconds))
	for _, b := range badges.Newly {
		metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
	}
	if result.EraChanged {
		metrics.EraTransitions.WithLabelValues(string(after.Era)).Inc()
	}
	log.Printf("[focus] %s: +%ds, total %d, streak %d, %d new badge(s)",
		userID, seconds, agg.UpdatedTotal, streak.Streak, len(badges.Newly))

	s.notifySession(ctx, userID, result)
	return result, nil
}

func (s *Service) notifySession(ctx context.Context, userID string, r *SessionResult) {
	if s.notifier == nil {
		return
	}
	var notes []domain.Notification
	for _, b := range r.NewBadges {
		notes = append(notes, domain.Notification{
			UserID: userID, Type: domain.NotifyBadge,
			Title: "Badge unlocked: " + b.Name, Body: b.Description,
		})
	}
	switch {
	case r.EraChanged:
		notes = append(notes, domain.Notification{
			UserID: userID, Type: domain.NotifyEra,
			Title: "Welcome to the " + r.After.EraName + " Era",
			Body:  "A new era of your world has opened.",
		})
	case r.LevelChanged:
		notes = append(notes, domain.Notification{
			UserID: userID, Type: domain.NotifyUpgrade,
			Title: r.After.EraName + " upgraded",
			Body:  fmt.Sprintf("Your %s scene reached level %d.", r.After.EraName, r.After.Level+1),
		})
	}
	for _, n := range notes {
		if _, err := s.notifier.Notify(ctx, n); err != nil {
			log.Printf("[focus] notify %s (%s): %v", userID, n.Type, err)
		}
	}
}

// ─── Scenes ─────────────────────────────────────────────────────────────────

// SceneAsset is a rendered asset with its resolved image handle.
type SceneAsset struct {
	domain.RenderedAsset
	Image string `json:"image"`
}

// SceneView is one era scene rendered for a user.
type SceneView struct {
	Era     domain.Era    `json:"era"`
	Name    string        `json:"name"`
	Layout  domain.Layout `json:"layout"`
	Reached bool          `json:"reached"`
	Assets  []SceneAsset  `json:"assets"`
}

func (s *Service) withImages(e domain.Era, rendered []domain.RenderedAsset) []SceneAsset {
	out := make([]SceneAsset, 0, len(rendered))
	for _, a := range rendered {
		img, _ := s.catalog.Image(e, a.AssetID, a.Variant)
		out = append(out, SceneAsset{RenderedAsset: a, Image: img})
	}
	return out
}

// Scene renders any era for the user, including eras not yet reached.
func (s *Service) Scene(ctx context.Context, userID string, era domain.Era) (*SceneView, error) {
	scene, err := s.catalog.Scene(era)
	if err != nil {
		return nil, err
	}
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sceneView(scene, p.TotalFocusTime), nil
}

func (s *Service) sceneView(scene domain.EraScene, total int64) *SceneView {
	reached := false
	for _, b := range progression.Bounds(s.catalog.Table) {
		if b.Era == scene.Era {
			reached = total >= b.Start
		}
	}
	return &SceneView{
		Era:     scene.Era,
		Name:    scene.Name,
		Layout:  scene.Layout,
		Reached: reached,
		Assets:  s.withImages(scene.Era, progression.Resolve(scene, total, s.catalog.Table)),
	}
}

// ─── Dashboard ──────────────────────────────────────────────────────────────

// LiveSession is an in-progress timer folded into the displayed total.
type LiveSession struct {
	Mode    progression.TimerMode
	Phase   progression.TimerPhase
	Seconds int64
}

// Dashboard is the home screen state.
type Dashboard struct {
	UserID         string          `json:"user_id"`
	Username       string          `json:"username"`
	StoredTotal    int64           `json:"stored_total"`
	TotalFocusTime int64           `json:"total_focus_time"`
	TotalLabel     string          `json:"total_label"`
	State          domain.EraState `json:"state"`
	Fraction       float64         `json:"fraction"`
	CurrentLabel   string          `json:"current_label"`
	MaxLabel       string          `json:"max_label"`
	Scene          *SceneView      `json:"scene"`
	Streak         int             `json:"streak"`
	Unlocked       []domain.Badge  `json:"unlocked"`
	Locked         []domain.Badge  `json:"locked"`
	Stats          *Stats          `json:"stats"`
}

// Dashboard renders the user's current era, progress and stats. The live
// session, if any, is added to the stored total for display only.
func (s *Service) Dashboard(ctx context.Context, userID string, live LiveSession) (*Dashboard, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := progression.LiveFocusTime(live.Mode, live.Phase, p.TotalFocusTime, live.Seconds)
	state := s.catalog.Classify(total)
	scene, err := s.catalog.Scene(state.Era)
	if err != nil {
		return nil, err
	}
	got, locked := progression.SplitBadges(s.catalog.Badges(), p.UnlockedBadges)

	return &Dashboard{
		UserID:         p.UserID,
		Username:       p.Username,
		StoredTotal:    p.TotalFocusTime,
		TotalFocusTime: total,
		TotalLabel:     progression.FormatDuration(total, false),
		State:          state,
		Fraction:       state.Fraction(),
		CurrentLabel:   progression.FormatDuration(state.Current, false),
		MaxLabel:       progression.FormatDuration(state.Max, true),
		Scene:          s.sceneView(scene, total),
		Streak:         p.Streak,
		Unlocked:       got,
		Locked:         locked,
		Stats:          s.statsOf(p),
	}, nil
}

// ─── Badges & Stats ─────────────────────────────────────────────────────────

// BadgeBoard splits the badge catalog by unlock status.
type BadgeBoard struct {
	Unlocked []domain.Badge `json:"unlocked"`
	Locked   []domain.Badge `json:"locked"`
}

// Badges returns the user's unlocked and locked badges in catalog order.
func (s *Service) Badges(ctx context.Context, userID string) (*BadgeBoard, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	got, locked := progression.SplitBadges(s.catalog.Badges(), p.UnlockedBadges)
	return &BadgeBoard{Unlocked: got, Locked: locked}, nil
}

// Stats is the analytics view of the per-day log.
type Stats struct {
	TotalFocusTime int64             `json:"total_focus_time"`
	Streak         int               `json:"streak"`
	TotalFocusDays int               `json:"total_focus_days"`
	Daily          domain.DailyStats `json:"daily"`
	Weekly         [7]float64        `json:"weekly"`
	MarkedDates    []string          `json:"marked_dates"`
}

// Stats returns the user's daily stats, weekly trend and calendar marks.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.statsOf(p), nil
}

func (s *Service) statsOf(p *domain.FocusProfile) *Stats {
	return &Stats{
		TotalFocusTime: p.TotalFocusTime,
		Streak:         p.Streak,
		TotalFocusDays: progression.TotalFocusDays(p.DailyLogs),
		Daily:          progression.DailyStatsOf(p.DailyLogs),
		Weekly:         progression.WeeklyTrend(p.DailyLogs, s.today()),
		MarkedDates:    progression.MarkedDates(p.DailyLogs),
	}
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

// Leaderboard is the friends board plus the user's standing on it.
type Leaderboard struct {
	Entries  []domain.LeaderboardEntry `json:"entries"`
	Standing domain.Standing           `json:"standing"`
}

// Leaderboard ranks the user among their friends. Friends whose profile no
// longer exists are skipped.
func (s *Service) Leaderboard(ctx context.Context, userID string) (*Leaderboard, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]domain.LeaderboardEntry, 0, len(p.Friends))
	for _, id := range p.Friends {
		f, err := s.profile(ctx, id)
		if errors.Is(err, domain.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		friends = append(friends, entryOf(f))
	}

	board := progression.SortedLeaderboard(entryOf(p), friends)
	return &Leaderboard{Entries: board, Standing: progression.StandingOf(board, userID)}, nil
}

func entryOf(p *domain.FocusProfile) domain.LeaderboardEntry {
	name := p.Username
	if name == "" {
		name = p.UserID
	}
	return domain.LeaderboardEntry{UserID: p.UserID, DisplayName: name, TotalFocusTime: p.TotalFocusTime}
}
