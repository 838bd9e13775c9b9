// Package postgres is the hosted profile store. Profiles, daily logs and
// planner tasks live in three tables; list fields use text[] columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutu-network/focusera/internal/domain"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings suited to a small API.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Store implements domain.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ domain.Store = (*Store)(nil)

// Open connects to dbURL, pings and migrates the schema.
func Open(ctx context.Context, dbURL string, pc PoolConfig) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if pc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = pc.MaxConnIdleTime
	}
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS focus_profiles (
			user_id          TEXT PRIMARY KEY,
			username         TEXT NOT NULL UNIQUE,
			photo_url        TEXT NOT NULL DEFAULT '',
			total_focus_time BIGINT NOT NULL DEFAULT 0,
			streak           INTEGER NOT NULL DEFAULT 0,
			last_study_date  TEXT NOT NULL DEFAULT '',
			unlocked_badges  TEXT[] NOT NULL DEFAULT '{}',
			friends          TEXT[] NOT NULL DEFAULT '{}',
			friend_requests  TEXT[] NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS focus_daily_logs (
			user_id TEXT NOT NULL REFERENCES focus_profiles(user_id) ON DELETE CASCADE,
			day     TEXT NOT NULL,
			seconds BIGINT NOT NULL,
			PRIMARY KEY (user_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS focus_tasks (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			text       TEXT NOT NULL,
			due_date   TEXT NOT NULL DEFAULT '',
			priority   TEXT NOT NULL DEFAULT 'Medium',
			done       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_focus_tasks_user ON focus_tasks(user_id)`,
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Profiles ───────────────────────────────────────────────────────────────

const profileColumns = `user_id, username, photo_url, total_focus_time, streak, last_study_date,
	unlocked_badges, friends, friend_requests, created_at`

// CreateProfile inserts a new profile with its initial daily logs.
func (s *Store) CreateProfile(ctx context.Context, p domain.FocusProfile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM focus_profiles WHERE user_id = $1)`, p.UserID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrProfileExists
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO focus_profiles (`+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.UserID, p.Username, p.PhotoURL, p.TotalFocusTime, p.Streak, p.LastStudyDate,
		nonNil(p.UnlockedBadges), nonNil(p.Friends), nonNil(p.FriendRequests), createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := upsertLogs(ctx, tx, p.UserID, p.DailyLogs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetProfile loads a profile and its daily logs.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.FocusProfile, error) {
	return s.loadProfile(ctx, `WHERE user_id = $1`, userID)
}

// FindByUsername loads a profile by its unique username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.FocusProfile, error) {
	return s.loadProfile(ctx, `WHERE username = $1`, username)
}

// MergeProfile writes only the fields set in u.
func (s *Store) MergeProfile(ctx context.Context, userID string, u domain.ProfileUpdate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var sets []string
	args := []any{userID}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Username != nil {
		set("username", *u.Username)
	}
	if u.PhotoURL != nil {
		set("photo_url", *u.PhotoURL)
	}
	if u.TotalFocusTime != nil {
		set("total_focus_time", *u.TotalFocusTime)
	}
	if u.Streak != nil {
		set("streak", *u.Streak)
	}
	if u.LastStudyDate != nil {
		set("last_study_date", *u.LastStudyDate)
	}
	if u.UnlockedBadges != nil {
		set("unlocked_badges", u.UnlockedBadges)
	}
	if u.Friends != nil {
		set("friends", u.Friends)
	}
	if u.FriendRequests != nil {
		set("friend_requests", u.FriendRequests)
	}
	if len(sets) == 0 {
		sets = append(sets, "user_id = user_id")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE focus_profiles SET `+strings.Join(sets, ", ")+` WHERE user_id = $1`, args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}

	if err := upsertLogs(ctx, tx, userID, u.DailyLogs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertLogs(ctx context.Context, tx pgx.Tx, userID string, logs map[string]int64) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for day, secs := range logs {
		batch.Queue(
			`INSERT INTO focus_daily_logs (user_id, day, seconds) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, day) DO UPDATE SET seconds = EXCLUDED.seconds`,
			userID, day, secs,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert daily logs: %w", err)
	}
	return nil
}

func (s *Store) loadProfile(ctx context.Context, where string, arg string) (*domain.FocusProfile, error) {
	var p domain.FocusProfile
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM focus_profiles `+where, arg,
	).Scan(&p.UserID, &p.Username, &p.PhotoURL, &p.TotalFocusTime, &p.Streak, &p.LastStudyDate,
		&p.UnlockedBadges, &p.Friends, &p.FriendRequests, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT day, seconds FROM focus_daily_logs WHERE user_id = $1`, p.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("get daily logs: %w", err)
	}
	defer rows.Close()

	p.DailyLogs = make(map[string]int64)
	for rows.Next() {
		var day string
		var secs int64
		if err := rows.Scan(&day, &secs); err != nil {
			return nil, err
		}
		p.DailyLogs[day] = secs
	}
	p.UnlockedBadges = nonNil(p.UnlockedBadges)
	p.Friends = nonNil(p.Friends)
	p.FriendRequests = nonNil(p.FriendRequests)
	return &p, rows.Err()
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// PutTask inserts or replaces a task.
func (s *Store) PutTask(ctx context.Context, userID string, t domain.Task) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO focus_tasks (id, user_id, text, due_date, priority, done, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			due_date = EXCLUDED.due_date,
			priority = EXCLUDED.priority,
			done = EXCLUDED.done`,
		t.ID, userID, t.Text, t.DueDate, string(t.Priority), t.Done, createdAt,
	)
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

// ListTasks returns a user's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, due_date, priority, done, created_at
		 FROM focus_tasks WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		var priority string
		if err := rows.Scan(&t.ID, &t.Text, &t.DueDate, &priority, &t.Done, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Priority = domain.Priority(priority)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes one of a user's tasks.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM focus_tasks WHERE id = $1 AND user_id = $2`, taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
