package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tutu-network/focusera/internal/domain"
)

var (
	_ domain.Store           = (*DB)(nil)
	_ domain.NotificationLog = (*DB)(nil)
)

// ─── Profile Repository ─────────────────────────────────────────────────────

const profileColumns = `user_id, username, photo_url, total_focus_time, streak, last_study_date,
	unlocked_badges, friends, friend_requests, created_at`

// CreateProfile inserts a new profile document.
func (d *DB) CreateProfile(ctx context.Context, p domain.FocusProfile) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE user_id = ?`, p.UserID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return domain.ErrProfileExists
	}

	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE username = ?`, p.Username,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return domain.ErrUsernameTaken
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Username, p.PhotoURL, p.TotalFocusTime, p.Streak, p.LastStudyDate,
		encodeList(p.UnlockedBadges), encodeList(p.Friends), encodeList(p.FriendRequests),
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := upsertLogs(ctx, tx, p.UserID, p.DailyLogs); err != nil {
		return err
	}
	return tx.Commit()
}

// GetProfile loads a profile and its daily logs.
func (d *DB) GetProfile(ctx context.Context, userID string) (*domain.FocusProfile, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID,
	)
	return d.loadProfile(ctx, row)
}

// FindByUsername loads a profile by its unique username.
func (d *DB) FindByUsername(ctx context.Context, username string) (*domain.FocusProfile, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = ?`, username,
	)
	return d.loadProfile(ctx, row)
}

// MergeProfile writes only the fields set in u, inside one transaction.
// Daily log entries are upserted per day.
func (d *DB) MergeProfile(ctx context.Context, userID string, u domain.ProfileUpdate) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
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
		set("unlocked_badges", encodeList(u.UnlockedBadges))
	}
	if u.Friends != nil {
		set("friends", encodeList(u.Friends))
	}
	if u.FriendRequests != nil {
		set("friend_requests", encodeList(u.FriendRequests))
	}

	// A no-op SET still tells us whether the row exists.
	if len(sets) == 0 {
		sets = append(sets, "user_id = user_id")
	}
	args = append(args, userID)

	result, err := tx.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE user_id = ?`, args...,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("update profile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrProfileNotFound
	}

	if err := upsertLogs(ctx, tx, userID, u.DailyLogs); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertLogs(ctx context.Context, tx *sql.Tx, userID string, logs map[string]int64) error {
	for day, secs := range logs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO daily_logs (user_id, day, seconds) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, day) DO UPDATE SET seconds=excluded.seconds`,
			userID, day, secs,
		)
		if err != nil {
			return fmt.Errorf("upsert daily log %s: %w", day, err)
		}
	}
	return nil
}

// loadProfile scans a profile row and attaches its daily logs.
func (d *DB) loadProfile(ctx context.Context, s scanner) (*domain.FocusProfile, error) {
	p, err := scanProfile(s)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT day, seconds FROM daily_logs WHERE user_id = ?`, p.UserID,
	)
	if err != nil {
		return nil, err
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
	return p, rows.Err()
}

func scanProfile(s scanner) (*domain.FocusProfile, error) {
	var p domain.FocusProfile
	var badges, friends, requests string
	var createdAt int64

	err := s.Scan(&p.UserID, &p.Username, &p.PhotoURL, &p.TotalFocusTime, &p.Streak,
		&p.LastStudyDate, &badges, &friends, &requests, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.UnlockedBadges, err = decodeList(badges); err != nil {
		return nil, err
	}
	if p.Friends, err = decodeList(friends); err != nil {
		return nil, err
	}
	if p.FriendRequests, err = decodeList(requests); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}
