// Package firestore stores focus profiles as documents in a "users"
// collection, with planner tasks in a per-user "tasks" subcollection.
// Document field names follow the mobile client's layout.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tutu-network/focusera/internal/domain"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// Config selects the Firebase project and credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON []byte
}

// Store implements domain.Store on Cloud Firestore.
type Store struct {
	client *firestore.Client
}

var _ domain.Store = (*Store)(nil)

// Open initializes a Firebase app and its Firestore client.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

// Ping issues a minimal read.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(usersCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

// ─── Documents ──────────────────────────────────────────────────────────────

type profileDoc struct {
	Username       string           `firestore:"username"`
	PhotoURL       string           `firestore:"photoURL"`
	TotalFocusTime int64            `firestore:"totalFocusTime"`
	Streak         int64            `firestore:"streak"`
	LastStudyDate  string           `firestore:"lastStudyDate"`
	DailyLogs      map[string]int64 `firestore:"dailyLogs"`
	UnlockedBadges []string         `firestore:"unlockedBadges"`
	Friends        []string         `firestore:"friends"`
	FriendRequests []string         `firestore:"friendRequests"`
	CreatedAt      time.Time        `firestore:"createdAt"`
}

func docFromProfile(p domain.FocusProfile) profileDoc {
	d := profileDoc{
		Username:       p.Username,
		PhotoURL:       p.PhotoURL,
		TotalFocusTime: p.TotalFocusTime,
		Streak:         int64(p.Streak),
		LastStudyDate:  p.LastStudyDate,
		DailyLogs:      p.DailyLogs,
		UnlockedBadges: nonNil(p.UnlockedBadges),
		Friends:        nonNil(p.Friends),
		FriendRequests: nonNil(p.FriendRequests),
		CreatedAt:      p.CreatedAt,
	}
	if d.DailyLogs == nil {
		d.DailyLogs = map[string]int64{}
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return d
}

func (d profileDoc) profile(userID string) *domain.FocusProfile {
	p := &domain.FocusProfile{
		UserID:         userID,
		Username:       d.Username,
		PhotoURL:       d.PhotoURL,
		TotalFocusTime: d.TotalFocusTime,
		Streak:         int(d.Streak),
		LastStudyDate:  d.LastStudyDate,
		DailyLogs:      d.DailyLogs,
		UnlockedBadges: nonNil(d.UnlockedBadges),
		Friends:        nonNil(d.Friends),
		FriendRequests: nonNil(d.FriendRequests),
		CreatedAt:      d.CreatedAt,
	}
	if p.DailyLogs == nil {
		p.DailyLogs = map[string]int64{}
	}
	return p
}

// updatesFor turns a merge write into field updates. Daily logs are written
// per day so concurrent sessions on other days are not clobbered.
func updatesFor(u domain.ProfileUpdate) []firestore.Update {
	var ups []firestore.Update
	add := func(field string, v any) {
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath{field}, Value: v})
	}
	if u.Username != nil {
		add("username", *u.Username)
	}
	if u.PhotoURL != nil {
		add("photoURL", *u.PhotoURL)
	}
	if u.TotalFocusTime != nil {
		add("totalFocusTime", *u.TotalFocusTime)
	}
	if u.Streak != nil {
		add("streak", int64(*u.Streak))
	}
	if u.LastStudyDate != nil {
		add("lastStudyDate", *u.LastStudyDate)
	}
	for day, secs := range u.DailyLogs {
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath{"dailyLogs", day}, Value: secs})
	}
	if u.UnlockedBadges != nil {
		add("unlockedBadges", u.UnlockedBadges)
	}
	if u.Friends != nil {
		add("friends", u.Friends)
	}
	if u.FriendRequests != nil {
		add("friendRequests", u.FriendRequests)
	}
	return ups
}

// ─── Profiles ───────────────────────────────────────────────────────────────

// GetProfile reads users/{userID}.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.FocusProfile, error) {
	snap, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return d.profile(snap.Ref.ID), nil
}

// FindByUsername queries the users collection by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.FocusProfile, error) {
	snaps, err := s.client.Collection(usersCollection).
		Where("username", "==", username).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	if len(snaps) == 0 {
		return nil, domain.ErrProfileNotFound
	}
	var d profileDoc
	if err := snaps[0].DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", snaps[0].Ref.ID, err)
	}
	return d.profile(snaps[0].Ref.ID), nil
}

// CreateProfile checks the username and creates the document in one
// transaction.
func (s *Store) CreateProfile(ctx context.Context, p domain.FocusProfile) error {
	users := s.client.Collection(usersCollection)
	ref := users.Doc(p.UserID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := tx.Documents(users.Where("username", "==", p.Username).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			if taken[0].Ref.ID == p.UserID {
				return domain.ErrProfileExists
			}
			return domain.ErrUsernameTaken
		}
		return tx.Create(ref, docFromProfile(p))
	})
	return mapErr(err)
}

// MergeProfile updates only the fields set in u. Update fails on a missing
// document, which maps to ErrProfileNotFound.
func (s *Store) MergeProfile(ctx context.Context, userID string, u domain.ProfileUpdate) error {
	ref := s.client.Collection(usersCollection).Doc(userID)
	if u.Username != nil {
		other, err := s.FindByUsername(ctx, *u.Username)
		switch {
		case err == nil && other.UserID != userID:
			return domain.ErrUsernameTaken
		case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
			return err
		}
	}

	ups := updatesFor(u)
	if len(ups) == 0 {
		_, err := ref.Get(ctx)
		return mapErr(err)
	}
	_, err := ref.Update(ctx, ups)
	return mapErr(err)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

type taskDoc struct {
	Text      string    `firestore:"text"`
	DueDate   string    `firestore:"dueDate"`
	Priority  string    `firestore:"priority"`
	Done      bool      `firestore:"done"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (s *Store) tasks(userID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(userID).Collection(tasksCollection)
}

// PutTask writes users/{userID}/tasks/{id}.
func (s *Store) PutTask(ctx context.Context, userID string, t domain.Task) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.tasks(userID).Doc(t.ID).Set(ctx, taskDoc{
		Text: t.Text, DueDate: t.DueDate, Priority: string(t.Priority), Done: t.Done, CreatedAt: createdAt,
	})
	return mapErr(err)
}

// ListTasks returns a user's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	snaps, err := s.tasks(userID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	tasks := make([]domain.Task, 0, len(snaps))
	for _, snap := range snaps {
		var d taskDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", snap.Ref.ID, err)
		}
		tasks = append(tasks, domain.Task{
			ID: snap.Ref.ID, Text: d.Text, DueDate: d.DueDate,
			Priority: domain.Priority(d.Priority), Done: d.Done, CreatedAt: d.CreatedAt,
		})
	}
	return tasks, nil
}

// DeleteTask removes a task, failing when it does not exist.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	_, err := s.tasks(userID).Doc(taskID).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return domain.ErrTaskNotFound
	}
	return mapErr(err)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// mapErr translates gRPC status codes into domain errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrProfileNotFound
	case codes.AlreadyExists:
		return domain.ErrProfileExists
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", domain.ErrStatsUnavailable, err)
	}
	return err
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
