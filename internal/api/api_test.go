package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutu-network/focusera/internal/app/focus"
	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/health"
	"github.com/tutu-network/focusera/internal/infra/sqlite"
)

var testNow = time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	handler http.Handler
	db      *sqlite.DB
}

func newTestEnv(t *testing.T, verify TokenVerifier) *testEnv {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := progression.FixedClock{T: testNow}
	notifier := focus.NewNotifier(db, nil).WithClock(clock, time.UTC)
	svc := focus.NewService(db, progression.DefaultCatalog(),
		focus.WithClock(clock), focus.WithLocation(time.UTC), focus.WithNotifier(notifier))

	srv := NewServer(svc, NewAuth(verify))
	return &testEnv{srv: srv, handler: srv.Handler(), db: db}
}

// do sends a request as user (empty for anonymous) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(devUserHeader, user)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) createUser(t *testing.T, id, username string) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/v1/profile", id, map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ═══════════════════════════════════════════════════════════════════════════
// Health & Metrics
// ═══════════════════════════════════════════════════════════════════════════

func TestHealth_NoChecker(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok"`)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, nil)
	checker := health.NewChecker(downPinger{}, env.db, t.TempDir())
	checker.RunOnce(context.Background())
	env.srv.SetHealth(checker)

	rr := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.EnableMetrics()
	h := env.srv.Handler()

	env.createUser(t, "u1", "ada")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "focusera_http_requests_total")
	assert.Contains(t, rr.Body.String(), `route="/api/v1/profile"`)
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Authentication
// ═══════════════════════════════════════════════════════════════════════════

func TestAuth_HeaderModeRequiresUser(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthenticated", decode[errorBody](t, rr).Error.Type)
}

func TestAuth_Verifier(t *testing.T) {
	verify := func(_ context.Context, token string) (string, error) {
		if token == "good" {
			return "u1", nil
		}
		return "", errors.New("bad signature")
	}
	env := newTestEnv(t, verify)
	seed := domain.FocusProfile{UserID: "u1", Username: "ada", DailyLogs: map[string]int64{}}
	require.NoError(t, env.db.CreateProfile(context.Background(), seed))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Token good", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// The dev header is ignored once a verifier is configured.
			req.Header.Set(devUserHeader, "u1")
			rr := httptest.NewRecorder()
			env.handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile & Sessions
// ═══════════════════════════════════════════════════════════════════════════

func TestProfile_CreateAndGet(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/v1/profile", "u1",
		map[string]string{"username": "ada", "photo_url": "https://cdn/robot.png"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/profile", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[map[string]any](t, rr)
	assert.Equal(t, "ada", p["username"])
	assert.Equal(t, "robot", p["avatar"])

	rr = env.do(t, http.MethodPost, "/api/v1/profile", "u2", map[string]string{"username": "ada"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/profile", "u3", map[string]string{"username": "no spaces"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/profile", "ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProfile_Update(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")

	rr := env.do(t, http.MethodPatch, "/api/v1/profile", "u1", map[string]string{"photo_url": "griffin"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "griffin", decode[map[string]any](t, rr)["avatar"])
}

func TestSession_FreshUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", map[string]int64{"seconds": 1500})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decode[focus.SessionResult](t, rr)
	assert.Equal(t, int64(1500), res.TotalFocusTime)
	assert.Equal(t, int64(1500), res.TodaySeconds)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, domain.EraAncient, res.After.Era)
	assert.Equal(t, int64(1500), res.After.Current)
	assert.Empty(t, res.NewBadges)
}

func TestSession_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", map[string]int64{"seconds": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/sessions", "ghost", map[string]int64{"seconds": 60})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{"))
	req.Header.Set(devUserHeader, "u1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")
	env.do(t, http.MethodPost, "/api/v1/sessions", "u1", map[string]int64{"seconds": 3600})

	rr := env.do(t, http.MethodGet, "/api/v1/dashboard?live=600&mode=stopwatch", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	d := decode[focus.Dashboard](t, rr)
	assert.Equal(t, int64(3600), d.StoredTotal)
	assert.Equal(t, int64(4200), d.TotalFocusTime)
	assert.Equal(t, "1h 10m", d.TotalLabel)
	assert.NotEmpty(t, d.Scene.Assets)

	rr = env.do(t, http.MethodGet, "/api/v1/dashboard?live=soon", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEras(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")

	rr := env.do(t, http.MethodGet, "/api/v1/eras", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Eras []eraInfo `json:"eras"`
	}](t, rr)
	require.Len(t, body.Eras, 3)
	assert.Equal(t, domain.EraRenaissance, body.Eras[1].Era)
	assert.Equal(t, body.Eras[0].End, body.Eras[1].Start)

	rr = env.do(t, http.MethodGet, "/api/v1/eras/Future", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[focus.SceneView](t, rr).Reached)

	rr = env.do(t, http.MethodGet, "/api/v1/eras/bronze", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBadgesAndStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")
	env.do(t, http.MethodPost, "/api/v1/sessions", "u1", map[string]int64{"seconds": 36000})

	rr := env.do(t, http.MethodGet, "/api/v1/badges", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	board := decode[focus.BadgeBoard](t, rr)
	require.Len(t, board.Unlocked, 1)
	assert.Equal(t, "totaltime10", board.Unlocked[0].ID)

	rr = env.do(t, http.MethodGet, "/api/v1/stats", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[focus.Stats](t, rr)
	assert.Equal(t, 1, st.TotalFocusDays)
	assert.Equal(t, []string{"2025-07-02"}, st.MarkedDates)
}

// ═══════════════════════════════════════════════════════════════════════════
// Friends & Leaderboard
// ═══════════════════════════════════════════════════════════════════════════

func TestFriendsFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "a", "ada")
	env.createUser(t, "b", "bob")
	env.do(t, http.MethodPost, "/api/v1/sessions", "b", map[string]int64{"seconds": 7200})

	rr := env.do(t, http.MethodPost, "/api/v1/friends/requests", "a", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/api/v1/friends/requests", "a", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/friends/requests", "a", map[string]string{"username": "ada"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/friends/requests", "b", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"user_id":"a"`)

	rr = env.do(t, http.MethodPost, "/api/v1/friends/a/accept", "b", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/leaderboard", "a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	lb := decode[focus.Leaderboard](t, rr)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "b", lb.Entries[0].UserID)
	assert.Equal(t, 2, lb.Standing.Rank)
	assert.Equal(t, "Catch bob by clocking 2h more", lb.Standing.Message)

	rr = env.do(t, http.MethodDelete, "/api/v1/friends/b", "a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/v1/friends/b", "a", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/friends/b/decline", "a", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Planner
// ═══════════════════════════════════════════════════════════════════════════

func TestTasks(t *testing.T) {
	env := newTestEnv(t, nil)

	add := func(text, due, priority string) taskResponse {
		rr := env.do(t, http.MethodPost, "/api/v1/tasks", "u1",
			map[string]string{"text": text, "due_date": due, "priority": priority})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		return decode[taskResponse](t, rr)
	}
	low := add("read", "2025-07-01", "low")
	high := add("essay", "2025-07-09", "High")
	assert.Equal(t, "#ffe5e5", high.Color)

	rr := env.do(t, http.MethodGet, "/api/v1/tasks?sort=priority", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Tasks []taskResponse `json:"tasks"`
	}](t, rr)
	require.Len(t, list.Tasks, 2)
	assert.Equal(t, high.ID, list.Tasks[0].ID)

	rr = env.do(t, http.MethodGet, "/api/v1/tasks", "u1", nil)
	list = decode[struct {
		Tasks []taskResponse `json:"tasks"`
	}](t, rr)
	assert.Equal(t, low.ID, list.Tasks[0].ID)

	rr = env.do(t, http.MethodPost, "/api/v1/tasks/"+low.ID+"/toggle", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[taskResponse](t, rr).Done)

	rr = env.do(t, http.MethodDelete, "/api/v1/tasks/"+low.ID, "u1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/v1/tasks/"+low.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/tasks", "u1", map[string]string{"text": "x", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Notifications
// ═══════════════════════════════════════════════════════════════════════════

func TestNotifications(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "u1", "ada")
	env.do(t, http.MethodPost, "/api/v1/sessions", "u1", map[string]int64{"seconds": 36000})

	rr := env.do(t, http.MethodGet, "/api/v1/notifications", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Notifications []domain.Notification `json:"notifications"`
	}](t, rr)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, domain.NotifyBadge, body.Notifications[0].Type)

	id := body.Notifications[0].ID
	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/shown", id), "u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/shown", id), "other", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/v1/notifications/abc/shown", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/v1/devices", "u1", map[string]string{"token": "tok", "platform": "ios"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/v1/devices", "u1", map[string]string{"token": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Rate Limiting & Errors
// ═══════════════════════════════════════════════════════════════════════════

func TestRateLimiter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.SetRateLimiter(NewRateLimiter(0.001, 2))
	h := env.srv.Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		req.Header.Set(devUserHeader, "ghost")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	req.Header.Set(devUserHeader, "ghost")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewRateLimiter(5, 30)
	l.limiter("a")
	l.limiter("b")
	l.visitors["a"].lastSeen = time.Now().Add(-10 * time.Minute)

	l.sweep(time.Now())
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("find %q: %w", "x", domain.ErrProfileNotFound), http.StatusNotFound},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrRequestPending, http.StatusConflict},
		{domain.ErrInvalidDueDate, http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: disk I/O error", domain.ErrStatsUnavailable), http.StatusServiceUnavailable},
		{errors.New("database is locked"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		got, _ := classifyError(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

func TestWriteDomainError_HidesStorageDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	writeDomainError(rr, req, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "stats unavailable", body.Error.Message)
}
