package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tutu-network/focusera/internal/app/focus"
	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
)

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ─── Profile ────────────────────────────────────────────────────────────────

type createProfileRequest struct {
	Username string `json:"username"`
	PhotoURL string `json:"photo_url"`
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	PhotoURL *string `json:"photo_url"`
}

type profileResponse struct {
	*domain.FocusProfile
	Avatar string `json:"avatar"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.focus.Profile(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{p, focus.ProfileImageName(p.PhotoURL)})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.focus.CreateProfile(r.Context(), userID(r), req.Username, req.PhotoURL)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profileResponse{p, focus.ProfileImageName(p.PhotoURL)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.focus.UpdateProfile(r.Context(), userID(r), req.Username, req.PhotoURL)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{p, focus.ProfileImageName(p.PhotoURL)})
}

// ─── Sessions & Progress ────────────────────────────────────────────────────

type sessionRequest struct {
	Seconds int64 `json:"seconds"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.focus.CompleteSession(r.Context(), userID(r), req.Seconds)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	live := focus.LiveSession{
		Mode:  progression.TimerMode(q.Get("mode")),
		Phase: progression.TimerPhase(q.Get("phase")),
	}
	if v := q.Get("live"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("live must be seconds, got %q", v))
			return
		}
		live.Seconds = secs
	}

	d, err := s.focus.Dashboard(r.Context(), userID(r), live)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type eraInfo struct {
	Era    domain.Era    `json:"era"`
	Name   string        `json:"name"`
	Layout domain.Layout `json:"layout"`
	Start  int64         `json:"start"`
	End    int64         `json:"end"`
}

// handleEras lists the era catalog with its boundaries.
func (s *Server) handleEras(w http.ResponseWriter, r *http.Request) {
	catalog := s.focus.Catalog()
	bounds := make(map[domain.Era]progression.EraBound)
	for _, b := range progression.Bounds(catalog.Table) {
		bounds[b.Era] = b
	}

	eras := []eraInfo{}
	for _, sc := range catalog.Scenes() {
		b := bounds[sc.Era]
		eras = append(eras, eraInfo{Era: sc.Era, Name: sc.Name, Layout: sc.Layout, Start: b.Start, End: b.End})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds": catalog.Table,
		"eras":       eras,
	})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	era, err := progression.ParseEra(chi.URLParam(r, "era"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	v, err := s.focus.Scene(r.Context(), userID(r), era)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	b, err := s.focus.Badges(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.focus.Stats(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := s.focus.Leaderboard(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// ─── Friends ────────────────────────────────────────────────────────────────

type friendRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleFriendRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.focus.FriendRequests(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	var req friendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.focus.SendFriendRequest(r.Context(), userID(r), req.Username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status := http.StatusAccepted
	if res.Accepted {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) handleAcceptFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.focus.AcceptFriend(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleDeclineFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.focus.DeclineFriend(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.focus.RemoveFriend(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ─── Planner ────────────────────────────────────────────────────────────────

type addTaskRequest struct {
	Text     string `json:"text"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

type taskResponse struct {
	domain.Task
	Color string `json:"color"`
}

func withColor(t domain.Task) taskResponse {
	return taskResponse{Task: t, Color: focus.PriorityColor(t.Priority)}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.focus.ListTasks(r.Context(), userID(r), focus.ParseSortBy(r.URL.Query().Get("sort")))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, withColor(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := s.focus.AddTask(r.Context(), userID(r), req.Text, req.DueDate, req.Priority)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withColor(*t))
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.focus.ToggleTask(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withColor(*t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.focus.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) notifier(w http.ResponseWriter) *focus.Notifier {
	n := s.focus.Notifier()
	if n == nil {
		writeError(w, http.StatusNotFound, "not_found", "notifications are disabled")
	}
	return n
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	n := s.notifier(w)
	if n == nil {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifs, err := n.Pending(r.Context(), userID(r), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	n := s.notifier(w)
	if n == nil {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "notification id must be numeric")
		return
	}
	if err := n.MarkShown(r.Context(), userID(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "shown"})
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	n := s.notifier(w)
	if n == nil {
		return
	}
	var req deviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := n.RegisterDevice(r.Context(), domain.DeviceToken{
		UserID: userID(r), Token: req.Token, Platform: req.Platform,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}
