package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"healthgate/internal/dashboard"
	"healthgate/internal/profile"
	"healthgate/internal/session"
	"healthgate/internal/upstream"
)

// profileUpdater is the slice of the remote client the profile flow needs.
type profileUpdater interface {
	UpdateUser(ctx context.Context, token string, userID uint, update upstream.UserUpdate) (upstream.User, error)
}

// DashboardHandler serves the aggregated main-screen views and the profile
// update flow.
type DashboardHandler struct {
	dashboards *dashboard.Service
	sessions   *session.Service
	api        profileUpdater
	logger     *slog.Logger
	now        func() time.Time
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboards *dashboard.Service, sessions *session.Service, api profileUpdater, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboards: dashboards,
		sessions:   sessions,
		api:        api,
		logger:     logger,
		now:        time.Now,
	}
}

// Overview handles GET /api/dashboard. An incomplete profile short-circuits
// before any data fetch: the response carries the cached user and the path of
// the completion flow instead of dashboard sections.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	if !profile.IsComplete(rec.User) {
		writeJSON(w, http.StatusOK, map[string]any{
			"profileComplete": false,
			"redirectTo":      "/profile/update",
			"user":            rec.User,
		})
		return
	}

	view := h.dashboards.Overview(r.Context(), rec.UpstreamToken, rec.User.ID)

	payload := map[string]any{
		"profileComplete": true,
		"greeting":        dashboard.Greeting(h.now().Hour()),
		"user":            rec.User,
		"bmi":             profile.BMI(rec.User.Health.Weight, rec.User.Health.Height),
		"overview":        view,
	}
	if view.Target != nil && view.Status != nil {
		payload["progressPercent"] = profile.ProgressPercent(view.Status.Stat.Calories, view.Target.Calories)
	}

	writeJSON(w, http.StatusOK, payload)
}

// LogFood handles POST /api/food. On success the response carries the
// server's verdict plus a freshly fetched overview.
func (h *DashboardHandler) LogFood(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		Description string `json:"description"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if strings.TrimSpace(payload.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	result, view, err := h.dashboards.LogFood(r.Context(), rec.UpstreamToken, rec.User.ID, payload.Description)
	if err != nil {
		h.logger.Warn("food log failed", "user_id", rec.User.ID, "error", err)
		writeUpstreamError(w, err, "failed to log food")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":   result,
		"overview": view,
	})
}

type profileUpdateRequest struct {
	Name         string   `json:"name"`
	Age          uint     `json:"age"`
	Password     string   `json:"password"`
	Weight       float64  `json:"weight"`
	Height       float64  `json:"height"`
	Sex          string   `json:"sex"`
	Allergy      bool     `json:"allergy"`
	AllergyType  []string `json:"allergy_type"`
	ActivateType string   `json:"activate_type"`
	GoalsType    string   `json:"goals_type"`
}

// Profile handles GET /api/profile: the cached snapshot plus the pre-filled
// form state.
func (h *DashboardHandler) Profile(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	form := profile.FormFromUser(rec.User)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": rec.User,
		"form": profileUpdateRequest{
			Name:         form.Name,
			Age:          form.Age,
			Weight:       form.Weight,
			Height:       form.Height,
			Sex:          form.Sex,
			Allergy:      form.Allergy,
			AllergyType:  form.AllergyType,
			ActivateType: form.ActivateType,
			GoalsType:    form.GoalsType,
		},
		"complete": profile.IsComplete(rec.User),
	})
}

// UpdateProfile handles PUT /api/profile. The submitted form is diffed
// against the cached snapshot server-side; only changed fields travel
// upstream, and an unchanged form skips the remote call entirely.
func (h *DashboardHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	var payload profileUpdateRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	update := profile.Diff(rec.User, profile.FormInput{
		Name:         payload.Name,
		Age:          payload.Age,
		Password:     payload.Password,
		Weight:       payload.Weight,
		Height:       payload.Height,
		Sex:          payload.Sex,
		Allergy:      payload.Allergy,
		AllergyType:  payload.AllergyType,
		ActivateType: payload.ActivateType,
		GoalsType:    payload.GoalsType,
	})

	if update.IsEmpty() {
		writeJSON(w, http.StatusOK, map[string]any{"user": rec.User, "updated": false})
		return
	}

	user, err := h.api.UpdateUser(r.Context(), rec.UpstreamToken, rec.User.ID, update)
	if err != nil {
		h.logger.Warn("profile update failed", "user_id", rec.User.ID, "error", err)
		writeUpstreamError(w, err, "failed to update profile")
		return
	}

	if err := h.sessions.ReplaceUser(r.Context(), sessionToken(r), user); err != nil {
		h.logger.Error("snapshot replace failed", "user_id", rec.User.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "updated": true})
}

// Challenges handles GET /api/challenges.
func (h *DashboardHandler) Challenges(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	board := h.dashboards.ChallengeBoard(r.Context(), rec.UpstreamToken, rec.User.ID)
	writeJSON(w, http.StatusOK, board)
}

// Participants handles GET /api/challenges/{id}/participants.
func (h *DashboardHandler) Participants(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	challengeID, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	roster, err := h.dashboards.Participants(r.Context(), rec.UpstreamToken, challengeID)
	if err != nil {
		writeUpstreamError(w, err, "failed to load participants")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"participants": roster})
}

// JoinChallenge handles POST /api/challenges/{id}/join. A challenge the user
// already participates in is refused with 409 before any remote call.
func (h *DashboardHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	challengeID, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	mine, err := h.dashboards.Join(r.Context(), rec.UpstreamToken, rec.User.ID, challengeID)
	if err != nil {
		if errors.Is(err, dashboard.ErrAlreadyJoined) {
			writeError(w, http.StatusConflict, "challenge already joined")
			return
		}
		h.logger.Warn("challenge join failed", "challenge_id", challengeID, "error", err)
		writeUpstreamError(w, err, "failed to join challenge")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"mine": mine})
}

// UpdateProgress handles PUT /api/challenges/{id}/progress. An open roster
// panel is re-fetched in the same request via the roster query parameter.
func (h *DashboardHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	challengeID, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	var rosterID *uint
	if raw := r.URL.Query().Get("roster"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid roster id")
			return
		}
		parsed := uint(id)
		rosterID = &parsed
	}

	mine, roster, err := h.dashboards.UpdateProgress(r.Context(), rec.UpstreamToken, rec.User.ID, challengeID, rosterID)
	if err != nil {
		h.logger.Warn("progress update failed", "challenge_id", challengeID, "error", err)
		writeUpstreamError(w, err, "failed to update progress")
		return
	}

	payload := map[string]any{"mine": mine}
	if rosterID != nil {
		payload["participants"] = roster
	}
	writeJSON(w, http.StatusOK, payload)
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
