package http

import (
	"net/http"
	"strings"
	"time"

	"log/slog"

	"healthgate/internal/session"
	"healthgate/internal/upstream"
)

const sessionCookieName = "healthgate_session"

// SessionHandler manages browser sessions backed by the session service.
type SessionHandler struct {
	sessions     *session.Service
	cookieTTL    time.Duration
	secureCookie bool
	logger       *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Service, env string, cookieTTL time.Duration, logger *slog.Logger) *SessionHandler {
	if cookieTTL == 0 {
		cookieTTL = 12 * time.Hour
	}
	return &SessionHandler{
		sessions:     sessions,
		cookieTTL:    cookieTTL,
		secureCookie: !strings.EqualFold(env, "development"),
		logger:       logger,
	}
}

// Login handles POST /api/session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.sessions.Login(r.Context(), payload.Email, payload.Password, requestMetadata(r))
	if err != nil {
		h.logger.Warn("login failed", "error", err)
		writeUpstreamError(w, err, "login failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.cookieTTL))
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Signup handles POST /api/session/signup.
func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload upstream.SignupInput

	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	token, user, err := h.sessions.Signup(r.Context(), payload, requestMetadata(r))
	if err != nil {
		h.logger.Warn("signup failed", "error", err)
		writeUpstreamError(w, err, "signup failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.cookieTTL))
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Status handles GET /api/session. It reports whether the browser holds an
// active session and returns the cached user snapshot, mirroring the old
// client's read-storage-on-mount behavior. No upstream call is made.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	rec, err := h.sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		h.logger.Error("session resolution error", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": rec.User})
}

// Logout handles DELETE /api/session. The session record and the cookie are
// cleared together; the remote service is never called.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("logout failed", "error", err)
		}
	}

	clearCookie := h.sessionCookie("", 0)
	clearCookie.MaxAge = -1
	clearCookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, clearCookie)

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
		MaxAge:   int(ttl.Seconds()),
	}
}

func requestMetadata(r *http.Request) session.Metadata {
	return session.Metadata{
		UserAgent: r.UserAgent(),
		IPAddress: clientIPFromRequest(r),
	}
}

func clientIPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx > 0 {
		host = host[:idx]
	}
	return host
}
