package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthgate/internal/session"
)

func TestSessionMiddlewareRejectsMissingCookie(t *testing.T) {
	svc := session.NewService(session.NewInMemoryRepository(), &authenticatorStub{}, time.Hour)
	mw := newSessionMiddleware(svc, testLogger())

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatalf("expected next handler to be skipped")
	}
}

func TestSessionMiddlewareRejectsUnknownToken(t *testing.T) {
	svc := session.NewService(session.NewInMemoryRepository(), &authenticatorStub{}, time.Hour)
	mw := newSessionMiddleware(svc, testLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "never-issued"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMiddlewareInjectsRecord(t *testing.T) {
	svc, token := loggedInService(t, completeUser())
	mw := newSessionMiddleware(svc, testLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := SessionFromContext(r.Context())
		if rec == nil {
			t.Fatalf("expected session in context")
		}
		if rec.User.ID != 42 || rec.UpstreamToken != "upstream-token" {
			t.Fatalf("unexpected record %+v", rec)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestSessionFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if rec := SessionFromContext(req.Context()); rec != nil {
		t.Fatalf("expected nil without middleware, got %+v", rec)
	}
}

func TestSecurityHeaders(t *testing.T) {
	mw := newSecurityHeadersMiddleware("production")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("expected HSTS in production")
	}

	mw = newSecurityHeadersMiddleware("development")
	handler = mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("expected no HSTS in development")
	}
}
