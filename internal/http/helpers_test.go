package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"healthgate/internal/session"
	"healthgate/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type authenticatorStub struct {
	login       func(ctx context.Context, email, password string) (upstream.AuthResponse, error)
	loginGoogle func(ctx context.Context, idToken string) (upstream.AuthResponse, error)
	signup      func(ctx context.Context, input upstream.SignupInput) (upstream.AuthResponse, error)
}

func (s *authenticatorStub) Login(ctx context.Context, email, password string) (upstream.AuthResponse, error) {
	return s.login(ctx, email, password)
}

func (s *authenticatorStub) LoginWithGoogle(ctx context.Context, idToken string) (upstream.AuthResponse, error) {
	return s.loginGoogle(ctx, idToken)
}

func (s *authenticatorStub) Signup(ctx context.Context, input upstream.SignupInput) (upstream.AuthResponse, error) {
	return s.signup(ctx, input)
}

func completeUser() upstream.User {
	return upstream.User{
		ID:    42,
		Name:  "Dana",
		Email: "dana@example.com",
		Age:   30,
		Health: upstream.Health{
			Weight:   70,
			Height:   175,
			Sex:      "female",
			Activate: upstream.Activate{ActivateType: "moderate"},
		},
		Goals: upstream.Goals{GoalsType: "maintain"},
	}
}

// loggedInService builds a session service with one active session and returns
// the gateway token for it.
func loggedInService(t *testing.T, user upstream.User) (*session.Service, string) {
	t.Helper()

	api := &authenticatorStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			return upstream.AuthResponse{Token: "upstream-token", User: user}, nil
		},
	}
	svc := session.NewService(session.NewInMemoryRepository(), api, time.Hour)

	token, _, err := svc.Login(context.Background(), user.Email, "pw", session.Metadata{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return svc, token
}

// authenticatedRequest builds a request carrying the session cookie and the
// resolved session record in its context, as the session middleware would.
func authenticatedRequest(t *testing.T, svc *session.Service, token, method, target string, body io.Reader) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})

	rec, err := svc.Resolve(req.Context(), token)
	if err != nil || rec == nil {
		t.Fatalf("session did not resolve: %v", err)
	}
	return req.WithContext(context.WithValue(req.Context(), sessionContextKey, rec))
}
