package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"healthgate/internal/upstream"
)

type authStub struct {
	login       func(ctx context.Context, email, password string) (upstream.AuthResponse, error)
	loginGoogle func(ctx context.Context, idToken string) (upstream.AuthResponse, error)
	signup      func(ctx context.Context, input upstream.SignupInput) (upstream.AuthResponse, error)
}

func (s *authStub) Login(ctx context.Context, email, password string) (upstream.AuthResponse, error) {
	return s.login(ctx, email, password)
}

func (s *authStub) LoginWithGoogle(ctx context.Context, idToken string) (upstream.AuthResponse, error) {
	return s.loginGoogle(ctx, idToken)
}

func (s *authStub) Signup(ctx context.Context, input upstream.SignupInput) (upstream.AuthResponse, error) {
	return s.signup(ctx, input)
}

type failingRepo struct {
	Repository
}

func (f *failingRepo) Create(context.Context, Record, string) error {
	return errors.New("store down")
}

func sampleAuthResponse() upstream.AuthResponse {
	return upstream.AuthResponse{
		Token: "upstream-token",
		User: upstream.User{
			ID:    42,
			Name:  "Dana",
			Email: "dana@example.com",
		},
	}
}

func TestLoginCommitsTokenAndSnapshotTogether(t *testing.T) {
	repo := NewInMemoryRepository()
	api := &authStub{
		login: func(_ context.Context, email, password string) (upstream.AuthResponse, error) {
			if email != "dana@example.com" || password != "pw" {
				t.Fatalf("unexpected credentials %q %q", email, password)
			}
			return sampleAuthResponse(), nil
		},
	}
	svc := NewService(repo, api, time.Hour)

	token, user, err := svc.Login(context.Background(), "dana@example.com", "pw", Metadata{UserAgent: "test", IPAddress: "127.0.0.1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a gateway token")
	}
	if user.ID != 42 {
		t.Fatalf("expected returned snapshot, got %+v", user)
	}

	rec, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected session to resolve")
	}
	if rec.UpstreamToken != "upstream-token" {
		t.Fatalf("expected upstream token stored, got %q", rec.UpstreamToken)
	}
	if rec.User.Email != "dana@example.com" {
		t.Fatalf("expected snapshot stored, got %+v", rec.User)
	}
}

func TestLoginFailureLeavesNoState(t *testing.T) {
	repo := NewInMemoryRepository()
	api := &authStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			return upstream.AuthResponse{}, &upstream.APIError{Status: 401, Message: "invalid credentials"}
		},
	}
	svc := NewService(repo, api, time.Hour)

	token, _, err := svc.Login(context.Background(), "dana@example.com", "bad", Metadata{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if token != "" {
		t.Fatalf("expected no token on failure")
	}
	if len(repo.byHash) != 0 {
		t.Fatalf("expected no session rows, got %d", len(repo.byHash))
	}
}

func TestLoginStoreFailureReturnsNoToken(t *testing.T) {
	api := &authStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			return sampleAuthResponse(), nil
		},
	}
	svc := NewService(&failingRepo{}, api, time.Hour)

	token, _, err := svc.Login(context.Background(), "dana@example.com", "pw", Metadata{})
	if err == nil {
		t.Fatalf("expected store error to surface")
	}
	if token != "" {
		t.Fatalf("expected no token when the store write fails")
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), &authStub{}, time.Hour)

	rec, err := svc.Resolve(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for unknown token")
	}

	rec, err = svc.Resolve(context.Background(), "")
	if err != nil || rec != nil {
		t.Fatalf("expected empty token to resolve to nothing")
	}
}

func TestResolveExpiredSessionIsDeleted(t *testing.T) {
	repo := NewInMemoryRepository()
	api := &authStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			return sampleAuthResponse(), nil
		},
	}
	svc := NewService(repo, api, time.Nanosecond)

	token, _, err := svc.Login(context.Background(), "dana@example.com", "pw", Metadata{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	time.Sleep(time.Millisecond)

	rec, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected expired session to resolve to nil")
	}
	if len(repo.byHash) != 0 {
		t.Fatalf("expected expired row to be deleted")
	}
}

func TestLogoutClearsSessionLocally(t *testing.T) {
	repo := NewInMemoryRepository()
	upstreamCalls := 0
	api := &authStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			upstreamCalls++
			return sampleAuthResponse(), nil
		},
	}
	svc := NewService(repo, api, time.Hour)

	token, _, err := svc.Login(context.Background(), "dana@example.com", "pw", Metadata{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if upstreamCalls != 1 {
		t.Fatalf("expected logout to stay local, upstream called %d times", upstreamCalls)
	}

	rec, err := svc.Resolve(context.Background(), token)
	if err != nil || rec != nil {
		t.Fatalf("expected session gone after logout")
	}

	// Logging out twice is harmless.
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
}

func TestReplaceUserSwapsWholeSnapshot(t *testing.T) {
	repo := NewInMemoryRepository()
	api := &authStub{
		login: func(context.Context, string, string) (upstream.AuthResponse, error) {
			return sampleAuthResponse(), nil
		},
	}
	svc := NewService(repo, api, time.Hour)

	token, _, err := svc.Login(context.Background(), "dana@example.com", "pw", Metadata{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	updated := upstream.User{ID: 42, Name: "Dana Q", Email: "dana@example.com", Age: 31}
	if err := svc.ReplaceUser(context.Background(), token, updated); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	rec, err := svc.Resolve(context.Background(), token)
	if err != nil || rec == nil {
		t.Fatalf("resolve after replace failed: %v", err)
	}
	if rec.User.Name != "Dana Q" || rec.User.Age != 31 {
		t.Fatalf("expected replaced snapshot, got %+v", rec.User)
	}
	if rec.UpstreamToken != "upstream-token" {
		t.Fatalf("expected upstream token untouched")
	}
}

func TestReplaceUserWithoutSession(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), &authStub{}, time.Hour)
	if err := svc.ReplaceUser(context.Background(), "missing", upstream.User{}); err == nil {
		t.Fatalf("expected error when no session exists")
	}
}

func TestCleanupExpired(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	live := Record{ID: uuid.New(), ExpiresAt: now.Add(time.Hour)}
	stale := Record{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	if err := repo.Create(context.Background(), live, "live-hash"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(context.Background(), stale, "stale-hash"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc := NewService(repo, &authStub{}, time.Hour)
	removed, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := repo.byHash["live-hash"]; !ok {
		t.Fatalf("expected live session to survive")
	}
}
