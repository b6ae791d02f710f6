package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"healthgate/internal/upstream"
)

// Authenticator is the slice of the remote API the session service needs.
// *upstream.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (upstream.AuthResponse, error)
	LoginWithGoogle(ctx context.Context, idToken string) (upstream.AuthResponse, error)
	Signup(ctx context.Context, input upstream.SignupInput) (upstream.AuthResponse, error)
}

// Metadata describes the browser behind a session, recorded at creation.
type Metadata struct {
	UserAgent string
	IPAddress string
}

// Service provides session business logic.
type Service struct {
	repo Repository
	api  Authenticator
	ttl  time.Duration
}

// NewService creates a new session Service.
func NewService(repo Repository, api Authenticator, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &Service{repo: repo, api: api, ttl: ttl}
}

// Login authenticates against the remote service and, only on success,
// stores the upstream token and user snapshot in one record. A single
// attempt; any failure leaves no partial state behind.
func (s *Service) Login(ctx context.Context, email, password string, meta Metadata) (string, upstream.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return "", upstream.User{}, err
	}
	return s.commit(ctx, resp, meta)
}

// LoginWithGoogle exchanges a verified Google ID token for an upstream
// session and persists it.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string, meta Metadata) (string, upstream.User, error) {
	resp, err := s.api.LoginWithGoogle(ctx, idToken)
	if err != nil {
		return "", upstream.User{}, err
	}
	return s.commit(ctx, resp, meta)
}

// Signup registers a new account and persists the returned session.
func (s *Service) Signup(ctx context.Context, input upstream.SignupInput, meta Metadata) (string, upstream.User, error) {
	resp, err := s.api.Signup(ctx, input)
	if err != nil {
		return "", upstream.User{}, err
	}
	return s.commit(ctx, resp, meta)
}

// Resolve looks a session up locally. No upstream revalidation happens here;
// a stale upstream token surfaces later when a view's fetch fails. Returns
// nil when the token is unknown or the gateway session has expired.
func (s *Service) Resolve(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, nil
	}

	rec, err := s.repo.FindByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	if rec.Expired(time.Now()) {
		_ = s.repo.Delete(ctx, rec.ID)
		return nil, nil
	}

	return rec, nil
}

// Logout removes the session record. It never calls the remote service;
// deleting the record clears the token and the snapshot in one step.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	rec, err := s.repo.FindByTokenHash(ctx, hashToken(token))
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if rec == nil {
		return nil
	}

	return s.repo.Delete(ctx, rec.ID)
}

// ReplaceUser swaps the cached snapshot for the server's returned profile.
// Whole-object replace, never a merge.
func (s *Service) ReplaceUser(ctx context.Context, token string, user upstream.User) error {
	rec, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("replace user: no active session")
	}
	return s.repo.ReplaceUser(ctx, rec.ID, user)
}

// CleanupExpired removes all expired sessions from storage.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

func (s *Service) commit(ctx context.Context, resp upstream.AuthResponse, meta Metadata) (string, upstream.User, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", upstream.User{}, fmt.Errorf("generate session token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	now := time.Now()
	rec := Record{
		ID:            uuid.New(),
		UpstreamToken: resp.Token,
		User:          resp.User,
		ExpiresAt:     now.Add(s.ttl),
		CreatedAt:     now,
		UserAgent:     truncate(meta.UserAgent, 512),
		IPAddress:     truncate(meta.IPAddress, 45),
	}

	if err := s.repo.Create(ctx, rec, hashToken(token)); err != nil {
		return "", upstream.User{}, fmt.Errorf("create session: %w", err)
	}

	return token, resp.User, nil
}

// hashToken returns the SHA-256 hash of the token as a hex string.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
