// Package upstream is the typed client for the remote health API. Every view
// of the gateway talks to the remote service through this one client, so the
// authorization header and error decoding live in exactly one place.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// APIError is a non-2xx response from the remote service, carrying the
// server-provided message when one was sent.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("upstream: request failed with status %d", e.Status)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == status
}

// Client calls the remote health API over HTTP+JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures the Client during construction.
type Option func(*Client)

// WithBaseURL overrides the base origin for all requests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(baseURL, "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient constructs a Client.
func NewClient(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	c := &Client{
		httpClient: client,
		baseURL:    defaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// LoginWithGoogle authenticates with a verified Google ID token. Account
// creation for first-time Google users happens remotely.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"idToken": idToken}
	if err := c.do(ctx, http.MethodPost, "/auth/google", "", body, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// Signup registers a new account with the full profile.
func (c *Client) Signup(ctx context.Context, input SignupInput) (AuthResponse, error) {
	if input.AllergyType == nil {
		input.AllergyType = []string{}
	}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", input, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// GetDailyTarget fetches the server-computed nutrient target for today.
func (c *Client) GetDailyTarget(ctx context.Context, token string, userID uint) (DailyTarget, error) {
	var out DailyTarget
	path := fmt.Sprintf("/users/%d/target", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return DailyTarget{}, err
	}
	return out, nil
}

// GetTargetStatus fetches today's progress against the target.
func (c *Client) GetTargetStatus(ctx context.Context, token string, userID uint) (TargetStatus, error) {
	var out TargetStatus
	path := fmt.Sprintf("/users/%d/target/status", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return TargetStatus{}, err
	}
	return out, nil
}

// ListFood fetches today's food log.
func (c *Client) ListFood(ctx context.Context, token string, userID uint) ([]FoodEntry, error) {
	var out []FoodEntry
	path := fmt.Sprintf("/users/%d/food", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LogFood submits a free-text meal description for remote analysis.
func (c *Client) LogFood(ctx context.Context, token string, userID uint, description string) (FoodLogResult, error) {
	var out FoodLogResult
	path := fmt.Sprintf("/users/%d/food", userID)
	body := map[string]string{"description": description}
	if err := c.do(ctx, http.MethodPost, path, token, body, &out); err != nil {
		return FoodLogResult{}, err
	}
	return out, nil
}

// GetHealthScore fetches the user's overall health score.
func (c *Client) GetHealthScore(ctx context.Context, token string, userID uint) (int, error) {
	var out struct {
		Score int `json:"score"`
	}
	path := fmt.Sprintf("/users/%d/health-score", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return 0, err
	}
	return out.Score, nil
}

// UpdateUser applies a partial profile update and returns the full replacement
// profile from the server. Targets are recomputed remotely as a side effect.
func (c *Client) UpdateUser(ctx context.Context, token string, userID uint, update UserUpdate) (User, error) {
	var out struct {
		Message string `json:"message"`
		User    User   `json:"user"`
	}
	path := fmt.Sprintf("/users/%d", userID)
	if err := c.do(ctx, http.MethodPut, path, token, update, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// ListChallenges fetches the challenge catalog.
func (c *Client) ListChallenges(ctx context.Context, token string) ([]Challenge, error) {
	var out []Challenge
	if err := c.do(ctx, http.MethodGet, "/challenges", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListParticipants fetches the roster for one challenge.
func (c *Client) ListParticipants(ctx context.Context, token string, challengeID uint) ([]Participant, error) {
	var out []Participant
	path := fmt.Sprintf("/challenges/%d/participants", challengeID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// JoinChallenge enrolls the authenticated user in a challenge.
func (c *Client) JoinChallenge(ctx context.Context, token string, challengeID uint) (Participation, error) {
	var out Participation
	body := map[string]uint{"challenge_id": challengeID}
	if err := c.do(ctx, http.MethodPost, "/challenges/join", token, body, &out); err != nil {
		return Participation{}, err
	}
	return out, nil
}

// UpdateChallengeProgress asks the server to recompute the user's progress.
// The request carries no body; the server infers progress from its own records.
func (c *Client) UpdateChallengeProgress(ctx context.Context, token string, challengeID uint) (Participation, error) {
	var out Participation
	path := fmt.Sprintf("/challenges/%d/update-progress", challengeID)
	if err := c.do(ctx, http.MethodPut, path, token, nil, &out); err != nil {
		return Participation{}, err
	}
	return out, nil
}

// ListPartners fetches the active partner catalog.
func (c *Client) ListPartners(ctx context.Context, token string) ([]Partner, error) {
	var out []Partner
	if err := c.do(ctx, http.MethodGet, "/partners", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPartnerHistory fetches the user's redemption history.
func (c *Client) GetPartnerHistory(ctx context.Context, token string, userID uint) ([]PartnerUsage, error) {
	var out []PartnerUsage
	path := fmt.Sprintf("/users/%d/partner-history", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UsePartnerDiscount redeems points for a partner discount.
func (c *Client) UsePartnerDiscount(ctx context.Context, token string, req DiscountRequest) (DiscountResult, error) {
	var out DiscountResult
	if err := c.do(ctx, http.MethodPost, "/partners/use-discount", token, req, &out); err != nil {
		return DiscountResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
	}

	return apiErr
}
