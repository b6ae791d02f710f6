// Package dashboard aggregates the per-view data of the main screen. Each
// section is fetched independently so one failing resource never blanks the
// rest of the page.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"log/slog"

	"healthgate/internal/upstream"
)

// ErrAlreadyJoined is returned when a join is attempted for a challenge the
// user already participates in. The join action is only offered when no
// participation row matches the user, so the gateway refuses early.
var ErrAlreadyJoined = errors.New("challenge already joined")

// API is the slice of the remote client the dashboard needs.
type API interface {
	GetDailyTarget(ctx context.Context, token string, userID uint) (upstream.DailyTarget, error)
	GetTargetStatus(ctx context.Context, token string, userID uint) (upstream.TargetStatus, error)
	ListFood(ctx context.Context, token string, userID uint) ([]upstream.FoodEntry, error)
	GetHealthScore(ctx context.Context, token string, userID uint) (int, error)
	LogFood(ctx context.Context, token string, userID uint, description string) (upstream.FoodLogResult, error)
	ListChallenges(ctx context.Context, token string) ([]upstream.Challenge, error)
	ListParticipants(ctx context.Context, token string, challengeID uint) ([]upstream.Participant, error)
	JoinChallenge(ctx context.Context, token string, challengeID uint) (upstream.Participation, error)
	UpdateChallengeProgress(ctx context.Context, token string, challengeID uint) (upstream.Participation, error)
}

// Overview is the dashboard's main payload. Every section carries its own
// error slot; a populated error leaves the other sections intact.
type Overview struct {
	Target      *upstream.DailyTarget  `json:"target"`
	TargetError string                 `json:"targetError,omitempty"`
	Status      *upstream.TargetStatus `json:"status"`
	StatusError string                 `json:"statusError,omitempty"`
	Food        []upstream.FoodEntry   `json:"food"`
	FoodError   string                 `json:"foodError,omitempty"`
	HealthScore int                    `json:"healthScore"`
	ScoreError  string                 `json:"scoreError,omitempty"`
}

// ChallengeBoard lists the challenge catalog next to the user's own
// participations.
type ChallengeBoard struct {
	Challenges     []upstream.Challenge   `json:"challenges"`
	ChallengeError string                 `json:"challengeError,omitempty"`
	Mine           []upstream.Participant `json:"mine"`
	MineError      string                 `json:"mineError,omitempty"`
}

// Service composes dashboard views from the remote API.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService creates a dashboard Service.
func NewService(api API, logger *slog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Overview fetches target, status, food list and health score concurrently.
// The four requests are independent: no ordering, no joint completion
// barrier, and a failure in one never cancels another.
func (s *Service) Overview(ctx context.Context, token string, userID uint) Overview {
	var (
		view Overview
		wg   sync.WaitGroup
	)

	wg.Add(4)

	go func() {
		defer wg.Done()
		target, err := s.api.GetDailyTarget(ctx, token, userID)
		if err != nil {
			view.TargetError = sectionError("load daily target", err, s.logger)
			return
		}
		view.Target = &target
	}()

	go func() {
		defer wg.Done()
		status, err := s.api.GetTargetStatus(ctx, token, userID)
		if err != nil {
			view.StatusError = sectionError("load target status", err, s.logger)
			return
		}
		view.Status = &status
	}()

	go func() {
		defer wg.Done()
		food, err := s.api.ListFood(ctx, token, userID)
		if err != nil {
			// No entries today comes back as 404; show an empty log.
			if upstream.IsStatus(err, http.StatusNotFound) {
				view.Food = []upstream.FoodEntry{}
				return
			}
			view.FoodError = sectionError("load food log", err, s.logger)
			return
		}
		view.Food = food
	}()

	go func() {
		defer wg.Done()
		score, err := s.api.GetHealthScore(ctx, token, userID)
		if err != nil {
			view.ScoreError = sectionError("load health score", err, s.logger)
			return
		}
		view.HealthScore = score
	}()

	wg.Wait()

	if view.Food == nil && view.FoodError == "" {
		view.Food = []upstream.FoodEntry{}
	}
	return view
}

// ChallengeBoard fetches the challenge catalog and the user's participations
// concurrently, each with its own error slot.
func (s *Service) ChallengeBoard(ctx context.Context, token string, userID uint) ChallengeBoard {
	var (
		board ChallengeBoard
		wg    sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		challenges, err := s.api.ListChallenges(ctx, token)
		if err != nil {
			board.ChallengeError = sectionError("load challenges", err, s.logger)
			return
		}
		board.Challenges = challenges
	}()

	go func() {
		defer wg.Done()
		mine, err := s.myParticipations(ctx, token, userID)
		if err != nil {
			board.MineError = sectionError("load participations", err, s.logger)
			return
		}
		board.Mine = mine
	}()

	wg.Wait()

	if board.Challenges == nil {
		board.Challenges = []upstream.Challenge{}
	}
	if board.Mine == nil {
		board.Mine = []upstream.Participant{}
	}
	return board
}

// Participants fetches the roster for one challenge on demand. The caller
// replaces any previously displayed roster with the result.
func (s *Service) Participants(ctx context.Context, token string, challengeID uint) ([]upstream.Participant, error) {
	roster, err := s.api.ListParticipants(ctx, token, challengeID)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		roster = []upstream.Participant{}
	}
	return roster, nil
}

// LogFood submits a meal description and, on success, re-fetches the full
// overview so every section reflects the server's recomputation.
func (s *Service) LogFood(ctx context.Context, token string, userID uint, description string) (upstream.FoodLogResult, Overview, error) {
	result, err := s.api.LogFood(ctx, token, userID, description)
	if err != nil {
		return upstream.FoodLogResult{}, Overview{}, err
	}
	return result, s.Overview(ctx, token, userID), nil
}

// Join enrolls the user in a challenge and re-fetches their participations.
// Joining a challenge the user is already in is refused locally.
func (s *Service) Join(ctx context.Context, token string, userID, challengeID uint) ([]upstream.Participant, error) {
	mine, err := s.myParticipations(ctx, token, userID)
	if err == nil {
		for _, p := range mine {
			if p.ChallengeID == challengeID {
				return nil, ErrAlreadyJoined
			}
		}
	}

	if _, err := s.api.JoinChallenge(ctx, token, challengeID); err != nil {
		return nil, err
	}

	return s.refreshedParticipations(ctx, token, userID)
}

// UpdateProgress asks the server to recompute progress, then re-fetches the
// user's participations. When a roster panel is open (rosterID non-nil) that
// roster is re-fetched too.
func (s *Service) UpdateProgress(ctx context.Context, token string, userID, challengeID uint, rosterID *uint) ([]upstream.Participant, []upstream.Participant, error) {
	if _, err := s.api.UpdateChallengeProgress(ctx, token, challengeID); err != nil {
		return nil, nil, err
	}

	mine, err := s.refreshedParticipations(ctx, token, userID)
	if err != nil {
		return nil, nil, err
	}

	if rosterID == nil {
		return mine, nil, nil
	}

	roster, err := s.Participants(ctx, token, *rosterID)
	if err != nil {
		return mine, nil, err
	}
	return mine, roster, nil
}

func (s *Service) refreshedParticipations(ctx context.Context, token string, userID uint) ([]upstream.Participant, error) {
	mine, err := s.myParticipations(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	if mine == nil {
		mine = []upstream.Participant{}
	}
	return mine, nil
}

// myParticipations lists participation rows belonging to the user. The
// remote endpoint is keyed by user ID and over-returns, so the rows are
// filtered to the user here, exactly as the views display them.
func (s *Service) myParticipations(ctx context.Context, token string, userID uint) ([]upstream.Participant, error) {
	rows, err := s.api.ListParticipants(ctx, token, userID)
	if err != nil {
		if upstream.IsStatus(err, http.StatusNotFound) {
			return []upstream.Participant{}, nil
		}
		return nil, err
	}

	mine := make([]upstream.Participant, 0, len(rows))
	for _, row := range rows {
		if row.UserID == userID {
			mine = append(mine, row)
		}
	}
	return mine, nil
}

func sectionError(action string, err error, logger *slog.Logger) string {
	if logger != nil {
		logger.Warn(action+" failed", "error", err)
	}
	if apiErr, ok := err.(*upstream.APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "failed to " + action
}

// Greeting returns the wall-clock salutation for the given hour.
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
