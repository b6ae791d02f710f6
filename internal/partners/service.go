// Package partners serves the discount marketplace view: the partner catalog
// and the user's redemption history.
package partners

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"log/slog"

	"healthgate/internal/upstream"
)

// ErrNotAvailable marks the redemption flow, which is present in the remote
// interface contract but intentionally not wired up yet. Callers surface it
// as a "coming soon" notice rather than inventing discount rules.
var ErrNotAvailable = errors.New("partner discount redemption is not available yet")

// API is the slice of the remote client the marketplace needs.
type API interface {
	ListPartners(ctx context.Context, token string) ([]upstream.Partner, error)
	GetPartnerHistory(ctx context.Context, token string, userID uint) ([]upstream.PartnerUsage, error)
	UsePartnerDiscount(ctx context.Context, token string, req upstream.DiscountRequest) (upstream.DiscountResult, error)
}

// Marketplace is the partners view payload, with independent error slots.
type Marketplace struct {
	Partners     []upstream.Partner      `json:"partners"`
	PartnerError string                  `json:"partnerError,omitempty"`
	History      []upstream.PartnerUsage `json:"history"`
	HistoryError string                  `json:"historyError,omitempty"`
}

// Service composes the marketplace view.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService creates a partners Service.
func NewService(api API, logger *slog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Marketplace fetches the catalog and the redemption history concurrently.
func (s *Service) Marketplace(ctx context.Context, token string, userID uint) Marketplace {
	var (
		view Marketplace
		wg   sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		partners, err := s.api.ListPartners(ctx, token)
		if err != nil {
			view.PartnerError = sectionError("load partners", err, s.logger)
			return
		}
		view.Partners = partners
	}()

	go func() {
		defer wg.Done()
		history, err := s.api.GetPartnerHistory(ctx, token, userID)
		if err != nil {
			if upstream.IsStatus(err, http.StatusNotFound) {
				view.History = []upstream.PartnerUsage{}
				return
			}
			view.HistoryError = sectionError("load partner history", err, s.logger)
			return
		}
		view.History = history
	}()

	wg.Wait()

	if view.Partners == nil {
		view.Partners = []upstream.Partner{}
	}
	if view.History == nil && view.HistoryError == "" {
		view.History = []upstream.PartnerUsage{}
	}
	return view
}

// UseDiscount is deliberately unfinished. The remote mutation exists and the
// client implements it, but the feature has not launched, so every call is
// answered with ErrNotAvailable.
func (s *Service) UseDiscount(_ context.Context, _ string, _ upstream.DiscountRequest) (upstream.DiscountResult, error) {
	return upstream.DiscountResult{}, ErrNotAvailable
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
