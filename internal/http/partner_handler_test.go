package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"healthgate/internal/partners"
	"healthgate/internal/upstream"
)

type partnerAPIStub struct {
	listPartners func(ctx context.Context, token string) ([]upstream.Partner, error)
	getHistory   func(ctx context.Context, token string, userID uint) ([]upstream.PartnerUsage, error)
	useDiscount  func(ctx context.Context, token string, req upstream.DiscountRequest) (upstream.DiscountResult, error)
}

func (s *partnerAPIStub) ListPartners(ctx context.Context, token string) ([]upstream.Partner, error) {
	return s.listPartners(ctx, token)
}

func (s *partnerAPIStub) GetPartnerHistory(ctx context.Context, token string, userID uint) ([]upstream.PartnerUsage, error) {
	return s.getHistory(ctx, token, userID)
}

func (s *partnerAPIStub) UsePartnerDiscount(ctx context.Context, token string, req upstream.DiscountRequest) (upstream.DiscountResult, error) {
	return s.useDiscount(ctx, token, req)
}

func TestPartnerMarketplace(t *testing.T) {
	svc, token := loggedInService(t, completeUser())
	stub := &partnerAPIStub{
		listPartners: func(context.Context, string) ([]upstream.Partner, error) {
			return []upstream.Partner{{ID: 1, Name: "Green Grocer"}}, nil
		},
		getHistory: func(context.Context, string, uint) ([]upstream.PartnerUsage, error) {
			return []upstream.PartnerUsage{}, nil
		},
	}
	handler := NewPartnerHandler(partners.NewService(stub, testLogger()), testLogger())

	req := authenticatedRequest(t, svc, token, http.MethodGet, "/api/partners", nil)
	rec := httptest.NewRecorder()

	handler.Marketplace(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view partners.Marketplace
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(view.Partners) != 1 || view.Partners[0].Name != "Green Grocer" {
		t.Fatalf("expected catalog, got %+v", view)
	}
}

func TestUseDiscountComingSoon(t *testing.T) {
	svc, token := loggedInService(t, completeUser())
	stub := &partnerAPIStub{}
	handler := NewPartnerHandler(partners.NewService(stub, testLogger()), testLogger())

	req := authenticatedRequest(t, svc, token, http.MethodPost, "/api/partners/use-discount", strings.NewReader(`{"partner_id":1,"order_amount":25}`))
	rec := httptest.NewRecorder()

	handler.UseDiscount(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}

	var response map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&response)
	if !strings.Contains(response["error"], "coming soon") {
		t.Fatalf("expected coming soon notice, got %v", response)
	}
}

func TestUseDiscountRequiresPartnerID(t *testing.T) {
	svc, token := loggedInService(t, completeUser())
	handler := NewPartnerHandler(partners.NewService(&partnerAPIStub{}, testLogger()), testLogger())

	req := authenticatedRequest(t, svc, token, http.MethodPost, "/api/partners/use-discount", strings.NewReader(`{"order_amount":25}`))
	rec := httptest.NewRecorder()

	handler.UseDiscount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
