package http

import (
	"errors"
	"net/http"

	"log/slog"

	"healthgate/internal/partners"
	"healthgate/internal/upstream"
)

// PartnerHandler serves the discount marketplace.
type PartnerHandler struct {
	partners *partners.Service
	logger   *slog.Logger
}

// NewPartnerHandler creates a PartnerHandler.
func NewPartnerHandler(svc *partners.Service, logger *slog.Logger) *PartnerHandler {
	return &PartnerHandler{partners: svc, logger: logger}
}

// Marketplace handles GET /api/partners.
func (h *PartnerHandler) Marketplace(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	view := h.partners.Marketplace(r.Context(), rec.UpstreamToken, rec.User.ID)
	writeJSON(w, http.StatusOK, view)
}

// UseDiscount handles POST /api/partners/use-discount. The flow has not
// launched; valid requests are answered with 501 and a notice.
func (h *PartnerHandler) UseDiscount(w http.ResponseWriter, r *http.Request) {
	rec := SessionFromContext(r.Context())
	if rec == nil {
		unauthorized(w)
		return
	}

	var payload upstream.DiscountRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if payload.PartnerID == 0 {
		writeError(w, http.StatusBadRequest, "partner_id is required")
		return
	}

	if _, err := h.partners.UseDiscount(r.Context(), rec.UpstreamToken, payload); err != nil {
		if errors.Is(err, partners.ErrNotAvailable) {
			writeError(w, http.StatusNotImplemented, "discount redemption is coming soon")
			return
		}
		h.logger.Warn("discount redemption failed", "partner_id", payload.PartnerID, "error", err)
		writeUpstreamError(w, err, "failed to redeem discount")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
