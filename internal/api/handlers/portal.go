package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// GeneratePortalToken mints a customer portal link for an inspection.
func (h *Handlers) GeneratePortalToken(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		InspectionID string `json:"inspection_id"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.InspectionID == "" {
		respondError(w, r, apperr.E(apperr.Invalid, "inspection_id is required"))
		return
	}

	grant, err := h.Portal.Mint(r.Context(), c, req.InspectionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, grant)
}

// RevokePortalTokens invalidates every outstanding link for an inspection.
func (h *Handlers) RevokePortalTokens(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		InspectionID string `json:"inspection_id"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.InspectionID == "" {
		respondError(w, r, apperr.E(apperr.Invalid, "inspection_id is required"))
		return
	}

	if err := h.Portal.Revoke(r.Context(), c, req.InspectionID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

// ViewPortal serves the unauthenticated customer projection.
func (h *Handlers) ViewPortal(w http.ResponseWriter, r *http.Request) {
	view, err := h.Portal.Read(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
