package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/courtesyinspect/courtesyinspect/internal/inspection"
	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// ListItems returns the inspection's items, filtered by query, plus a
// summary over the full set.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := store.ItemFilter{
		Category:  q.Get("category"),
		Status:    models.ItemStatus(q.Get("status")),
		Condition: q.Get("condition"),
	}
	if p := q.Get("priority"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			respondError(w, r, apperr.E(apperr.Invalid, "priority must be an integer"))
			return
		}
		filter.Priority = &n
	}

	list, err := h.Inspections.ListItems(r.Context(), c, chi.URLParam(r, "inspectionID"), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// AddItem appends one item to an open inspection.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		Category        string `json:"category"`
		Component       string `json:"component"`
		Priority        int    `json:"priority"`
		MeasurementUnit string `json:"measurement_unit"`
		Notes           string `json:"notes"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	item, err := h.Inspections.AddItem(r.Context(), c, chi.URLParam(r, "inspectionID"), inspection.ItemInput{
		Category:        req.Category,
		Component:       req.Component,
		Priority:        req.Priority,
		MeasurementUnit: req.MeasurementUnit,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// InitializeItems instantiates the checklist from active templates.
func (h *Handlers) InitializeItems(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	created, items, err := h.Inspections.InitializeItems(r.Context(), c, chi.URLParam(r, "inspectionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"items_created": created,
		"items":         items,
	})
}

// UpdateItem patches a single item.
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var patch inspection.ItemPatch
	if err := decode(r, &patch); err != nil {
		respondError(w, r, err)
		return
	}

	item, err := h.Inspections.UpdateItem(r.Context(), c, chi.URLParam(r, "inspectionID"), chi.URLParam(r, "itemID"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// BulkUpdateItems applies every patch or none.
func (h *Handlers) BulkUpdateItems(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		Updates []struct {
			ID string `json:"id"`
			inspection.ItemPatch
		} `json:"updates"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	updates := make([]inspection.BulkItemUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, inspection.BulkItemUpdate{ID: u.ID, Patch: u.ItemPatch})
	}

	items, summary, err := h.Inspections.BulkUpdateItems(r.Context(), c, chi.URLParam(r, "inspectionID"), updates)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"updated_items": items,
		"summary":       summary,
	})
}

// DeleteItem removes one item from an open inspection.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	item, err := h.Inspections.DeleteItem(r.Context(), c, chi.URLParam(r, "inspectionID"), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
