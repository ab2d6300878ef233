package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtesyinspect/courtesyinspect/internal/inspection"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// CreateInspection starts a new inspection for a vehicle.
func (h *Handlers) CreateInspection(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		VehicleID string `json:"vehicle_id"`
		ShopID    string `json:"shop_id"`
		Notes     string `json:"notes"`
		Items     []struct {
			Category        string `json:"category"`
			Component       string `json:"component"`
			Priority        int    `json:"priority"`
			MeasurementUnit string `json:"measurement_unit"`
			Notes           string `json:"notes"`
		} `json:"items"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	in := inspection.CreateInput{
		VehicleID: req.VehicleID,
		ShopID:    req.ShopID,
		Notes:     req.Notes,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, inspection.ItemInput{
			Category:        item.Category,
			Component:       item.Component,
			Priority:        item.Priority,
			MeasurementUnit: item.MeasurementUnit,
			Notes:           item.Notes,
		})
	}

	insp, err := h.Inspections.Create(r.Context(), c, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, insp)
}

// GetInspection returns one inspection with its joined entities.
func (h *Handlers) GetInspection(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	detail, err := h.Inspections.Get(r.Context(), c, chi.URLParam(r, "inspectionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// ListInspections returns a page of inspections matching the query.
func (h *Handlers) ListInspections(w http.ResponseWriter, r *http.Request) {
	h.listInspections(w, r, r.URL.Query().Get("shop_id"))
}

// ListShopInspections is ListInspections with the shop bound in the path.
func (h *Handlers) ListShopInspections(w http.ResponseWriter, r *http.Request) {
	h.listInspections(w, r, chi.URLParam(r, "shopID"))
}

func (h *Handlers) listInspections(w http.ResponseWriter, r *http.Request, shopID string) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	in := inspection.ListInput{
		ShopID: shopID,
		Status: models.InspectionStatus(q.Get("status")),
	}
	in.Page, _ = strconv.Atoi(q.Get("page"))
	in.Limit, _ = strconv.Atoi(q.Get("limit"))

	if in.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		respondError(w, r, err)
		return
	}
	if in.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.Inspections.List(r.Context(), c, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, result.Rows, result.Page, result.Limit, result.Total, result.Pages)
}

// parseDate accepts RFC3339 or a bare yyyy-mm-dd date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, apperr.Ef(apperr.Invalid, "invalid date %q", s)
}

// UpdateInspection patches status, notes, or completion date.
func (h *Handlers) UpdateInspection(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		Status         *models.InspectionStatus `json:"status"`
		Notes          *string                  `json:"notes"`
		CompletionDate *time.Time               `json:"completion_date"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	insp, err := h.Inspections.Update(r.Context(), c, chi.URLParam(r, "inspectionID"), inspection.UpdateInput{
		Status:      req.Status,
		Notes:       req.Notes,
		CompletedAt: req.CompletionDate,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insp)
}
