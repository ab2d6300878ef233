// Package handlers implements the HTTP handlers for the inspection API.
// Handlers decode and validate input, delegate to the service layer, and
// shape responses; all business rules live in the services.
package handlers

import (
	"net/http"
	"time"

	"github.com/courtesyinspect/courtesyinspect/internal/auth"
	"github.com/courtesyinspect/courtesyinspect/internal/inspection"
	"github.com/courtesyinspect/courtesyinspect/internal/photos"
	"github.com/courtesyinspect/courtesyinspect/internal/portal"
	"github.com/courtesyinspect/courtesyinspect/internal/sms"
	"github.com/courtesyinspect/courtesyinspect/internal/store"

	"github.com/courtesyinspect/courtesyinspect/internal/api/middleware"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store       store.Store
	Auth        *auth.Service
	Inspections *inspection.Service
	Photos      *photos.Service
	Portal      *portal.Service
	SMS         *sms.Service
}

// New creates a Handlers instance with all dependencies.
func New(s store.Store, authSvc *auth.Service, insp *inspection.Service, photoSvc *photos.Service, portalSvc *portal.Service, smsSvc *sms.Service) *Handlers {
	return &Handlers{
		Store:       s,
		Auth:        authSvc,
		Inspections: insp,
		Photos:      photoSvc,
		Portal:      portalSvc,
		SMS:         smsSvc,
	}
}

// caller pulls the authenticated identity set by the auth middleware.
func caller(r *http.Request) (models.Caller, error) {
	c, ok := middleware.GetCaller(r.Context())
	if !ok {
		return models.Caller{}, apperr.E(apperr.Unauthenticated, "authentication required")
	}
	return c, nil
}

// Health reports process and database liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := true
	if err := h.Store.Ping(r.Context()); err != nil {
		dbConnected = false
	}
	status := "ok"
	code := http.StatusOK
	if !dbConnected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status": status,
		"database": map[string]any{
			"connected": dbConnected,
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
		"services": map[string]string{
			"auth":        "up",
			"inspections": "up",
			"voice":       "up",
			"sms":         "up",
			"portal":      "up",
		},
	})
}
