package handlers

import (
	"net/http"

	"github.com/courtesyinspect/courtesyinspect/internal/sms"
)

// PreviewSMS renders a template without sending anything.
func (h *Handlers) PreviewSMS(w http.ResponseWriter, r *http.Request) {
	if _, err := caller(r); err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		Template string            `json:"template"`
		Data     map[string]string `json:"data"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	msg, err := h.SMS.Preview(req.Template, req.Data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":       msg.Body,
		"length":        msg.Length,
		"valid":         msg.Length <= sms.MaxSingleSegment,
		"template_name": msg.Template,
	})
}

// ListSMSTemplates returns the available template names.
func (h *Handlers) ListSMSTemplates(w http.ResponseWriter, r *http.Request) {
	if _, err := caller(r); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": sms.TemplateNames()})
}
