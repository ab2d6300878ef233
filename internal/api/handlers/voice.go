package handlers

import (
	"net/http"
	"strings"

	"github.com/courtesyinspect/courtesyinspect/internal/voice"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// ParseVoice converts a transcribed utterance into a structured finding.
func (h *Handlers) ParseVoice(w http.ResponseWriter, r *http.Request) {
	if _, err := caller(r); err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, r, apperr.E(apperr.Invalid, "text is required"))
		return
	}

	respondJSON(w, http.StatusOK, voice.Parse(req.Text))
}
