package handlers

import (
	"net/http"

	"github.com/courtesyinspect/courtesyinspect/internal/auth"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// Register creates a user account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		FullName string      `json:"full_name"`
		Role     models.Role `json:"role"`
		ShopID   string      `json:"shop_id"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Auth.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		ShopID:   req.ShopID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and returns a token pair plus the user.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, apperr.E(apperr.Invalid, "email and password are required"))
		return
	}

	user, pair, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"access_token":  pair.Access,
		"refresh_token": pair.Refresh,
	})
}

// Refresh rotates a refresh token.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, r, apperr.E(apperr.Invalid, "refresh_token is required"))
		return
	}

	pair, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// Logout deletes the presented session. Always succeeds.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.Auth.Logout(r.Context(), req.RefreshToken)
	respondJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me returns the authenticated user's fresh record.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), c.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePassword rewrites the caller's password and ends all sessions.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), c.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"changed": true})
}
