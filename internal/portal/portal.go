// Package portal mints and verifies customer-facing inspection links.
// A portal token is a signed capability: anyone holding it can read one
// inspection's redacted projection without logging in. Each token is
// backed by a persisted row so it can be revoked before expiry.
package portal

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// DefaultTTL is the token lifetime when the config does not override it.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the JWT payload of a portal token.
type Claims struct {
	InspectionID string `json:"inspection_id"`
	jwt.RegisteredClaims
}

// Service mints, verifies, and revokes portal tokens and builds the
// customer-facing read model.
type Service struct {
	store   store.Store
	secret  []byte
	ttl     time.Duration
	baseURL string
}

// NewService creates the portal service. ttl <= 0 selects DefaultTTL.
func NewService(s store.Store, secret []byte, ttl time.Duration, baseURL string) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: s, secret: secret, ttl: ttl, baseURL: baseURL}
}

// Grant is the result of minting a portal token.
type Grant struct {
	Token     string    `json:"token"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Mint issues a new portal token for the inspection. The caller must have
// access to the inspection's shop; cross-shop callers get NotFound.
func (s *Service) Mint(ctx context.Context, caller models.Caller, inspectionID string) (*Grant, error) {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessShop(insp.ShopID) {
		return nil, apperr.E(apperr.NotFound, "inspection not found")
	}

	now := time.Now().UTC()
	expires := now.Add(s.ttl)
	id := uuid.NewString()

	claims := Claims{
		InspectionID: insp.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   insp.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not sign portal token", err)
	}

	row := &models.PortalToken{
		ID:           id,
		InspectionID: insp.ID,
		ExpiresAt:    expires,
		CreatedAt:    now,
	}
	if err := s.store.CreatePortalToken(ctx, row); err != nil {
		return nil, err
	}

	grant := &Grant{Token: signed, ExpiresAt: expires}
	if s.baseURL != "" {
		grant.URL = s.baseURL + "/portal/" + signed
	}
	return grant, nil
}

// Verify checks signature, expiry, and revocation, returning the backing
// row. Tampered or malformed tokens are Invalid, past-expiry Expired,
// revoked Revoked.
func (s *Service) Verify(ctx context.Context, token string) (*models.PortalToken, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.E(apperr.Expired, "portal link has expired")
		}
		return nil, apperr.E(apperr.Invalid, "invalid portal token")
	}
	if claims.ID == "" || claims.InspectionID == "" {
		return nil, apperr.E(apperr.Invalid, "invalid portal token")
	}

	row, err := s.store.GetPortalToken(ctx, claims.ID)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid portal token")
	}
	if row.Revoked {
		return nil, apperr.E(apperr.Revoked, "portal link has been revoked")
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return nil, apperr.E(apperr.Expired, "portal link has expired")
	}
	return row, nil
}

// Revoke marks every outstanding token for the inspection revoked. The
// caller must have access to the inspection's shop.
func (s *Service) Revoke(ctx context.Context, caller models.Caller, inspectionID string) error {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return err
	}
	if !caller.CanAccessShop(insp.ShopID) {
		return apperr.E(apperr.NotFound, "inspection not found")
	}
	return s.store.RevokePortalTokens(ctx, inspectionID)
}

// ── Customer projection ──────────────────────────────────────

// View is the redacted, customer-facing read model. No shop or user ids
// cross this boundary; the technician appears by name only.
type View struct {
	InspectionNumber string      `json:"inspection_number"`
	Status           string      `json:"status"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	SentAt           *time.Time  `json:"sent_at,omitempty"`
	Shop             ShopView    `json:"shop"`
	Vehicle          VehicleView `json:"vehicle"`
	Customer         string      `json:"customer_name"`
	CustomerPhone    string      `json:"customer_phone,omitempty"`
	Technician       string      `json:"technician_name,omitempty"`
	Items            []ItemView  `json:"items"`
	Summary          ViewSummary `json:"summary"`
}

type ShopView struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type VehicleView struct {
	Year         int    `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	LicensePlate string `json:"license_plate,omitempty"`
}

type ItemView struct {
	Category       string   `json:"category"`
	Component      string   `json:"component"`
	Status         string   `json:"status"`
	Condition      *string  `json:"condition"`
	Notes          string   `json:"notes,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
}

type ViewSummary struct {
	TotalItems  int `json:"total_items"`
	OKItems     int `json:"ok_items"`
	IssueItems  int `json:"issue_items"`
	UrgentItems int `json:"urgent_items"`
}

// Read verifies the token and builds the redacted projection.
func (s *Service) Read(ctx context.Context, token string) (*View, error) {
	row, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	detail, err := s.store.GetInspectionDetail(ctx, row.InspectionID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, row.InspectionID, store.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return project(detail, items), nil
}

func project(detail *models.InspectionDetail, items []models.InspectionItem) *View {
	view := &View{
		InspectionNumber: detail.InspectionNumber,
		Status:           string(detail.Status),
		StartedAt:        detail.StartedAt,
		CompletedAt:      detail.CompletedAt,
		SentAt:           detail.SentAt,
		Items:            make([]ItemView, 0, len(items)),
	}
	if detail.Shop != nil {
		view.Shop = ShopView{Name: detail.Shop.Name, Phone: detail.Shop.Phone}
	}
	if detail.Vehicle != nil {
		view.Vehicle = VehicleView{
			Year:         detail.Vehicle.Year,
			Make:         detail.Vehicle.Make,
			Model:        detail.Vehicle.Model,
			LicensePlate: detail.Vehicle.LicensePlate,
		}
	}
	if detail.Customer != nil {
		view.Customer = detail.Customer.FirstName + " " + detail.Customer.LastName
		view.CustomerPhone = detail.Customer.Phone
	}
	if detail.Technician != nil {
		view.Technician = detail.Technician.FullName
	}

	for _, item := range items {
		iv := ItemView{
			Category:       item.Category,
			Component:      item.Component,
			Status:         string(item.Status),
			Notes:          item.Notes,
			Recommendation: item.Recommendations,
			EstimatedCost:  item.EstimatedCost,
		}
		if item.Condition != nil {
			c := string(*item.Condition)
			iv.Condition = &c
		}
		view.Items = append(view.Items, iv)

		view.Summary.TotalItems++
		if item.Condition != nil {
			switch *item.Condition {
			case models.ConditionGreen:
				view.Summary.OKItems++
			case models.ConditionYellow, models.ConditionRed:
				view.Summary.IssueItems++
			}
		}
		if item.RequiresImmediateAttention {
			view.Summary.UrgentItems++
		}
	}
	return view
}
