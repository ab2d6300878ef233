package auth

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

// ClockSkewLeeway is tolerated on every token verification.
const ClockSkewLeeway = 60 * time.Second

// AccessClaims is the typed payload of an access token.
type AccessClaims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	ShopID string      `json:"shop_id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the typed payload of a refresh token.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed access and refresh tokens.
// Refresh tokens are additionally persisted to user_sessions so they can be
// revoked server-side.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      store.Store
}

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, s store.Store) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      s,
	}
}

// RefreshTTL exposes the configured refresh lifetime for session rows.
func (t *TokenService) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccess signs a short-lived access token for the user.
func (t *TokenService) IssueAccess(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		ShopID: user.ShopID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// VerifyAccess validates the signature and expiry and returns the typed
// claims. Expired tokens fail Expired; anything else Unauthenticated.
func (t *TokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	err := t.parse(tokenString, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueRefresh signs a refresh token and persists the session row binding
// (user, token, expiry). Callers inside a rotation wrap this in the same
// transaction as the delete of the presented token.
func (t *TokenService) IssueRefresh(ctx context.Context, s store.Store, userID string) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", err
	}

	session := &models.Session{
		ID:           claims.ID,
		UserID:       userID,
		RefreshToken: tokenString,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	if err := s.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return tokenString, nil
}

// VerifyRefresh checks the token cryptographically and against the
// persisted session row: the token must match a non-expired row for the
// asserted user. Returns the claims and the matching session.
func (t *TokenService) VerifyRefresh(ctx context.Context, tokenString string) (*RefreshClaims, *models.Session, error) {
	claims := &RefreshClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, nil, err
	}

	session, err := t.store.GetSessionByToken(ctx, claims.UserID, tokenString)
	if err != nil {
		return nil, nil, apperr.E(apperr.Unauthenticated, "invalid refresh token")
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, nil, apperr.E(apperr.Unauthenticated, "invalid refresh token")
	}
	return claims, session, nil
}

func (t *TokenService) parse(tokenString string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(ClockSkewLeeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperr.E(apperr.Expired, "token expired")
		}
		return apperr.E(apperr.Unauthenticated, "invalid token")
	}
	return nil
}
