package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// dummyHash is compared against when the email is unknown so that unknown
// email and wrong password take the same time and return the same error.
// bcrypt of an unguessable random string at the default cost.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Service orchestrates the password hasher, token service, and store for
// the authentication flows.
type Service struct {
	store  store.Store
	hasher *PasswordHasher
	tokens *TokenService
}

// NewService creates the auth service.
func NewService(s store.Store, hasher *PasswordHasher, tokens *TokenService) *Service {
	return &Service{store: s, hasher: hasher, tokens: tokens}
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// RegisterInput carries the fields for user creation.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     models.Role
	ShopID   string
}

// Register creates a user. The password is policy-checked and hashed; the
// returned user never carries the hash to clients (the JSON tag drops it).
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.Invalid, "a valid email is required")
	}
	if in.FullName == "" {
		return nil, apperr.E(apperr.Invalid, "full_name is required")
	}
	if !models.ValidRole(in.Role) {
		return nil, apperr.E(apperr.Invalid, "unknown role")
	}
	if in.ShopID == "" {
		return nil, apperr.E(apperr.Invalid, "shop_id is required")
	}
	if err := CheckPasswordPolicy(in.Password, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		ShopID:       in.ShopID,
		Email:        email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("shop_id", user.ShopID).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Burn a compare so the miss costs the same as a mismatch.
		s.hasher.Verify(password, dummyHash)
		return nil, nil, apperr.E(apperr.Unauthenticated, "invalid credentials")
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, nil, apperr.E(apperr.Unauthenticated, "invalid credentials")
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.tokens.IssueRefresh(ctx, s.store, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token: the presented session row is deleted and
// the new one written in the same transaction. No retries; a failure aborts.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, session, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		if apperr.Is(err, apperr.Expired) {
			return nil, apperr.E(apperr.Unauthenticated, "invalid refresh token")
		}
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.E(apperr.Unauthenticated, "invalid refresh token")
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	var refresh string
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeleteSession(ctx, session.ID); err != nil {
			return err
		}
		refresh, err = s.tokens.IssueRefresh(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Logout deletes the matching session row. Best-effort: never fails visibly.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if err := s.store.DeleteSessionByToken(ctx, refreshToken); err != nil {
		log.Warn().Err(err).Msg("logout: session delete failed")
	}
}

// ChangePassword verifies the current password, rewrites the hash, and
// deletes every session for the user in one transaction.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return apperr.E(apperr.Unauthenticated, "invalid credentials")
	}
	if err := CheckPasswordPolicy(newPassword, user.Email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpdateUserPassword(ctx, userID, hash); err != nil {
			return err
		}
		return tx.DeleteUserSessions(ctx, userID)
	})
}
