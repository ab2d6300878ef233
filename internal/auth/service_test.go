package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	tokens := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, st)
	return NewService(st, hasher, tokens), st
}

func register(t *testing.T, svc *Service) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "tech@shop.com",
		Password: "sturdy4pass",
		FullName: "Terry Technician",
		Role:     models.RoleMechanic,
		ShopID:   "S1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Tech@Shop.COM ",
		Password: "sturdy4pass",
		FullName: "Terry Technician",
		Role:     models.RoleMechanic,
		ShopID:   "S1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "tech@shop.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "sturdy4pass" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "TECH@shop.com",
		Password: "another4pass",
		FullName: "Other Person",
		Role:     models.RoleMechanic,
		ShopID:   "S1",
	})
	if !apperr.Is(err, apperr.AlreadyExists) {
		t.Fatalf("kind = %v, want AlreadyExists", apperr.KindOf(err))
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	user, pair, err := svc.Login(context.Background(), "tech@shop.com", "sturdy4pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "tech@shop.com" {
		t.Errorf("user email = %q", user.Email)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Error("empty token pair")
	}

	claims, err := svc.tokens.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != user.ID || claims.ShopID != "S1" || claims.Role != models.RoleMechanic {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@shop.com", "whatever1")
	_, _, errWrong := svc.Login(context.Background(), "tech@shop.com", "wrongpass1")

	for _, err := range []error{errUnknown, errWrong} {
		if !apperr.Is(err, apperr.Unauthenticated) {
			t.Fatalf("kind = %v, want Unauthenticated", apperr.KindOf(err))
		}
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("distinguishable failures: %q vs %q", errUnknown, errWrong)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, st := newTestService(t)

	hash, err := svc.hasher.Hash("sturdy4pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	err = st.CreateUser(context.Background(), &models.User{
		ID:           "u-inactive",
		ShopID:       "S1",
		Email:        "gone@shop.com",
		PasswordHash: hash,
		FullName:     "Former Employee",
		Role:         models.RoleMechanic,
		IsActive:     false,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "gone@shop.com", "sturdy4pass"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("inactive login: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	_, pair, err := svc.Login(context.Background(), "tech@shop.com", "sturdy4pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.Refresh == pair.Refresh {
		t.Error("refresh token was not rotated")
	}

	// The presented token is single-use.
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("reused refresh token: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}

	// The rotated token still works.
	if _, err := svc.Refresh(context.Background(), next.Refresh); err != nil {
		t.Errorf("rotated token rejected: %v", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Refresh(context.Background(), "not.a.token"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("kind = %v, want Unauthenticated", apperr.KindOf(err))
	}
}

func TestLogoutEndsSession(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	_, pair, err := svc.Login(context.Background(), "tech@shop.com", "sturdy4pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.Logout(context.Background(), pair.Refresh)

	if _, err := svc.Refresh(context.Background(), pair.Refresh); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("refresh after logout: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	user := register(t, svc)

	_, pair, err := svc.Login(context.Background(), "tech@shop.com", "sturdy4pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrongpass1", "brandnew4pass"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("wrong current password: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "sturdy4pass", "brandnew4pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	// Old credentials fail, new ones work.
	if _, _, err := svc.Login(context.Background(), "tech@shop.com", "sturdy4pass"); err == nil {
		t.Error("old password still accepted")
	}
	if _, _, err := svc.Login(context.Background(), "tech@shop.com", "brandnew4pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Every prior session is revoked.
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("old session survived password change: kind = %v", apperr.KindOf(err))
	}
}

func TestVerifyAccessTampered(t *testing.T) {
	svc, _ := newTestService(t)
	user := register(t, svc)

	token, err := svc.tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	other := NewTokenService("different-secret", 15*time.Minute, time.Hour, store.NewMemoryStore())
	if _, err := other.VerifyAccess(token); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("cross-secret verify: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}

	if _, err := svc.tokens.VerifyAccess(token + "x"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("tampered token: kind = %v, want Unauthenticated", apperr.KindOf(err))
	}
}
