package portal

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

type fixture struct {
	svc   *Service
	store store.Store
	tech  models.Caller
	other models.Caller
	insp  *models.Inspection
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	if err := st.CreateShop(ctx, &models.Shop{ID: "S1", Name: "Main Street Auto", Phone: "+15125550100", Timezone: models.DefaultTimezone}); err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	if err := st.CreateUser(ctx, &models.User{ID: "U1", ShopID: "S1", Email: "taylor@shop.com", FullName: "Taylor Tech", Role: models.RoleMechanic, IsActive: true}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := st.CreateCustomer(ctx, &models.Customer{ID: "C1", ShopID: "S1", FirstName: "Casey", LastName: "Customer", Phone: "+15125550199"}); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if err := st.CreateVehicle(ctx, &models.Vehicle{ID: "V1", CustomerID: "C1", ShopID: "S1", Year: 2019, Make: "Honda", Model: "Civic", LicensePlate: "TX-4821"}); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	now := time.Now().UTC()
	insp := &models.Inspection{
		ID: "I1", ShopID: "S1", CustomerID: "C1", VehicleID: "V1", TechnicianID: "U1",
		InspectionNumber: "CI-2026-000001", Status: models.StatusCompleted,
		StartedAt: &now, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	if err := st.CreateInspection(ctx, insp); err != nil {
		t.Fatalf("CreateInspection: %v", err)
	}

	green := models.ConditionGreen
	red := models.ConditionRed
	cost := 280.0
	items := []models.InspectionItem{
		{ID: "IT1", InspectionID: "I1", Category: "fluids", Component: "oil level", Status: models.ItemChecked, Condition: &green, CheckedBy: "U1", Priority: 3},
		{ID: "IT2", InspectionID: "I1", Category: "brakes", Component: "front brake pads", Status: models.ItemChecked, Condition: &red, CheckedBy: "U1", EstimatedCost: &cost, RequiresImmediateAttention: true, Priority: 2},
	}
	if err := st.CreateItems(ctx, items); err != nil {
		t.Fatalf("CreateItems: %v", err)
	}

	return &fixture{
		svc:   NewService(st, []byte("portal-secret"), ttl, "https://inspect.example"),
		store: st,
		tech:  models.Caller{UserID: "U1", Role: models.RoleMechanic, ShopID: "S1"},
		other: models.Caller{UserID: "U2", Role: models.RoleMechanic, ShopID: "S2"},
		insp:  insp,
	}
}

func TestMintAndRead(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	grant, err := f.svc.Mint(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if grant.Token == "" {
		t.Fatal("empty token")
	}
	if !strings.HasPrefix(grant.URL, "https://inspect.example/portal/") {
		t.Errorf("url = %q", grant.URL)
	}

	view, err := f.svc.Read(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if view.InspectionNumber != "CI-2026-000001" {
		t.Errorf("number = %q", view.InspectionNumber)
	}
	if view.Customer != "Casey Customer" || view.CustomerPhone != "+15125550199" {
		t.Errorf("customer = %q / %q", view.Customer, view.CustomerPhone)
	}
	if view.Vehicle.Make != "Honda" || view.Vehicle.LicensePlate != "TX-4821" || view.Shop.Name != "Main Street Auto" {
		t.Errorf("vehicle/shop = %+v / %+v", view.Vehicle, view.Shop)
	}
	if view.Technician != "Taylor Tech" {
		t.Errorf("technician = %q", view.Technician)
	}
	if view.StartedAt == nil || view.CompletedAt == nil {
		t.Error("started_at and completed_at should be present")
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(view.Items))
	}
	if view.Summary.TotalItems != 2 || view.Summary.OKItems != 1 || view.Summary.IssueItems != 1 || view.Summary.UrgentItems != 1 {
		t.Errorf("summary = %+v", view.Summary)
	}
}

func TestProjectionRedactsInternalFields(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	grant, err := f.svc.Mint(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	view, err := f.svc.Read(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"shop_id", "checked_by", "technician_id", "user_id", "\"U1\""} {
		if strings.Contains(string(raw), leak) {
			t.Errorf("projection leaks %q: %s", leak, raw)
		}
	}
}

func TestMintCrossShopHidesExistence(t *testing.T) {
	f := newFixture(t, time.Hour)
	if _, err := f.svc.Mint(context.Background(), f.other, "I1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	grant, err := f.svc.Mint(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := f.svc.Verify(ctx, grant.Token+"x"); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("tampered: kind = %v, want Invalid", apperr.KindOf(err))
	}
	if _, err := f.svc.Verify(ctx, "not-a-jwt"); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("garbage: kind = %v, want Invalid", apperr.KindOf(err))
	}

	other := NewService(f.store, []byte("another-secret"), time.Hour, "")
	if _, err := other.Verify(ctx, grant.Token); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("wrong secret: kind = %v, want Invalid", apperr.KindOf(err))
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	f := newFixture(t, time.Nanosecond)

	grant, err := f.svc.Mint(context.Background(), f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := f.svc.Verify(context.Background(), grant.Token); !apperr.Is(err, apperr.Expired) {
		t.Fatalf("kind = %v, want Expired", apperr.KindOf(err))
	}
}

func TestRevocation(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	a, err := f.svc.Mint(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	b, err := f.svc.Mint(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := f.svc.Revoke(ctx, f.other, "I1"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("cross-shop revoke: kind = %v, want NotFound", apperr.KindOf(err))
	}

	if err := f.svc.Revoke(ctx, f.tech, "I1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	for _, token := range []string{a.Token, b.Token} {
		if _, err := f.svc.Read(ctx, token); !apperr.Is(err, apperr.Revoked) {
			t.Errorf("post-revoke read: kind = %v, want Revoked", apperr.KindOf(err))
		}
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	f := newFixture(t, 0)

	grant, err := f.svc.Mint(context.Background(), f.tech, "I1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	min := time.Now().UTC().Add(DefaultTTL - time.Minute)
	if grant.ExpiresAt.Before(min) {
		t.Errorf("expires_at = %v, want about %v out", grant.ExpiresAt, DefaultTTL)
	}
}
