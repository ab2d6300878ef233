package photos

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

type fixture struct {
	svc  *Service
	root string
	tech models.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := t.TempDir()

	if err := st.CreateShop(ctx, &models.Shop{ID: "S1", Name: "Main Street Auto", Timezone: models.DefaultTimezone}); err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	if err := st.CreateCustomer(ctx, &models.Customer{ID: "C1", ShopID: "S1", FirstName: "Casey", LastName: "Customer"}); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if err := st.CreateVehicle(ctx, &models.Vehicle{ID: "V1", CustomerID: "C1", ShopID: "S1", Year: 2019, Make: "Honda", Model: "Civic"}); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	now := time.Now().UTC()
	open := &models.Inspection{
		ID: "I1", ShopID: "S1", CustomerID: "C1", VehicleID: "V1", TechnicianID: "U1",
		InspectionNumber: "CI-2026-000001", Status: models.StatusInProgress,
		StartedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	sent := &models.Inspection{
		ID: "I2", ShopID: "S1", CustomerID: "C1", VehicleID: "V1", TechnicianID: "U1",
		InspectionNumber: "CI-2026-000002", Status: models.StatusSent,
		StartedAt: &now, CompletedAt: &now, SentAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	for _, insp := range []*models.Inspection{open, sent} {
		if err := st.CreateInspection(ctx, insp); err != nil {
			t.Fatalf("CreateInspection(%s): %v", insp.ID, err)
		}
	}
	items := []models.InspectionItem{
		{ID: "IT1", InspectionID: "I1", Category: "brakes", Component: "front brake pads", Status: models.ItemPending, Priority: 2},
		{ID: "IT2", InspectionID: "I2", Category: "brakes", Component: "front brake pads", Status: models.ItemPending, Priority: 2},
	}
	if err := st.CreateItems(ctx, items); err != nil {
		t.Fatalf("CreateItems: %v", err)
	}

	return &fixture{
		svc:  NewService(st, NewDiskStorage(root, "")),
		root: root,
		tech: models.Caller{UserID: "U1", Role: models.RoleMechanic, ShopID: "S1"},
	}
}

func TestAttachAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photo, err := f.svc.Attach(ctx, f.tech, "I1", AttachInput{
		ItemID:      "IT1",
		Filename:    "pads.jpg",
		ContentType: "image/jpeg",
		Reader:      strings.NewReader("jpeg bytes"),
	})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if photo.StorageKey == "" || !strings.HasSuffix(photo.StorageKey, ".jpg") {
		t.Errorf("storage key = %q", photo.StorageKey)
	}
	if !strings.HasPrefix(photo.URL, "/uploads/I1/") {
		t.Errorf("url = %q", photo.URL)
	}
	if photo.SizeBytes != int64(len("jpeg bytes")) {
		t.Errorf("size = %d", photo.SizeBytes)
	}

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(photo.StorageKey)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("stored bytes = %q", data)
	}

	list, err := f.svc.List(ctx, f.tech, "I1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != photo.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestAttachCrossShopHidesExistence(t *testing.T) {
	f := newFixture(t)
	other := models.Caller{UserID: "U2", Role: models.RoleMechanic, ShopID: "S2"}

	_, err := f.svc.Attach(context.Background(), other, "I1", AttachInput{
		Filename: "pads.jpg",
		Reader:   strings.NewReader("x"),
	})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
	if _, err := f.svc.List(context.Background(), other, "I1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("list kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestAttachTerminalInspection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Attach(context.Background(), f.tech, "I2", AttachInput{
		Filename: "pads.jpg",
		Reader:   strings.NewReader("x"),
	})
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("kind = %v, want Conflict", apperr.KindOf(err))
	}
}

func TestAttachItemMustBelongToInspection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, itemID := range []string{"IT2", "missing"} {
		_, err := f.svc.Attach(ctx, f.tech, "I1", AttachInput{
			ItemID:   itemID,
			Filename: "pads.jpg",
			Reader:   strings.NewReader("x"),
		})
		if !apperr.Is(err, apperr.Invalid) {
			t.Errorf("item %q: kind = %v, want Invalid", itemID, apperr.KindOf(err))
		}
	}
}

func TestAttachRequiresPayload(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Attach(context.Background(), f.tech, "I1", AttachInput{Filename: "pads.jpg"}); !apperr.Is(err, apperr.Invalid) {
		t.Fatalf("kind = %v, want Invalid", apperr.KindOf(err))
	}
}

func TestExtensionSanitized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]string{
		"evil.exe":  ".bin",
		"photo.PNG": ".png",
		"noext":     ".bin",
	}
	for filename, want := range cases {
		photo, err := f.svc.Attach(ctx, f.tech, "I1", AttachInput{
			Filename: filename,
			Reader:   strings.NewReader("x"),
		})
		if err != nil {
			t.Fatalf("Attach(%q): %v", filename, err)
		}
		if !strings.HasSuffix(photo.StorageKey, want) {
			t.Errorf("Attach(%q) key = %q, want suffix %q", filename, photo.StorageKey, want)
		}
	}
}
