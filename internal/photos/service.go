package photos

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// Service owns photo attachment and listing for inspections.
type Service struct {
	store   store.Store
	storage Storage
}

func NewService(st store.Store, storage Storage) *Service {
	return &Service{store: st, storage: storage}
}

// access loads an inspection and enforces tenancy. Cross-shop callers get
// NotFound so existence is not leaked.
func (s *Service) access(ctx context.Context, caller models.Caller, inspectionID string) (*models.Inspection, error) {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessShop(insp.ShopID) {
		return nil, apperr.E(apperr.NotFound, "inspection not found")
	}
	return insp, nil
}

// AttachInput carries one upload. ItemID is optional; when set the item
// must belong to the same inspection.
type AttachInput struct {
	ItemID      string
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Attach stores the byte stream and records the photo row. Terminal
// inspections no longer accept photos.
func (s *Service) Attach(ctx context.Context, caller models.Caller, inspectionID string, in AttachInput) (*models.Photo, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return nil, apperr.E(apperr.Conflict, "inspection no longer accepts photos")
	}
	if in.Reader == nil {
		return nil, apperr.E(apperr.Invalid, "photo payload is required")
	}
	if in.ItemID != "" {
		item, err := s.store.GetItem(ctx, in.ItemID)
		if err != nil || item.InspectionID != inspectionID {
			return nil, apperr.E(apperr.Invalid, "item does not belong to this inspection")
		}
	}

	stored, err := s.storage.Save(ctx, inspectionID, in.Filename, in.Reader)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:           uuid.NewString(),
		InspectionID: inspectionID,
		ItemID:       in.ItemID,
		StorageKey:   stored.Key,
		URL:          stored.URL,
		ContentType:  in.ContentType,
		SizeBytes:    stored.SizeBytes,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// List returns the inspection's photos in upload order.
func (s *Service) List(ctx context.Context, caller models.Caller, inspectionID string) ([]models.Photo, error) {
	if _, err := s.access(ctx, caller, inspectionID); err != nil {
		return nil, err
	}
	return s.store.ListPhotos(ctx, inspectionID)
}
