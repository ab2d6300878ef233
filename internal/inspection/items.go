package inspection

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// ItemInput carries the fields for direct item creation.
type ItemInput struct {
	Category        string
	Component       string
	Priority        int
	MeasurementUnit string
	Notes           string
}

// AddItem creates a single item on an open inspection.
func (s *Service) AddItem(ctx context.Context, caller models.Caller, inspectionID string, in ItemInput) (*models.InspectionItem, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return nil, apperr.E(apperr.Conflict, "inspection no longer accepts item changes")
	}
	return s.createItem(ctx, insp, in)
}

func (s *Service) createItem(ctx context.Context, insp *models.Inspection, in ItemInput) (*models.InspectionItem, error) {
	if in.Category == "" || in.Component == "" {
		return nil, apperr.E(apperr.Invalid, "category and component are required")
	}
	priority := in.Priority
	if priority < 1 || priority > 10 {
		priority = 5
	}
	now := time.Now().UTC()
	item := &models.InspectionItem{
		ID:              uuid.NewString(),
		InspectionID:    insp.ID,
		Category:        in.Category,
		Component:       in.Component,
		Status:          models.ItemPending,
		MeasurementUnit: in.MeasurementUnit,
		Notes:           in.Notes,
		Priority:        priority,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ── Initialization from templates ───────────────────────────

// InitializeItems instantiates one pending item per active template
// visible to the inspection's shop (global templates plus the shop's own).
// It refuses with Conflict when any items already exist.
func (s *Service) InitializeItems(ctx context.Context, caller models.Caller, inspectionID string) (int, []models.InspectionItem, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return 0, nil, err
	}
	if insp.Status.Terminal() {
		return 0, nil, apperr.E(apperr.Conflict, "inspection no longer accepts item changes")
	}

	existing, err := s.store.CountItems(ctx, inspectionID)
	if err != nil {
		return 0, nil, err
	}
	if existing > 0 {
		return 0, nil, apperr.E(apperr.Conflict, "inspection already has items")
	}

	templates, err := s.store.ListActiveTemplates(ctx, insp.ShopID)
	if err != nil {
		return 0, nil, err
	}

	now := time.Now().UTC()
	items := make([]models.InspectionItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, models.InspectionItem{
			ID:              uuid.NewString(),
			InspectionID:    inspectionID,
			Category:        t.Category,
			Component:       t.Component,
			Status:          models.ItemPending,
			MeasurementUnit: t.MeasurementUnit,
			Priority:        t.DefaultPriority,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if len(items) > 0 {
		if err := s.store.CreateItems(ctx, items); err != nil {
			return 0, nil, err
		}
	}
	return len(items), items, nil
}

// ── Listing ─────────────────────────────────────────────────

// ItemList is the read model for an inspection's item collection.
type ItemList struct {
	Items   []models.InspectionItem `json:"items"`
	Summary *models.Summary         `json:"summary"`
	Total   int                     `json:"total"`
}

// ListItems returns filtered items plus a summary over the full
// (unfiltered) item set.
func (s *Service) ListItems(ctx context.Context, caller models.Caller, inspectionID string, filter store.ItemFilter) (*ItemList, error) {
	if _, err := s.access(ctx, caller, inspectionID); err != nil {
		return nil, err
	}
	all, err := s.store.ListItems(ctx, inspectionID, store.ItemFilter{})
	if err != nil {
		return nil, err
	}
	filtered := all
	if filter != (store.ItemFilter{}) {
		filtered, err = s.store.ListItems(ctx, inspectionID, filter)
		if err != nil {
			return nil, err
		}
	}
	return &ItemList{Items: filtered, Summary: BuildSummary(all), Total: len(filtered)}, nil
}

// ── Updates ─────────────────────────────────────────────────

// ItemPatch is a partial item update; nil fields are left untouched.
type ItemPatch struct {
	Status                     *models.ItemStatus `json:"status,omitempty"`
	Condition                  *models.Condition  `json:"condition,omitempty"`
	MeasurementValue           *float64           `json:"measurement_value,omitempty"`
	MeasurementUnit            *string            `json:"measurement_unit,omitempty"`
	Notes                      *string            `json:"notes,omitempty"`
	Recommendations            *string            `json:"recommendations,omitempty"`
	EstimatedCost              *float64           `json:"estimated_cost,omitempty"`
	Priority                   *int               `json:"priority,omitempty"`
	RequiresImmediateAttention *bool              `json:"requires_immediate_attention,omitempty"`
}

func (p ItemPatch) validate() error {
	if p.Status != nil && !models.ValidItemStatus(*p.Status) {
		return apperr.E(apperr.Invalid, "unknown item status")
	}
	if p.Condition != nil && !models.ValidCondition(*p.Condition) {
		return apperr.E(apperr.Invalid, "unknown condition")
	}
	if p.Priority != nil && (*p.Priority < 1 || *p.Priority > 10) {
		return apperr.E(apperr.Invalid, "priority must be between 1 and 10")
	}
	return nil
}

// apply mutates item in place, stamping or clearing checked_by/checked_at
// on status transitions to and from checked.
func (p ItemPatch) apply(item *models.InspectionItem, caller models.Caller, now time.Time) {
	if p.Status != nil && *p.Status != item.Status {
		wasChecked := item.Status == models.ItemChecked
		item.Status = *p.Status
		if *p.Status == models.ItemChecked {
			item.CheckedBy = caller.UserID
			item.CheckedAt = &now
		} else if wasChecked {
			item.CheckedBy = ""
			item.CheckedAt = nil
		}
	}
	if p.Condition != nil {
		item.Condition = p.Condition
	}
	if p.MeasurementValue != nil {
		item.MeasurementValue = p.MeasurementValue
	}
	if p.MeasurementUnit != nil {
		item.MeasurementUnit = *p.MeasurementUnit
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.Recommendations != nil {
		item.Recommendations = *p.Recommendations
	}
	if p.EstimatedCost != nil {
		item.EstimatedCost = p.EstimatedCost
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.RequiresImmediateAttention != nil {
		item.RequiresImmediateAttention = *p.RequiresImmediateAttention
	}
	item.UpdatedAt = now
}

// UpdateItem applies a patch to one item. The item must belong to the
// inspection and the inspection must not be terminal.
func (s *Service) UpdateItem(ctx context.Context, caller models.Caller, inspectionID, itemID string, patch ItemPatch) (*models.InspectionItem, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return nil, apperr.E(apperr.Conflict, "inspection no longer accepts item changes")
	}
	if err := patch.validate(); err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.InspectionID != inspectionID {
		return nil, apperr.E(apperr.NotFound, "item not found")
	}

	patch.apply(item, caller, time.Now().UTC())
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// BulkItemUpdate addresses one item within a bulk call.
type BulkItemUpdate struct {
	ID    string
	Patch ItemPatch
}

// BulkUpdateItems applies every update or none. All item ids are verified
// to belong to the inspection before any write; the writes share one
// transaction. Returns the updated items and a fresh summary.
func (s *Service) BulkUpdateItems(ctx context.Context, caller models.Caller, inspectionID string, updates []BulkItemUpdate) ([]models.InspectionItem, *models.Summary, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return nil, nil, err
	}
	if insp.Status.Terminal() {
		return nil, nil, apperr.E(apperr.Conflict, "inspection no longer accepts item changes")
	}
	if len(updates) == 0 {
		return nil, nil, apperr.E(apperr.Invalid, "updates must not be empty")
	}

	// Validate everything before the first write.
	items := make([]*models.InspectionItem, len(updates))
	for i, u := range updates {
		if err := u.Patch.validate(); err != nil {
			return nil, nil, err
		}
		item, err := s.store.GetItem(ctx, u.ID)
		if err != nil || item.InspectionID != inspectionID {
			return nil, nil, apperr.Ef(apperr.Invalid, "item %s does not belong to this inspection", u.ID)
		}
		items[i] = item
	}

	now := time.Now().UTC()
	updated := make([]models.InspectionItem, len(updates))
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		for i, u := range updates {
			u.Patch.apply(items[i], caller, now)
			if err := tx.UpdateItem(ctx, items[i]); err != nil {
				return err
			}
			updated[i] = *items[i]
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	all, err := s.store.ListItems(ctx, inspectionID, store.ItemFilter{})
	if err != nil {
		return nil, nil, err
	}
	return updated, BuildSummary(all), nil
}

// DeleteItem removes one item from an open inspection.
func (s *Service) DeleteItem(ctx context.Context, caller models.Caller, inspectionID, itemID string) (*models.InspectionItem, error) {
	insp, err := s.access(ctx, caller, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return nil, apperr.E(apperr.Conflict, "inspection no longer accepts item changes")
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.InspectionID != inspectionID {
		return nil, apperr.E(apperr.NotFound, "item not found")
	}
	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	return item, nil
}
