// Package inspection implements the inspection lifecycle: numbering,
// creation, item templating and updates, status transitions, summaries,
// and shop-scoped listing. Tenancy is enforced here, not in the HTTP
// layer, so manipulated request bodies cannot cross shop boundaries.
package inspection

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// numberRetries bounds the unique-conflict retry loop in Create.
const numberRetries = 3

// Service owns all inspection reads and writes.
type Service struct {
	store store.Store
}

// NewService creates the inspection service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
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

// ── Create ──────────────────────────────────────────────────

// CreateInput carries the fields for inspection creation. ShopID defaults
// to the caller's shop; customer is derived from the vehicle.
type CreateInput struct {
	VehicleID string
	ShopID    string
	Notes     string
	Items     []ItemInput
}

// Create writes a new in_progress inspection with a freshly generated
// number. Number generation and the insert share a transaction; on a
// unique-constraint collision the whole attempt retries, at most three
// times.
func (s *Service) Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.Inspection, error) {
	if in.VehicleID == "" {
		return nil, apperr.E(apperr.Invalid, "vehicle_id is required")
	}
	shopID := in.ShopID
	if shopID == "" {
		shopID = caller.ShopID
	}
	if !caller.CanAccessShop(shopID) {
		return nil, apperr.E(apperr.Forbidden, "cannot create inspections for another shop")
	}

	vehicle, err := s.store.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "vehicle does not exist")
	}
	if vehicle.ShopID != shopID {
		return nil, apperr.E(apperr.Invalid, "vehicle belongs to a different shop")
	}

	now := time.Now().UTC()
	year := now.Year()
	insp := &models.Inspection{
		ID:           uuid.NewString(),
		ShopID:       shopID,
		CustomerID:   vehicle.CustomerID,
		VehicleID:    vehicle.ID,
		TechnicianID: caller.UserID,
		Status:       models.StatusInProgress,
		Notes:        in.Notes,
		StartedAt:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		lastErr = s.store.WithTx(ctx, func(tx store.Store) error {
			maxSerial, err := tx.MaxInspectionSerial(ctx, shopID, year)
			if err != nil {
				return err
			}
			insp.InspectionNumber = store.FormatInspectionNumber(year, maxSerial+1)
			return tx.CreateInspection(ctx, insp)
		})
		if lastErr == nil {
			break
		}
		if !apperr.Is(lastErr, apperr.AlreadyExists) {
			return nil, lastErr
		}
		log.Warn().Int("attempt", attempt+1).Str("shop_id", shopID).Msg("inspection number collision, retrying")
	}
	if lastErr != nil {
		return nil, apperr.Wrap(apperr.Conflict, "could not allocate inspection number", lastErr)
	}

	for _, item := range in.Items {
		if _, err := s.createItem(ctx, insp, item); err != nil {
			return nil, err
		}
	}
	return insp, nil
}

// ── Reads ───────────────────────────────────────────────────

// Get returns a single inspection with its joined entities.
func (s *Service) Get(ctx context.Context, caller models.Caller, id string) (*models.InspectionDetail, error) {
	if _, err := s.access(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.store.GetInspectionDetail(ctx, id)
}

// ListInput carries listing filters; Page and Limit are clamped.
type ListInput struct {
	ShopID    string
	Status    models.InspectionStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ListResult is one page of inspections with pagination metadata.
type ListResult struct {
	Rows  []models.Inspection `json:"rows"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
	Pages int                 `json:"pages"`
}

// List returns a page of inspections sorted created_at DESC. Non-admin
// callers are confined to their own shop regardless of the filter.
func (s *Service) List(ctx context.Context, caller models.Caller, in ListInput) (*ListResult, error) {
	shopID := in.ShopID
	if caller.Role != models.RoleAdmin {
		if shopID != "" && shopID != caller.ShopID {
			return nil, apperr.E(apperr.Forbidden, "cannot list another shop's inspections")
		}
		shopID = caller.ShopID
	}
	if in.Status != "" && !models.ValidStatus(in.Status) {
		return nil, apperr.E(apperr.Invalid, "unknown status")
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, total, err := s.store.ListInspections(ctx, store.InspectionFilter{
		ShopID:    shopID,
		Status:    in.Status,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	pages := 1
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &ListResult{Rows: rows, Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// ── Status transitions ──────────────────────────────────────

// UpdateInput patches an inspection. A Status change must follow the
// draft → in_progress → completed → sent → archived order.
type UpdateInput struct {
	Status *models.InspectionStatus
	Notes  *string
	// CompletedAt, when set, overrides the automatic completion stamp.
	CompletedAt *time.Time
}

// Update applies a patch. Entry timestamps (started_at, completed_at,
// sent_at) are stamped once and never overwritten.
func (s *Service) Update(ctx context.Context, caller models.Caller, id string, in UpdateInput) (*models.Inspection, error) {
	insp, err := s.access(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.Status != nil && *in.Status != insp.Status {
		next := *in.Status
		if !models.ValidStatus(next) {
			return nil, apperr.E(apperr.Invalid, "unknown status")
		}
		if !models.CanTransition(insp.Status, next) {
			return nil, apperr.Ef(apperr.Conflict, "cannot transition from %s to %s", insp.Status, next)
		}
		now := time.Now().UTC()
		switch next {
		case models.StatusInProgress:
			if insp.StartedAt == nil {
				insp.StartedAt = &now
			}
		case models.StatusCompleted:
			if insp.CompletedAt == nil {
				insp.CompletedAt = &now
			}
		case models.StatusSent:
			if insp.SentAt == nil {
				insp.SentAt = &now
			}
		}
		insp.Status = next
	}
	if in.Notes != nil {
		insp.Notes = *in.Notes
	}
	if in.CompletedAt != nil {
		t := in.CompletedAt.UTC()
		insp.CompletedAt = &t
	}

	if err := s.store.UpdateInspection(ctx, insp); err != nil {
		return nil, err
	}
	return insp, nil
}

// ── Summary ─────────────────────────────────────────────────

// Summarize aggregates the inspection's items: counts by status and
// condition (null bucketed as "none"), immediate-attention count, and a
// completion percentage with two decimals, 0 for an empty inspection.
func (s *Service) Summarize(ctx context.Context, caller models.Caller, inspectionID string) (*models.Summary, error) {
	if _, err := s.access(ctx, caller, inspectionID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, inspectionID, store.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return BuildSummary(items), nil
}

// BuildSummary computes the aggregate for an item set.
func BuildSummary(items []models.InspectionItem) *models.Summary {
	sum := &models.Summary{
		TotalItems:  len(items),
		ByStatus:    map[models.ItemStatus]int{},
		ByCondition: map[string]int{},
	}
	for _, x := range items {
		sum.ByStatus[x.Status]++
		if x.Condition != nil {
			sum.ByCondition[string(*x.Condition)]++
		} else {
			sum.ByCondition["none"]++
		}
		if x.RequiresImmediateAttention {
			sum.ImmediateAttention++
		}
	}
	if sum.TotalItems > 0 {
		done := sum.TotalItems - sum.ByStatus[models.ItemPending]
		pct := 100 * float64(done) / float64(sum.TotalItems)
		sum.CompletionPercentage = math.Round(pct*100) / 100
	}
	return sum
}
