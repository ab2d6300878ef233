package inspection

import (
	"context"
	"testing"

	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

func (f *fixture) seedTemplates(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	templates := []models.ItemTemplate{
		{ID: "T1", Category: "brakes", Component: "front brake pads", DefaultPriority: 2, MeasurementUnit: "mm", IsActive: true},
		{ID: "T2", Category: "brakes", Component: "rear brake pads", DefaultPriority: 2, MeasurementUnit: "mm", IsActive: true},
		{ID: "T3", Category: "fluids", Component: "oil level", DefaultPriority: 3, IsActive: true},
		{ID: "T4", Category: "tires", Component: "tire tread", DefaultPriority: 2, MeasurementUnit: "32nds", IsActive: false},
		{ID: "T5", ShopID: "S2", Category: "custom", Component: "undercoating", DefaultPriority: 7, IsActive: true},
	}
	for i := range templates {
		if err := f.store.CreateTemplate(ctx, &templates[i]); err != nil {
			t.Fatalf("CreateTemplate: %v", err)
		}
	}
}

func TestInitializeItemsFromTemplates(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	insp := f.create(t)
	ctx := context.Background()

	created, items, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}
	// Global active templates only: T4 inactive, T5 belongs to S2.
	if created != 3 || len(items) != 3 {
		t.Fatalf("created = %d (%d items), want 3", created, len(items))
	}
	for _, item := range items {
		if item.Status != models.ItemPending {
			t.Errorf("item %s status = %q, want pending", item.Component, item.Status)
		}
		if item.InspectionID != insp.ID {
			t.Errorf("item %s bound to %q", item.Component, item.InspectionID)
		}
	}

	// A second initialization must refuse rather than duplicate.
	if _, _, err := f.svc.InitializeItems(ctx, f.tech, insp.ID); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("re-initialize: kind = %v, want Conflict", apperr.KindOf(err))
	}
}

func TestShopTemplatesIncluded(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	ctx := context.Background()

	if err := f.store.CreateTemplate(ctx, &models.ItemTemplate{
		ID: "T6", ShopID: "S1", Category: "custom", Component: "shop special", DefaultPriority: 6, IsActive: true,
	}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	insp := f.create(t)
	created, _, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}
	if created != 4 {
		t.Errorf("created = %d, want 3 global + 1 shop", created)
	}
}

func TestAddItemDefaultsAndConflicts(t *testing.T) {
	f := newFixture(t)
	insp := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "brake fluid", Priority: 99})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.Priority != 5 {
		t.Errorf("out-of-range priority = %d, want default 5", item.Priority)
	}

	// Duplicate category+component within the inspection.
	if _, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "brake fluid"}); !apperr.Is(err, apperr.AlreadyExists) {
		t.Errorf("duplicate item: kind = %v, want AlreadyExists", apperr.KindOf(err))
	}

	if _, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "", Component: "x"}); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("missing category: kind = %v, want Invalid", apperr.KindOf(err))
	}
}

func TestItemMutationsRefusedWhenTerminal(t *testing.T) {
	f := newFixture(t)
	insp := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "brake fluid"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	for _, status := range []models.InspectionStatus{models.StatusCompleted, models.StatusSent} {
		s := status
		if _, err := f.svc.Update(ctx, f.tech, insp.ID, UpdateInput{Status: &s}); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}

	if _, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "tires", Component: "tire tread"}); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("add on sent: kind = %v, want Conflict", apperr.KindOf(err))
	}
	checked := models.ItemChecked
	if _, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, item.ID, ItemPatch{Status: &checked}); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("update on sent: kind = %v, want Conflict", apperr.KindOf(err))
	}
	if _, err := f.svc.DeleteItem(ctx, f.tech, insp.ID, item.ID); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("delete on sent: kind = %v, want Conflict", apperr.KindOf(err))
	}
}

func TestUpdateItemCheckedStamping(t *testing.T) {
	f := newFixture(t)
	insp := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "front brake pads"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	checked := models.ItemChecked
	green := models.ConditionGreen
	val := 7.5
	got, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, item.ID, ItemPatch{
		Status:           &checked,
		Condition:        &green,
		MeasurementValue: &val,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got.CheckedBy != f.tech.UserID || got.CheckedAt == nil {
		t.Errorf("checked stamp missing: by=%q at=%v", got.CheckedBy, got.CheckedAt)
	}
	if got.Condition == nil || *got.Condition != models.ConditionGreen {
		t.Errorf("condition = %v, want green", got.Condition)
	}

	// Reverting to pending clears the stamp.
	pending := models.ItemPending
	got, err = f.svc.UpdateItem(ctx, f.tech, insp.ID, item.ID, ItemPatch{Status: &pending})
	if err != nil {
		t.Fatalf("UpdateItem revert: %v", err)
	}
	if got.CheckedBy != "" || got.CheckedAt != nil {
		t.Errorf("checked stamp not cleared: by=%q at=%v", got.CheckedBy, got.CheckedAt)
	}
}

func TestUpdateItemWrongInspection(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	b := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, a.ID, ItemInput{Category: "brakes", Component: "brake fluid"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	checked := models.ItemChecked
	if _, err := f.svc.UpdateItem(ctx, f.tech, b.ID, item.ID, ItemPatch{Status: &checked}); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestUpdateItemValidation(t *testing.T) {
	f := newFixture(t)
	insp := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "brake fluid"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	badPriority := 11
	if _, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, item.ID, ItemPatch{Priority: &badPriority}); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("priority 11: kind = %v, want Invalid", apperr.KindOf(err))
	}
	badCondition := models.Condition("purple")
	if _, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, item.ID, ItemPatch{Condition: &badCondition}); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("bad condition: kind = %v, want Invalid", apperr.KindOf(err))
	}
}

func TestBulkUpdateAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	insp := f.create(t)
	ctx := context.Background()

	_, items, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}

	checked := models.ItemChecked
	updates := []BulkItemUpdate{
		{ID: items[0].ID, Patch: ItemPatch{Status: &checked}},
		{ID: "not-an-item", Patch: ItemPatch{Status: &checked}},
	}
	if _, _, err := f.svc.BulkUpdateItems(ctx, f.tech, insp.ID, updates); !apperr.Is(err, apperr.Invalid) {
		t.Fatalf("kind = %v, want Invalid", apperr.KindOf(err))
	}

	// The valid half of the batch must not have been applied.
	list, err := f.svc.ListItems(ctx, f.tech, insp.ID, store.ItemFilter{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	for _, item := range list.Items {
		if item.Status != models.ItemPending {
			t.Errorf("item %s mutated by failed bulk update", item.Component)
		}
	}
}

func TestBulkUpdateAppliesAll(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	insp := f.create(t)
	ctx := context.Background()

	_, items, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}

	checked := models.ItemChecked
	green := models.ConditionGreen
	red := models.ConditionRed
	urgent := true
	updates := []BulkItemUpdate{
		{ID: items[0].ID, Patch: ItemPatch{Status: &checked, Condition: &green}},
		{ID: items[1].ID, Patch: ItemPatch{Status: &checked, Condition: &red, RequiresImmediateAttention: &urgent}},
	}
	updated, summary, err := f.svc.BulkUpdateItems(ctx, f.tech, insp.ID, updates)
	if err != nil {
		t.Fatalf("BulkUpdateItems: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("updated = %d items, want 2", len(updated))
	}
	if summary.ByStatus[models.ItemChecked] != 2 || summary.ByStatus[models.ItemPending] != 1 {
		t.Errorf("summary by status = %v", summary.ByStatus)
	}
	if summary.ImmediateAttention != 1 {
		t.Errorf("immediate attention = %d, want 1", summary.ImmediateAttention)
	}
}

func TestListItemsFiltersAndFullSummary(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	insp := f.create(t)
	ctx := context.Background()

	_, items, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}

	checked := models.ItemChecked
	yellow := models.ConditionYellow
	if _, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, items[0].ID, ItemPatch{Status: &checked, Condition: &yellow}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	list, err := f.svc.ListItems(ctx, f.tech, insp.ID, store.ItemFilter{Status: models.ItemChecked})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("filtered total = %d, want 1", list.Total)
	}
	// Summary covers the full set, not the filtered slice.
	if list.Summary.TotalItems != 3 {
		t.Errorf("summary total = %d, want 3", list.Summary.TotalItems)
	}
	if list.Summary.ByCondition["yellow"] != 1 || list.Summary.ByCondition["none"] != 2 {
		t.Errorf("by condition = %v", list.Summary.ByCondition)
	}
}

func TestSummaryCompletionPercentage(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates(t)
	insp := f.create(t)
	ctx := context.Background()

	// Empty inspection: zero, not NaN.
	sum, err := f.svc.Summarize(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.CompletionPercentage != 0 {
		t.Errorf("empty completion = %f, want 0", sum.CompletionPercentage)
	}

	_, items, err := f.svc.InitializeItems(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("InitializeItems: %v", err)
	}
	checked := models.ItemChecked
	if _, err := f.svc.UpdateItem(ctx, f.tech, insp.ID, items[0].ID, ItemPatch{Status: &checked}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	sum, err = f.svc.Summarize(ctx, f.tech, insp.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// 1 of 3 done, rounded to two decimals.
	if sum.CompletionPercentage != 33.33 {
		t.Errorf("completion = %f, want 33.33", sum.CompletionPercentage)
	}
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	insp := f.create(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.tech, insp.ID, ItemInput{Category: "brakes", Component: "brake fluid"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	deleted, err := f.svc.DeleteItem(ctx, f.tech, insp.ID, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if deleted.ID != item.ID {
		t.Errorf("deleted id = %q, want %q", deleted.ID, item.ID)
	}

	if _, err := f.svc.DeleteItem(ctx, f.tech, insp.ID, item.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("double delete: kind = %v, want NotFound", apperr.KindOf(err))
	}
}
