package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// ── Inspection items ────────────────────────────────────────

const itemCols = `id, inspection_id, category, component, status, condition, measurement_value, COALESCE(measurement_unit, ''), COALESCE(notes, ''), COALESCE(recommendations, ''), estimated_cost, priority, requires_immediate_attention, COALESCE(checked_by, ''), checked_at, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.InspectionItem, error) {
	var x models.InspectionItem
	err := row.Scan(&x.ID, &x.InspectionID, &x.Category, &x.Component, &x.Status, &x.Condition,
		&x.MeasurementValue, &x.MeasurementUnit, &x.Notes, &x.Recommendations, &x.EstimatedCost,
		&x.Priority, &x.RequiresImmediateAttention, &x.CheckedBy, &x.CheckedAt, &x.CreatedAt, &x.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

const itemInsert = `
	INSERT INTO inspection_items (id, inspection_id, category, component, status, condition, measurement_value, measurement_unit, notes, recommendations, estimated_cost, priority, requires_immediate_attention, checked_by, checked_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

func itemArgs(x *models.InspectionItem) []any {
	return []any{
		x.ID, x.InspectionID, x.Category, x.Component, x.Status, x.Condition,
		x.MeasurementValue, nullStr(x.MeasurementUnit), nullStr(x.Notes), nullStr(x.Recommendations),
		x.EstimatedCost, x.Priority, x.RequiresImmediateAttention, nullStr(x.CheckedBy), x.CheckedAt,
		utc(x.CreatedAt), utc(x.UpdatedAt),
	}
}

func (p *Postgres) CreateItem(ctx context.Context, item *models.InspectionItem) error {
	_, err := p.q.Exec(ctx, itemInsert, itemArgs(item)...)
	return translate(err, "")
}

// CreateItems inserts every item, or none: outside a transaction it opens
// one for the duration.
func (p *Postgres) CreateItems(ctx context.Context, items []models.InspectionItem) error {
	return p.WithTx(ctx, func(s Store) error {
		tx := s.(*Postgres)
		for i := range items {
			if _, err := tx.q.Exec(ctx, itemInsert, itemArgs(&items[i])...); err != nil {
				return translate(err, "")
			}
		}
		return nil
	})
}

func (p *Postgres) GetItem(ctx context.Context, id string) (*models.InspectionItem, error) {
	row := p.q.QueryRow(ctx, `SELECT `+itemCols+` FROM inspection_items WHERE id = $1`, id)
	x, err := scanItem(row)
	if err != nil {
		return nil, translate(err, "item not found")
	}
	return x, nil
}

func (p *Postgres) ListItems(ctx context.Context, inspectionID string, filter ItemFilter) ([]models.InspectionItem, error) {
	conds := []string{"inspection_id = $1"}
	args := []any{inspectionID}
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Condition != "" {
		if filter.Condition == "none" {
			conds = append(conds, "condition IS NULL")
		} else {
			add("condition = $%d", filter.Condition)
		}
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}

	query := `SELECT ` + itemCols + ` FROM inspection_items WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY priority ASC, category ASC, component ASC`

	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	out := []models.InspectionItem{}
	for rows.Next() {
		x, err := scanItem(rows)
		if err != nil {
			return nil, translate(err, "")
		}
		out = append(out, *x)
	}
	return out, translate(rows.Err(), "")
}

func (p *Postgres) UpdateItem(ctx context.Context, item *models.InspectionItem) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE inspection_items
		SET status = $2, condition = $3, measurement_value = $4, measurement_unit = $5,
		    notes = $6, recommendations = $7, estimated_cost = $8, priority = $9,
		    requires_immediate_attention = $10, checked_by = $11, checked_at = $12, updated_at = NOW()
		WHERE id = $1`,
		item.ID, item.Status, item.Condition, item.MeasurementValue, nullStr(item.MeasurementUnit),
		nullStr(item.Notes), nullStr(item.Recommendations), item.EstimatedCost, item.Priority,
		item.RequiresImmediateAttention, nullStr(item.CheckedBy), item.CheckedAt)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.NotFound, "item not found")
	}
	return nil
}

func (p *Postgres) DeleteItem(ctx context.Context, id string) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM inspection_items WHERE id = $1`, id)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.NotFound, "item not found")
	}
	return nil
}

func (p *Postgres) CountItems(ctx context.Context, inspectionID string) (int, error) {
	var n int
	err := p.q.QueryRow(ctx, `SELECT COUNT(*) FROM inspection_items WHERE inspection_id = $1`, inspectionID).Scan(&n)
	return n, translate(err, "")
}

// ── Templates ───────────────────────────────────────────────

func (p *Postgres) ListActiveTemplates(ctx context.Context, shopID string) ([]models.ItemTemplate, error) {
	rows, err := p.q.Query(ctx, `
		SELECT id, COALESCE(shop_id, ''), category, component, default_priority, measurement_required, COALESCE(measurement_unit, ''), is_active, created_at, updated_at
		FROM inspection_item_templates
		WHERE is_active AND (shop_id IS NULL OR shop_id = $1)
		ORDER BY category, component`,
		shopID)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	out := []models.ItemTemplate{}
	for rows.Next() {
		var t models.ItemTemplate
		err := rows.Scan(&t.ID, &t.ShopID, &t.Category, &t.Component, &t.DefaultPriority,
			&t.MeasurementRequired, &t.MeasurementUnit, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, translate(err, "")
		}
		out = append(out, t)
	}
	return out, translate(rows.Err(), "")
}

func (p *Postgres) CreateTemplate(ctx context.Context, tpl *models.ItemTemplate) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO inspection_item_templates (id, shop_id, category, component, default_priority, measurement_required, measurement_unit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tpl.ID, nullStr(tpl.ShopID), tpl.Category, tpl.Component, tpl.DefaultPriority,
		tpl.MeasurementRequired, nullStr(tpl.MeasurementUnit), tpl.IsActive,
		utc(tpl.CreatedAt), utc(tpl.UpdatedAt))
	return translate(err, "")
}

// ── Portal tokens ───────────────────────────────────────────

func (p *Postgres) CreatePortalToken(ctx context.Context, token *models.PortalToken) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO portal_tokens (id, inspection_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.InspectionID, utc(token.ExpiresAt), token.Revoked, utc(token.CreatedAt))
	return translate(err, "")
}

func (p *Postgres) GetPortalToken(ctx context.Context, id string) (*models.PortalToken, error) {
	var t models.PortalToken
	err := p.q.QueryRow(ctx, `
		SELECT id, inspection_id, expires_at, revoked, created_at
		FROM portal_tokens WHERE id = $1`,
		id).Scan(&t.ID, &t.InspectionID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return nil, translate(err, "portal token not found")
	}
	return &t, nil
}

func (p *Postgres) RevokePortalTokens(ctx context.Context, inspectionID string) error {
	_, err := p.q.Exec(ctx, `UPDATE portal_tokens SET revoked = TRUE WHERE inspection_id = $1`, inspectionID)
	return translate(err, "")
}
