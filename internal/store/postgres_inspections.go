package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// ── Customers ───────────────────────────────────────────────

const customerCols = `id, shop_id, first_name, last_name, phone, COALESCE(email, ''), COALESCE(address, ''), created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.ShopID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	row := p.q.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, translate(err, "customer not found")
	}
	return c, nil
}

func (p *Postgres) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO customers (id, shop_id, first_name, last_name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		customer.ID, customer.ShopID, customer.FirstName, customer.LastName, customer.Phone,
		nullStr(customer.Email), nullStr(customer.Address), utc(customer.CreatedAt), utc(customer.UpdatedAt))
	return translate(err, "")
}

// ── Vehicles ────────────────────────────────────────────────

const vehicleCols = `id, customer_id, shop_id, year, make, model, COALESCE(vin, ''), COALESCE(license_plate, ''), COALESCE(color, ''), COALESCE(mileage, 0), created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.CustomerID, &v.ShopID, &v.Year, &v.Make, &v.Model, &v.VIN, &v.LicensePlate, &v.Color, &v.Mileage, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *Postgres) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	row := p.q.QueryRow(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, translate(err, "vehicle not found")
	}
	return v, nil
}

func (p *Postgres) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO vehicles (id, customer_id, shop_id, year, make, model, vin, license_plate, color, mileage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		vehicle.ID, vehicle.CustomerID, vehicle.ShopID, vehicle.Year, vehicle.Make, vehicle.Model,
		nullStr(vehicle.VIN), nullStr(vehicle.LicensePlate), nullStr(vehicle.Color), vehicle.Mileage,
		utc(vehicle.CreatedAt), utc(vehicle.UpdatedAt))
	return translate(err, "")
}

// ── Inspections ─────────────────────────────────────────────

const inspectionCols = `id, shop_id, customer_id, vehicle_id, technician_id, inspection_number, status, COALESCE(notes, ''), started_at, completed_at, sent_at, created_at, updated_at`

func scanInspection(row interface{ Scan(...any) error }) (*models.Inspection, error) {
	var i models.Inspection
	err := row.Scan(&i.ID, &i.ShopID, &i.CustomerID, &i.VehicleID, &i.TechnicianID, &i.InspectionNumber,
		&i.Status, &i.Notes, &i.StartedAt, &i.CompletedAt, &i.SentAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (p *Postgres) CreateInspection(ctx context.Context, insp *models.Inspection) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO inspections (id, shop_id, customer_id, vehicle_id, technician_id, inspection_number, status, notes, started_at, completed_at, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		insp.ID, insp.ShopID, insp.CustomerID, insp.VehicleID, insp.TechnicianID, insp.InspectionNumber,
		insp.Status, nullStr(insp.Notes), insp.StartedAt, insp.CompletedAt, insp.SentAt,
		utc(insp.CreatedAt), utc(insp.UpdatedAt))
	return translate(err, "")
}

func (p *Postgres) GetInspection(ctx context.Context, id string) (*models.Inspection, error) {
	row := p.q.QueryRow(ctx, `SELECT `+inspectionCols+` FROM inspections WHERE id = $1`, id)
	i, err := scanInspection(row)
	if err != nil {
		return nil, translate(err, "inspection not found")
	}
	return i, nil
}

func (p *Postgres) GetInspectionDetail(ctx context.Context, id string) (*models.InspectionDetail, error) {
	insp, err := p.GetInspection(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.InspectionDetail{Inspection: *insp}
	if v, err := p.GetVehicle(ctx, insp.VehicleID); err == nil {
		detail.Vehicle = v
	}
	if c, err := p.GetCustomer(ctx, insp.CustomerID); err == nil {
		detail.Customer = c
	}
	if s, err := p.GetShop(ctx, insp.ShopID); err == nil {
		detail.Shop = s
	}
	if u, err := p.GetUser(ctx, insp.TechnicianID); err == nil {
		detail.Technician = u
	}
	return detail, nil
}

func (p *Postgres) UpdateInspection(ctx context.Context, insp *models.Inspection) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE inspections
		SET status = $2, notes = $3, started_at = $4, completed_at = $5, sent_at = $6, updated_at = NOW()
		WHERE id = $1`,
		insp.ID, insp.Status, nullStr(insp.Notes), insp.StartedAt, insp.CompletedAt, insp.SentAt)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.NotFound, "inspection not found")
	}
	return nil
}

func (p *Postgres) ListInspections(ctx context.Context, filter InspectionFilter) ([]models.Inspection, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ShopID != "" {
		add("shop_id = $%d", filter.ShopID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := p.q.QueryRow(ctx, `SELECT COUNT(*) FROM inspections`+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "")
	}

	query := `SELECT ` + inspectionCols + ` FROM inspections` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err, "")
	}
	defer rows.Close()

	out := []models.Inspection{}
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, 0, translate(err, "")
		}
		out = append(out, *i)
	}
	return out, total, translate(rows.Err(), "")
}

func (p *Postgres) MaxInspectionSerial(ctx context.Context, shopID string, year int) (int, error) {
	prefix := inspectionNumberPrefix(year)
	var maxSerial int
	err := p.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(inspection_number FROM 9) AS INTEGER)), 0)
		FROM inspections
		WHERE shop_id = $1 AND inspection_number LIKE $2`,
		shopID, prefix+"%").Scan(&maxSerial)
	if err != nil {
		return 0, translate(err, "")
	}
	return maxSerial, nil
}
