// Package store — in-memory Store implementation.
// Used in tests and local development when PostgreSQL is not available.
// It mirrors the Postgres implementation's semantics: case-insensitive
// unique emails, unique inspection numbers per shop, and unique
// (category, component) pairs per inspection.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu           sync.RWMutex
	shops        map[string]*models.Shop
	users        map[string]*models.User
	sessions     map[string]*models.Session
	customers    map[string]*models.Customer
	vehicles     map[string]*models.Vehicle
	inspections  map[string]*models.Inspection
	items        map[string]*models.InspectionItem
	templates    map[string]*models.ItemTemplate
	portalTokens map[string]*models.PortalToken
	photos       map[string]*models.Photo
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shops:        make(map[string]*models.Shop),
		users:        make(map[string]*models.User),
		sessions:     make(map[string]*models.Session),
		customers:    make(map[string]*models.Customer),
		vehicles:     make(map[string]*models.Vehicle),
		inspections:  make(map[string]*models.Inspection),
		items:        make(map[string]*models.InspectionItem),
		templates:    make(map[string]*models.ItemTemplate),
		portalTokens: make(map[string]*models.PortalToken),
		photos:       make(map[string]*models.Photo),
	}
}

// WithTx runs fn against the same store. The memory store has no real
// transactions; callers rely on validate-before-write, which the service
// layer does for every multi-row operation.
func (m *MemoryStore) WithTx(_ context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }

func (m *MemoryStore) Migrate(context.Context) error { return nil }

// ── Shops ───────────────────────────────────────────────────

func (m *MemoryStore) GetShop(_ context.Context, id string) (*models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shops[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "shop not found")
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) CreateShop(_ context.Context, shop *models.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *shop
	m.shops[shop.ID] = &cp
	return nil
}

// ── Users ───────────────────────────────────────────────────

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(email)
	for _, u := range m.users {
		if strings.ToLower(u.Email) == needle {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "user not found")
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(user.Email)
	for _, u := range m.users {
		if strings.ToLower(u.Email) == needle {
			return apperr.E(apperr.AlreadyExists, "email already registered")
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return apperr.E(apperr.NotFound, "user not found")
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ── Sessions ────────────────────────────────────────────────

func (m *MemoryStore) CreateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSessionByToken(_ context.Context, userID, token string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.RefreshToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "session not found")
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteSessionByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.RefreshToken == token {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteUserSessions(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// ── Customers & Vehicles ────────────────────────────────────

func (m *MemoryStore) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "customer not found")
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) CreateCustomer(_ context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.ShopID == customer.ShopID && c.Phone == customer.Phone {
			return apperr.E(apperr.AlreadyExists, "phone already registered for this shop")
		}
	}
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *MemoryStore) GetVehicle(_ context.Context, id string) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "vehicle not found")
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) CreateVehicle(_ context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *vehicle
	m.vehicles[vehicle.ID] = &cp
	return nil
}

// ── Inspections ─────────────────────────────────────────────

func (m *MemoryStore) CreateInspection(_ context.Context, insp *models.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.inspections {
		if i.ShopID == insp.ShopID && i.InspectionNumber == insp.InspectionNumber {
			return apperr.E(apperr.AlreadyExists, "inspection number already issued")
		}
	}
	cp := *insp
	m.inspections[insp.ID] = &cp
	return nil
}

func (m *MemoryStore) GetInspection(_ context.Context, id string) (*models.Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.inspections[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "inspection not found")
	}
	cp := *i
	return &cp, nil
}

func (m *MemoryStore) GetInspectionDetail(ctx context.Context, id string) (*models.InspectionDetail, error) {
	insp, err := m.GetInspection(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.InspectionDetail{Inspection: *insp}
	if v, err := m.GetVehicle(ctx, insp.VehicleID); err == nil {
		detail.Vehicle = v
	}
	if c, err := m.GetCustomer(ctx, insp.CustomerID); err == nil {
		detail.Customer = c
	}
	if s, err := m.GetShop(ctx, insp.ShopID); err == nil {
		detail.Shop = s
	}
	if u, err := m.GetUser(ctx, insp.TechnicianID); err == nil {
		detail.Technician = u
	}
	return detail, nil
}

func (m *MemoryStore) UpdateInspection(_ context.Context, insp *models.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inspections[insp.ID]; !ok {
		return apperr.E(apperr.NotFound, "inspection not found")
	}
	cp := *insp
	cp.UpdatedAt = time.Now().UTC()
	m.inspections[insp.ID] = &cp
	return nil
}

func (m *MemoryStore) ListInspections(_ context.Context, filter InspectionFilter) ([]models.Inspection, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Inspection
	for _, i := range m.inspections {
		if filter.ShopID != "" && i.ShopID != filter.ShopID {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && i.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && i.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, *i)
	}

	// created_at DESC
	for a := 0; a < len(matched); a++ {
		for b := a + 1; b < len(matched); b++ {
			if matched[b].CreatedAt.After(matched[a].CreatedAt) {
				matched[a], matched[b] = matched[b], matched[a]
			}
		}
	}

	total := len(matched)
	if filter.Offset >= total {
		return []models.Inspection{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (m *MemoryStore) MaxInspectionSerial(_ context.Context, shopID string, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxSerial := 0
	prefix := inspectionNumberPrefix(year)
	for _, i := range m.inspections {
		if i.ShopID != shopID {
			continue
		}
		if n, ok := parseInspectionSerial(i.InspectionNumber, prefix); ok && n > maxSerial {
			maxSerial = n
		}
	}
	return maxSerial, nil
}

// ── Items ───────────────────────────────────────────────────

func (m *MemoryStore) CreateItem(_ context.Context, item *models.InspectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertItemLocked(item)
}

func (m *MemoryStore) CreateItems(_ context.Context, items []models.InspectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		if err := m.insertItemLocked(&items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) insertItemLocked(item *models.InspectionItem) error {
	for _, x := range m.items {
		if x.InspectionID == item.InspectionID && x.Category == item.Category && x.Component == item.Component {
			return apperr.E(apperr.AlreadyExists, "item already exists for category/component")
		}
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *MemoryStore) GetItem(_ context.Context, id string) (*models.InspectionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	x, ok := m.items[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "item not found")
	}
	cp := *x
	return &cp, nil
}

func (m *MemoryStore) ListItems(_ context.Context, inspectionID string, filter ItemFilter) ([]models.InspectionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InspectionItem
	for _, x := range m.items {
		if x.InspectionID != inspectionID {
			continue
		}
		if filter.Category != "" && x.Category != filter.Category {
			continue
		}
		if filter.Status != "" && x.Status != filter.Status {
			continue
		}
		if filter.Condition != "" {
			if filter.Condition == "none" {
				if x.Condition != nil {
					continue
				}
			} else if x.Condition == nil || string(*x.Condition) != filter.Condition {
				continue
			}
		}
		if filter.Priority != nil && x.Priority != *filter.Priority {
			continue
		}
		out = append(out, *x)
	}
	// priority ASC, then category/component for stable output
	for a := 0; a < len(out); a++ {
		for b := a + 1; b < len(out); b++ {
			if less(out[b], out[a]) {
				out[a], out[b] = out[b], out[a]
			}
		}
	}
	return out, nil
}

func less(a, b models.InspectionItem) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Component < b.Component
}

func (m *MemoryStore) UpdateItem(_ context.Context, item *models.InspectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return apperr.E(apperr.NotFound, "item not found")
	}
	cp := *item
	cp.UpdatedAt = time.Now().UTC()
	m.items[item.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.E(apperr.NotFound, "item not found")
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) CountItems(_ context.Context, inspectionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, x := range m.items {
		if x.InspectionID == inspectionID {
			n++
		}
	}
	return n, nil
}

// ── Templates ───────────────────────────────────────────────

func (m *MemoryStore) ListActiveTemplates(_ context.Context, shopID string) ([]models.ItemTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ItemTemplate
	for _, t := range m.templates {
		if !t.IsActive {
			continue
		}
		if t.ShopID != "" && t.ShopID != shopID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *MemoryStore) CreateTemplate(_ context.Context, tpl *models.ItemTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tpl
	m.templates[tpl.ID] = &cp
	return nil
}

// ── Portal tokens ───────────────────────────────────────────

func (m *MemoryStore) CreatePortalToken(_ context.Context, token *models.PortalToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.portalTokens[token.ID] = &cp
	return nil
}

func (m *MemoryStore) GetPortalToken(_ context.Context, id string) (*models.PortalToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.portalTokens[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "portal token not found")
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) RevokePortalTokens(_ context.Context, inspectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.portalTokens {
		if t.InspectionID == inspectionID {
			t.Revoked = true
		}
	}
	return nil
}

// ── Photos ──────────────────────────────────────────────────

func (m *MemoryStore) CreatePhoto(_ context.Context, photo *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *photo
	m.photos[photo.ID] = &cp
	return nil
}

func (m *MemoryStore) ListPhotos(_ context.Context, inspectionID string) ([]models.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Photo
	for _, p := range m.photos {
		if p.InspectionID == inspectionID {
			out = append(out, *p)
		}
	}
	for a := 0; a < len(out); a++ {
		for b := a + 1; b < len(out); b++ {
			if out[b].CreatedAt.Before(out[a].CreatedAt) ||
				(out[b].CreatedAt.Equal(out[a].CreatedAt) && out[b].ID < out[a].ID) {
				out[a], out[b] = out[b], out[a]
			}
		}
	}
	return out, nil
}
