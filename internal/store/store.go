// Package store provides the storage interface and implementations for the
// courtesy inspection service. Tests use the in-memory implementation;
// production uses PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// Store is the primary storage interface. All service code depends on this
// interface, making it easy to swap between in-memory (tests) and
// PostgreSQL (production) implementations.
type Store interface {
	ShopStore
	UserStore
	SessionStore
	CustomerStore
	VehicleStore
	InspectionStore
	ItemStore
	TemplateStore
	PortalTokenStore
	PhotoStore

	// WithTx runs fn against a Store bound to a single transaction. The
	// handle passed to fn is indistinguishable from the pool handle, so
	// callers are written once. A non-nil error from fn rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping checks if the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error

	// Migrate runs pending database migrations. Each migration executes
	// exactly once, inside a transaction; failure aborts startup.
	Migrate(ctx context.Context) error
}

// ── Shops ───────────────────────────────────────────────────

type ShopStore interface {
	GetShop(ctx context.Context, id string) (*models.Shop, error)
	CreateShop(ctx context.Context, shop *models.Shop) error
}

// ── Users ───────────────────────────────────────────────────

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// UpdateUserPassword rewrites the stored hash.
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
}

// ── Sessions ────────────────────────────────────────────────

// SessionStore persists refresh credentials. Deleting a user cascades its
// sessions at the schema level.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	// GetSessionByToken returns the session matching (userID, token), or
	// NotFound.
	GetSessionByToken(ctx context.Context, userID, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteSessionByToken removes the session holding token, if any.
	DeleteSessionByToken(ctx context.Context, token string) error
	// DeleteUserSessions removes every session for the user.
	DeleteUserSessions(ctx context.Context, userID string) error
}

// ── Customers & Vehicles ────────────────────────────────────

type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
}

type VehicleStore interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

// ── Inspections ─────────────────────────────────────────────

// InspectionFilter narrows inspection listings. Zero values mean "no
// constraint"; the date range is inclusive.
type InspectionFilter struct {
	ShopID    string
	Status    models.InspectionStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type InspectionStore interface {
	CreateInspection(ctx context.Context, insp *models.Inspection) error
	GetInspection(ctx context.Context, id string) (*models.Inspection, error)
	// GetInspectionDetail joins vehicle, customer, shop, and technician.
	GetInspectionDetail(ctx context.Context, id string) (*models.InspectionDetail, error)
	UpdateInspection(ctx context.Context, insp *models.Inspection) error
	// ListInspections returns one page plus the unclamped total count.
	ListInspections(ctx context.Context, filter InspectionFilter) ([]models.Inspection, int, error)
	// MaxInspectionSerial returns the highest NNNNNN already issued for the
	// shop and year, 0 when none.
	MaxInspectionSerial(ctx context.Context, shopID string, year int) (int, error)
}

// ── Items ───────────────────────────────────────────────────

// ItemFilter narrows item listings within one inspection.
type ItemFilter struct {
	Category  string
	Status    models.ItemStatus
	Condition string // green, yellow, red, or "none" for null
	Priority  *int
}

type ItemStore interface {
	CreateItem(ctx context.Context, item *models.InspectionItem) error
	CreateItems(ctx context.Context, items []models.InspectionItem) error
	GetItem(ctx context.Context, id string) (*models.InspectionItem, error)
	ListItems(ctx context.Context, inspectionID string, filter ItemFilter) ([]models.InspectionItem, error)
	UpdateItem(ctx context.Context, item *models.InspectionItem) error
	DeleteItem(ctx context.Context, id string) error
	CountItems(ctx context.Context, inspectionID string) (int, error)
}

// ── Templates ───────────────────────────────────────────────

type TemplateStore interface {
	// ListActiveTemplates returns active global templates plus the shop's
	// own, skipping shop-specific templates from other shops.
	ListActiveTemplates(ctx context.Context, shopID string) ([]models.ItemTemplate, error)
	CreateTemplate(ctx context.Context, tpl *models.ItemTemplate) error
}

// ── Portal tokens ───────────────────────────────────────────

type PortalTokenStore interface {
	CreatePortalToken(ctx context.Context, token *models.PortalToken) error
	GetPortalToken(ctx context.Context, id string) (*models.PortalToken, error)
	// RevokePortalTokens marks every token for the inspection revoked.
	RevokePortalTokens(ctx context.Context, inspectionID string) error
}

// ── Photos ──────────────────────────────────────────────────

type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	// ListPhotos returns the inspection's photos in upload order.
	ListPhotos(ctx context.Context, inspectionID string) ([]models.Photo, error)
}
