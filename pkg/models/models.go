// Package models defines the domain records shared across the courtesy
// inspection service: shops, users, customers, vehicles, inspections and
// their checklist items, item templates, sessions, and portal tokens.
//
// All timestamps are UTC. Identifiers are opaque UUID strings.
package models

import "time"

// ── Shop ─────────────────────────────────────────────────────

// Shop is the tenancy boundary. Every user, customer, vehicle, and
// inspection belongs to exactly one shop.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"` // IANA zone, default America/Chicago
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultTimezone is applied when a shop is created without one.
const DefaultTimezone = "America/Chicago"

// ── User ─────────────────────────────────────────────────────

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleShopManager Role = "shop_manager"
	RoleMechanic    Role = "mechanic"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleShopManager, RoleMechanic:
		return true
	}
	return false
}

// User is an authenticated actor. PasswordHash never leaves the store
// boundary in serialized form.
type User struct {
	ID           string    `json:"id"`
	ShopID       string    `json:"shop_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ── Session ──────────────────────────────────────────────────

// Session is a persisted refresh credential. Valid iff the stored token
// matches the presented one and ExpiresAt is in the future.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// ── Customer & Vehicle ───────────────────────────────────────

type Customer struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"` // unique within shop
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	ShopID       string    `json:"shop_id"`
	Year         int       `json:"year"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	VIN          string    `json:"vin,omitempty"`
	LicensePlate string    `json:"license_plate,omitempty"`
	Color        string    `json:"color,omitempty"`
	Mileage      int       `json:"mileage,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ── Inspection ───────────────────────────────────────────────

type InspectionStatus string

const (
	StatusDraft      InspectionStatus = "draft"
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
	StatusSent       InspectionStatus = "sent"
	StatusArchived   InspectionStatus = "archived"
)

// statusRank orders the inspection lifecycle. Transitions advance by
// exactly one rank.
var statusRank = map[InspectionStatus]int{
	StatusDraft:      0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusSent:       3,
	StatusArchived:   4,
}

// ValidStatus reports whether s is a known inspection status.
func ValidStatus(s InspectionStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether from → to is a legal single-step advance.
func CanTransition(from, to InspectionStatus) bool {
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr == fr+1
}

// Terminal reports whether the status forbids item mutations.
func (s InspectionStatus) Terminal() bool {
	return s == StatusSent || s == StatusArchived
}

// Inspection is the central aggregate. Items reference it by id; the
// service composes the aggregate on read.
type Inspection struct {
	ID               string           `json:"id"`
	ShopID           string           `json:"shop_id"`
	CustomerID       string           `json:"customer_id"`
	VehicleID        string           `json:"vehicle_id"`
	TechnicianID     string           `json:"technician_id"`
	InspectionNumber string           `json:"inspection_number"` // CI-YYYY-NNNNNN, unique per shop
	Status           InspectionStatus `json:"status"`
	Notes            string           `json:"notes,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// InspectionDetail is the read model for single-inspection fetches, with
// the joined entities callers render from.
type InspectionDetail struct {
	Inspection
	Vehicle    *Vehicle  `json:"vehicle,omitempty"`
	Customer   *Customer `json:"customer,omitempty"`
	Shop       *Shop     `json:"shop,omitempty"`
	Technician *User     `json:"technician,omitempty"`
}

// ── Inspection items ─────────────────────────────────────────

type ItemStatus string

const (
	ItemPending       ItemStatus = "pending"
	ItemChecked       ItemStatus = "checked"
	ItemNotApplicable ItemStatus = "not_applicable"
)

func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemPending, ItemChecked, ItemNotApplicable:
		return true
	}
	return false
}

type Condition string

const (
	ConditionGreen  Condition = "green"
	ConditionYellow Condition = "yellow"
	ConditionRed    Condition = "red"
)

func ValidCondition(c Condition) bool {
	switch c {
	case ConditionGreen, ConditionYellow, ConditionRed:
		return true
	}
	return false
}

// InspectionItem is one checklist row. CheckedBy and CheckedAt are set iff
// Status is checked; (Category, Component) is unique within an inspection.
type InspectionItem struct {
	ID                         string     `json:"id"`
	InspectionID               string     `json:"inspection_id"`
	Category                   string     `json:"category"`
	Component                  string     `json:"component"`
	Status                     ItemStatus `json:"status"`
	Condition                  *Condition `json:"condition,omitempty"`
	MeasurementValue           *float64   `json:"measurement_value,omitempty"`
	MeasurementUnit            string     `json:"measurement_unit,omitempty"`
	Notes                      string     `json:"notes,omitempty"`
	Recommendations            string     `json:"recommendations,omitempty"`
	EstimatedCost              *float64   `json:"estimated_cost,omitempty"`
	Priority                   int        `json:"priority"` // 1..10, 1 most urgent
	RequiresImmediateAttention bool       `json:"requires_immediate_attention"`
	CheckedBy                  string     `json:"checked_by,omitempty"`
	CheckedAt                  *time.Time `json:"checked_at,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// ItemTemplate seeds item instantiation. ShopID empty means global.
type ItemTemplate struct {
	ID                  string    `json:"id"`
	ShopID              string    `json:"shop_id,omitempty"`
	Category            string    `json:"category"`
	Component           string    `json:"component"`
	DefaultPriority     int       `json:"default_priority"`
	MeasurementRequired bool      `json:"measurement_required"`
	MeasurementUnit     string    `json:"measurement_unit,omitempty"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ── Summary ──────────────────────────────────────────────────

// Summary aggregates an inspection's items. ByCondition buckets the null
// condition under "none".
type Summary struct {
	TotalItems           int                `json:"total_items"`
	ByStatus             map[ItemStatus]int `json:"by_status"`
	ByCondition          map[string]int     `json:"by_condition"`
	ImmediateAttention   int                `json:"immediate_attention"`
	CompletionPercentage float64            `json:"completion_percentage"` // 2 decimals, 0 when empty
}

// ── Portal token ─────────────────────────────────────────────

// PortalToken is the persisted half of a customer portal capability. The
// signed token string carries the row id as its jti claim; revocation
// flips Revoked here.
type PortalToken struct {
	ID           string    `json:"id"`
	InspectionID string    `json:"inspection_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	Revoked      bool      `json:"revoked"`
	CreatedAt    time.Time `json:"created_at"`
}

// ── Photo ────────────────────────────────────────────────────

// Photo records an uploaded image's storage key and metadata. The byte
// stream itself lives behind the PhotoStorage collaborator.
type Photo struct {
	ID           string    `json:"id"`
	InspectionID string    `json:"inspection_id"`
	ItemID       string    `json:"item_id,omitempty"`
	StorageKey   string    `json:"storage_key"`
	URL          string    `json:"url,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
