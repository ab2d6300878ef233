package models

// Caller is the authenticated identity a request acts as, decoded from the
// access token by the HTTP layer and consumed by the service layer for
// tenancy checks.
type Caller struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	ShopID string `json:"shop_id"`
}

// CanAccessShop reports whether the caller may touch data in shopID.
// Admins cross shop boundaries; everyone else is confined to their own.
func (c Caller) CanAccessShop(shopID string) bool {
	return c.Role == RoleAdmin || c.ShopID == shopID
}
