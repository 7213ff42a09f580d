package model

import "time"

// ShopStatus is the singleton open/closed record shown on the storefront.
type ShopStatus struct {
	ID        string    `json:"id"`
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// ShopStatusPatch is the write side of a toggle.
type ShopStatusPatch struct {
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// ShopStatusNotConfigured is the 404 body parlour-api sends when the singleton
// row is missing. Any other 404 is a failed read.
const ShopStatusNotConfigured = "shop status not configured"

// UpdatedByAdmin is the static author recorded by the admin toggle.
const UpdatedByAdmin = "admin"

// ShopStatusChange is the payload of an UPDATE change notification.
type ShopStatusChange struct {
	Event string     `json:"event"`
	Table string     `json:"table"`
	New   ShopStatus `json:"new"`
}

const (
	EventUpdate     = "UPDATE"
	TableShopStatus = "shop_status"
)
