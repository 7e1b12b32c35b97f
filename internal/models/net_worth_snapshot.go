package models

import "time"

// NetWorthSnapshot records total assets and liabilities (in cents) for a
// user at a point in time.
type NetWorthSnapshot struct {
	Base
	UserID           string    `gorm:"type:uuid;not null;index" json:"user_id"`
	SnapshotDate     time.Time `gorm:"not null" json:"snapshot_date"`
	TotalAssets      int64     `gorm:"type:bigint;not null;default:0" json:"total_assets"`
	TotalLiabilities int64     `gorm:"type:bigint;not null;default:0" json:"total_liabilities"`
	NetWorth         int64     `gorm:"type:bigint;not null;default:0" json:"net_worth"`
	Notes            string    `json:"notes,omitempty"`
}
