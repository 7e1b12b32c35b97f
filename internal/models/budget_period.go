package models

import "time"

// BudgetPeriod is a named date range (typically one calendar month) owning a
// set of budget items. The (user_id, start_date) unique key makes creating
// the same follow-up period twice a conflict instead of a duplicate.
type BudgetPeriod struct {
	Base
	UserID    string    `gorm:"type:uuid;not null;index;index:idx_periods_user_start,unique" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	StartDate time.Time `gorm:"not null;index:idx_periods_user_start,unique" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	Items []BudgetItem `gorm:"foreignKey:BudgetPeriodID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Contains reports whether d falls within the period's [start, end] range,
// inclusive on both ends.
func (p *BudgetPeriod) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
