package models

// BudgetItem is one category's allocation within a budget period. Amounts
// are signed cents: Allocated is non-negative, RolloverIn may be negative to
// carry an overspend deficit forward.
//
// At most one item may exist per (period, category) pair; the unique index
// doubles as the optimistic-concurrency guard for period rollover.
type BudgetItem struct {
	Base
	BudgetPeriodID  string `gorm:"type:uuid;not null;index:idx_items_period_category,unique" json:"budget_period_id"`
	CategoryID      string `gorm:"type:uuid;not null;index:idx_items_period_category,unique" json:"category_id"`
	Allocated       int64  `gorm:"type:bigint;not null;default:0" json:"allocated"`
	RolloverIn      int64  `gorm:"type:bigint;not null;default:0" json:"rollover_in"`
	RolloverEnabled bool   `gorm:"default:false" json:"rollover_enabled"`
	Notes           string `json:"notes,omitempty"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`

	// Derived at read time from the transaction ledger, never stored.
	Spent     int64 `gorm:"-" json:"spent"`
	Available int64 `gorm:"-" json:"available"`
	Remaining int64 `gorm:"-" json:"remaining"`
}

// ComputeDerived fills the derived spending fields from the given spent total.
func (i *BudgetItem) ComputeDerived(spent int64) {
	i.Spent = spent
	i.Available = i.Allocated + i.RolloverIn
	i.Remaining = i.Available - spent
}
