package models

// Category represents a budget category. Categories form a tree through
// ParentID; the parent chain must stay acyclic, which the category service
// enforces at write time.
type Category struct {
	Base
	UserID   string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string  `gorm:"not null" json:"name"`
	ParentID *string `gorm:"type:uuid" json:"parent_id,omitempty"`
	Color    string  `json:"color,omitempty"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	BudgetItems  []BudgetItem  `gorm:"foreignKey:CategoryID" json:"budget_items,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
