package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// IsLiability reports whether balances on this account type represent money owed.
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCreditCard
}

// Account represents a financial account in the system.
// Balance is stored in signed cents.
type Account struct {
	Base
	UserID   string      `gorm:"type:uuid;not null;index;index:idx_accounts_user_external,unique" json:"user_id"`
	Name     string      `gorm:"not null" json:"name"`
	Type     AccountType `gorm:"not null" json:"type"`
	Balance  int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency string      `gorm:"not null;default:'USD'" json:"currency"`
	IsActive bool        `gorm:"default:true" json:"is_active"`

	// Set for accounts discovered through the SimpleFIN bridge. ExternalID is
	// the bridge's account identifier and anchors import deduplication.
	ExternalID  *string `gorm:"index:idx_accounts_user_external,unique" json:"external_id,omitempty"`
	Institution string  `json:"institution,omitempty"`

	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
