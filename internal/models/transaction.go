package models

import "time"

// TransactionSource identifies where a transaction came from.
type TransactionSource string

const (
	SourceManual    TransactionSource = "manual"
	SourceSimpleFIN TransactionSource = "simplefin"
)

// Transaction represents a ledger entry. Amount is signed cents using the
// SimpleFIN convention: negative for money leaving the account, positive for
// money coming in.
//
// A transaction marked IsSplit is a container: its own amount is excluded
// from budget aggregation and only its children (each carrying its own
// category) are counted.
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index;index:idx_txns_account_external,unique" json:"account_id"`
	CategoryID  *string           `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Amount      int64             `gorm:"type:bigint;not null" json:"amount"`
	Description string            `json:"description,omitempty"`
	Payee       string            `json:"payee,omitempty"`
	Memo        string            `json:"memo,omitempty"`
	Date        time.Time         `gorm:"not null;index" json:"date"`
	PostedDate  *time.Time        `json:"posted_date,omitempty"`
	Pending     bool              `gorm:"default:false" json:"pending"`
	Source      TransactionSource `gorm:"not null;default:'manual'" json:"source"`

	// ExternalID is the aggregator's transaction identifier; together with
	// AccountID it deduplicates repeated imports.
	ExternalID *string `gorm:"index:idx_txns_account_external,unique" json:"external_id,omitempty"`

	IsSplit      bool    `gorm:"default:false" json:"is_split"`
	ParentID     *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	IsReconciled bool    `gorm:"default:false" json:"is_reconciled"`

	Account  Account       `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Parent   *Transaction  `gorm:"foreignKey:ParentID" json:"-"`
	Children []Transaction `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
