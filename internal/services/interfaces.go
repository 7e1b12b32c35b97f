package services

import (
	"context"
	"time"

	"homebudget/internal/models"
	"homebudget/internal/pagination"
	"homebudget/internal/simplefin"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	SetSimpleFINAccessURL(userID string, accessURL string) error
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, currency string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, name *string, isActive *bool) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, color string, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// RolloverMode selects how a single item is carried into the next period,
// overriding its stored rollover_enabled flag for one invocation.
type RolloverMode string

const (
	RolloverModeCarry  RolloverMode = "carry"
	RolloverModeReset  RolloverMode = "reset"
	RolloverModeCustom RolloverMode = "custom"
)

// RolloverOverride is a caller-supplied per-item decision for one rollover
// invocation, keyed by category.
type RolloverOverride struct {
	Mode   RolloverMode
	Amount int64 // rollover-in for RolloverModeCustom, ignored otherwise
}

// CategorySummary aggregates one category's items within a period.
type CategorySummary struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Allocated    int64  `json:"allocated"`
	RolloverIn   int64  `json:"rollover_in"`
	Available    int64  `json:"available"`
	Spent        int64  `json:"spent"`
	Remaining    int64  `json:"remaining"`
}

// PeriodDetail is a budget period with items carrying derived spending
// figures plus per-category rollups.
type PeriodDetail struct {
	Period     *models.BudgetPeriod `json:"period"`
	Categories []CategorySummary    `json:"categories"`
}

// BudgetServicer defines the contract for budget periods, items, and the
// rollover engine.
type BudgetServicer interface {
	CreatePeriod(userID, name string, startDate, endDate time.Time) (*models.BudgetPeriod, error)
	GetUserPeriods(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error)
	GetPeriodDetail(userID, periodID string, rollupChildren bool) (*PeriodDetail, error)
	CreateNextPeriod(userID, sourcePeriodID, name string, overrides map[string]RolloverOverride) (*PeriodDetail, error)
	AddItem(userID, periodID, categoryID string, allocated int64, rolloverEnabled bool, notes string) (*models.BudgetItem, error)
	UpdateItem(userID, itemID string, allocated *int64, rolloverEnabled *bool, notes *string) (*models.BudgetItem, error)
	DeleteItem(userID, itemID string) error
	ItemSpent(userID string, period *models.BudgetPeriod, categoryID string) (int64, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	AccountID  *string
	CategoryID *string
	Source     *models.TransactionSource
	Pending    *bool
}

// SplitPart is one child of a split transaction.
type SplitPart struct {
	Amount      int64
	CategoryID  *string
	Description string
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	CreateTransaction(userID, accountID string, categoryID *string, amount int64, description, payee, memo string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, categoryID *string, description, memo *string, isReconciled *bool) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	SplitTransaction(userID, transactionID string, parts []SplitPart) (*models.Transaction, error)
	UnsplitTransaction(userID, transactionID string) (*models.Transaction, error)
}

// ImportResult reports how a batch was applied.
type ImportResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// ImportServicer defines the contract for applying externally sourced
// transaction batches to the ledger.
type ImportServicer interface {
	ImportBatch(userID string, accounts []simplefin.BridgeAccount) (*ImportResult, error)
	Sync(ctx context.Context, userID string, since time.Time) (*ImportResult, error)
}

// NetWorthServicer defines the contract for net worth snapshots.
type NetWorthServicer interface {
	CreateSnapshot(userID string, snapshotDate time.Time, totalAssets, totalLiabilities int64, notes string) (*models.NetWorthSnapshot, error)
	GetSnapshots(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.NetWorthSnapshot], error)
	Current(userID string) (*models.NetWorthSnapshot, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
