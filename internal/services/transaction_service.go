package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/models"
	"homebudget/internal/pagination"
)

// transactionService handles the transaction ledger.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransaction records a manual ledger entry. Amount is signed cents,
// negative for money leaving the account; the account balance moves by the
// same amount.
func (s *transactionService) CreateTransaction(userID, accountID string, categoryID *string, amount int64, description, payee, memo string, date time.Time) (*models.Transaction, error) {
	if amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	account, err := s.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		if err := s.verifyCategory(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		Payee:       payee,
		Memo:        memo,
		Date:        date,
		Source:      models.SourceManual,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(account).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Source != nil {
		q = q.Where("source = ?", *f.Source)
	}
	if f.Pending != nil {
		q = q.Where("pending = ?", *f.Pending)
	}
	return q
}

// GetTransactionByID retrieves a transaction with its split children, if any.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Preload("Children").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates categorization and bookkeeping fields. The amount
// of an existing transaction is immutable; delete and re-create instead.
func (s *transactionService) UpdateTransaction(userID, transactionID string, categoryID *string, description, memo *string, isReconciled *bool) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if categoryID != nil {
		if transaction.IsSplit {
			// A split parent is excluded from aggregation; categorize its children.
			return nil, apperrors.WithMessage(apperrors.ErrAlreadySplit, "categorize the split children instead")
		}
		if *categoryID == "" {
			updates["category_id"] = nil
		} else {
			if err := s.verifyCategory(userID, *categoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *categoryID
		}
	}
	if description != nil {
		updates["description"] = *description
	}
	if memo != nil {
		updates["memo"] = *memo
	}
	if isReconciled != nil {
		updates["is_reconciled"] = *isReconciled
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return transaction, nil
}

// DeleteTransaction removes a transaction, its split children with it, and
// reverses its effect on the account balance. Split children cannot be
// deleted individually; unsplit the parent first.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if transaction.ParentID != nil {
		return apperrors.ErrSplitChild
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if transaction.IsSplit {
			if err := tx.Where("parent_id = ?", transaction.ID).Delete(&models.Transaction{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", transaction.AccountID).
			Update("balance", gorm.Expr("balance - ?", transaction.Amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SplitTransaction decomposes a transaction into child transactions carrying
// their own categories. The children's amounts must sum exactly to the
// parent's amount; a mismatch is rejected at write time, not detected later
// during aggregation. The parent is flagged is_split and drops out of budget
// sums, so nothing is double-counted.
//
// Account balances are untouched: the children net to the parent, which
// already moved the balance when it was recorded.
func (s *transactionService) SplitTransaction(userID, transactionID string, parts []SplitPart) (*models.Transaction, error) {
	if len(parts) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a split needs at least two parts")
	}

	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.IsSplit {
		return nil, apperrors.ErrAlreadySplit
	}
	if transaction.ParentID != nil {
		return nil, apperrors.ErrSplitChild
	}

	var sum int64
	for _, part := range parts {
		sum += part.Amount
		if part.CategoryID != nil {
			if err := s.verifyCategory(userID, *part.CategoryID); err != nil {
				return nil, err
			}
		}
	}
	if sum != transaction.Amount {
		return nil, apperrors.ErrSplitAmountMismatch
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(transaction).Update("is_split", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, part := range parts {
			child := &models.Transaction{
				UserID:      userID,
				AccountID:   transaction.AccountID,
				CategoryID:  part.CategoryID,
				Amount:      part.Amount,
				Description: part.Description,
				Date:        transaction.Date,
				Pending:     transaction.Pending,
				Source:      transaction.Source,
				ParentID:    &transaction.ID,
			}
			if err := tx.Create(child).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(userID, transactionID)
}

// UnsplitTransaction removes a split's children and restores the parent to a
// plain transaction.
func (s *transactionService) UnsplitTransaction(userID, transactionID string) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if !transaction.IsSplit {
		return nil, apperrors.ErrNotSplit
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", transaction.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(transaction).Update("is_split", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	transaction.IsSplit = false
	transaction.Children = nil
	return transaction, nil
}

// verifyCategory checks that a category exists and belongs to the user.
func (s *transactionService) verifyCategory(userID, categoryID string) error {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
