package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/logger"
	"homebudget/internal/models"
	"homebudget/internal/simplefin"
)

// importService applies externally sourced transaction batches to the ledger.
type importService struct {
	db          *gorm.DB
	client      simplefin.Client
	userService UserServicer
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, client simplefin.Client, userService UserServicer) ImportServicer {
	return &importService{db: db, client: client, userService: userService}
}

// ImportBatch persists a batch of bridge accounts and their transactions in
// one database transaction: either the whole batch lands or none of it does.
//
// Transactions are deduplicated on (account, external id); re-delivery of an
// already-seen identifier is counted as skipped and changes nothing, so
// retried or overlapping syncs are safe. Unknown external accounts are
// created on the fly. Account balances are set from the bridge snapshot, the
// aggregator being authoritative for imported accounts.
func (s *importService) ImportBatch(userID string, accounts []simplefin.BridgeAccount) (*ImportResult, error) {
	result := &ImportResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, bridgeAccount := range accounts {
			account, err := s.findOrCreateAccount(tx, userID, bridgeAccount)
			if err != nil {
				return err
			}

			for _, raw := range bridgeAccount.Transactions {
				applied, err := s.applyTransaction(tx, userID, account, raw)
				if err != nil {
					return err
				}
				if applied {
					result.Applied++
				} else {
					result.Skipped++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("import batch applied",
		"user_id", userID,
		"accounts", len(accounts),
		"applied", result.Applied,
		"skipped", result.Skipped,
	)
	return result, nil
}

// Sync fetches the user's accounts from the SimpleFIN bridge and applies them
// as a batch. Bridge failures surface as retryable errors without touching
// the ledger.
func (s *importService) Sync(ctx context.Context, userID string, since time.Time) (*ImportResult, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.SimpleFINAccessURL == "" {
		return nil, apperrors.ErrSimpleFINNotConfigured
	}

	accounts, err := s.client.FetchAccounts(ctx, user.SimpleFINAccessURL, since)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSimpleFINUnavailable, err)
	}

	return s.ImportBatch(userID, accounts)
}

// findOrCreateAccount resolves a bridge account to a local one by external
// ID, creating it when first seen and refreshing its balance snapshot.
func (s *importService) findOrCreateAccount(tx *gorm.DB, userID string, bridgeAccount simplefin.BridgeAccount) (*models.Account, error) {
	if bridgeAccount.ExternalID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "bridge account is missing an external_id")
	}

	var account models.Account
	err := tx.Where("user_id = ? AND external_id = ?", userID, bridgeAccount.ExternalID).First(&account).Error
	switch {
	case err == nil:
		if err := tx.Model(&account).Update("balance", bridgeAccount.Balance).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &account, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		externalID := bridgeAccount.ExternalID
		account = models.Account{
			UserID:      userID,
			Name:        bridgeAccount.Name,
			Type:        models.AccountTypeChecking,
			Balance:     bridgeAccount.Balance,
			Currency:    bridgeAccount.Currency,
			IsActive:    true,
			ExternalID:  &externalID,
			Institution: bridgeAccount.Organization,
		}
		if account.Currency == "" {
			account.Currency = "USD"
		}
		if err := tx.Create(&account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &account, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// applyTransaction inserts one raw transaction unless its external ID has
// been seen for this account before. Returns whether a row was inserted.
func (s *importService) applyTransaction(tx *gorm.DB, userID string, account *models.Account, raw simplefin.RawTransaction) (bool, error) {
	if raw.ExternalID == "" {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "bridge transaction is missing an external_id")
	}

	var count int64
	if err := tx.Model(&models.Transaction{}).
		Where("account_id = ? AND external_id = ?", account.ID, raw.ExternalID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return false, nil
	}

	date := raw.Posted
	if raw.TransactedAt != nil {
		date = *raw.TransactedAt
	}
	posted := raw.Posted

	externalID := raw.ExternalID
	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Amount:      raw.Amount,
		Description: raw.Description,
		Payee:       raw.Payee,
		Memo:        raw.Memo,
		Date:        date,
		PostedDate:  &posted,
		Pending:     raw.Pending,
		Source:      models.SourceSimpleFIN,
		ExternalID:  &externalID,
	}
	if err := tx.Create(transaction).Error; err != nil {
		// A concurrent import may have landed the same row; treat it as a skip.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return true, nil
}
