package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/models"
	"homebudget/internal/pagination"
)

// netWorthService handles net worth snapshots.
type netWorthService struct {
	db *gorm.DB
}

// NewNetWorthService creates a new NetWorthServicer.
func NewNetWorthService(db *gorm.DB) NetWorthServicer {
	return &netWorthService{db: db}
}

// CreateSnapshot records a net worth snapshot. Net worth is derived, never
// supplied by the caller.
func (s *netWorthService) CreateSnapshot(userID string, snapshotDate time.Time, totalAssets, totalLiabilities int64, notes string) (*models.NetWorthSnapshot, error) {
	if totalAssets < 0 || totalLiabilities < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset and liability totals must not be negative")
	}
	if snapshotDate.IsZero() {
		snapshotDate = time.Now()
	}

	snapshot := &models.NetWorthSnapshot{
		UserID:           userID,
		SnapshotDate:     snapshotDate,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		NetWorth:         totalAssets - totalLiabilities,
		Notes:            notes,
	}

	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshot, nil
}

// GetSnapshots returns the user's snapshots, newest first.
func (s *netWorthService) GetSnapshots(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.NetWorthSnapshot], error) {
	page.Defaults()

	base := s.db.Model(&models.NetWorthSnapshot{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.NetWorthSnapshot
	if err := base.Scopes(pagination.Paginate(page)).Order("snapshot_date DESC").Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Current computes net worth from active account balances without persisting
// a snapshot. Liability account balances count as owed regardless of sign.
func (s *netWorthService) Current(userID string) (*models.NetWorthSnapshot, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets, liabilities int64
	for _, account := range accounts {
		switch {
		case account.Type.IsLiability():
			liabilities += abs(account.Balance)
		case account.Balance >= 0:
			assets += account.Balance
		default:
			// Overdrawn asset account
			liabilities += -account.Balance
		}
	}

	return &models.NetWorthSnapshot{
		UserID:           userID,
		SnapshotDate:     time.Now(),
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		NetWorth:         assets - liabilities,
	}, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
