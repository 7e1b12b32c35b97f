package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/models"
	"homebudget/internal/pagination"
)

// budgetService handles budget periods, items, and period rollover.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreatePeriod creates a new budget period for the user.
func (s *budgetService) CreatePeriod(userID, name string, startDate, endDate time.Time) (*models.BudgetPeriod, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period name is required")
	}
	if !endDate.After(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	period := &models.BudgetPeriod{
		UserID:    userID,
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  true,
	}

	if err := s.db.Create(period).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrPeriodExists
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return period, nil
}

// GetUserPeriods returns the user's budget periods, newest first.
func (s *budgetService) GetUserPeriods(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetPeriod{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var periods []models.BudgetPeriod
	if err := base.Scopes(pagination.Paginate(page)).Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(periods, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// getPeriod loads a period with its items (categories preloaded).
func (s *budgetService) getPeriod(userID, periodID string) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	if err := s.db.Preload("Items.Category").
		Where("id = ? AND user_id = ?", periodID, userID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// GetPeriodDetail returns a period with derived spent/available/remaining per
// item plus per-category rollups. When rollupChildren is set, each category's
// rollup additionally sums the items of its descendant categories; by default
// the category tree is organizational only.
func (s *budgetService) GetPeriodDetail(userID, periodID string, rollupChildren bool) (*PeriodDetail, error) {
	period, err := s.getPeriod(userID, periodID)
	if err != nil {
		return nil, err
	}

	spent, err := s.spentByCategory(userID, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}

	for i := range period.Items {
		period.Items[i].ComputeDerived(spent[period.Items[i].CategoryID])
	}

	summaries := make([]CategorySummary, 0, len(period.Items))
	for i := range period.Items {
		item := &period.Items[i]
		summaries = append(summaries, CategorySummary{
			CategoryID:   item.CategoryID,
			CategoryName: item.Category.Name,
			Allocated:    item.Allocated,
			RolloverIn:   item.RolloverIn,
			Available:    item.Available,
			Spent:        item.Spent,
			Remaining:    item.Remaining,
		})
	}

	if rollupChildren {
		if err := s.rollupDescendants(userID, period.Items, summaries); err != nil {
			return nil, err
		}
	}

	return &PeriodDetail{Period: period, Categories: summaries}, nil
}

// CreateNextPeriod materializes the period immediately following the source
// period, seeding items with carried-forward rollover amounts.
//
// For each source item, available = allocated + rollover_in and remaining =
// available - spent. Items with rollover enabled carry remaining (which may
// be negative after an overspend) into the new item's rollover_in; disabled
// items start the new period with rollover_in = 0. The overrides map, keyed
// by category ID, replaces an item's stored flag for this invocation only.
//
// The new window is the calendar month right after the source window: no gap,
// no overlap. Re-invoking for an already-created target period fails with a
// conflict; the (user, start_date) and (period, category) unique keys back
// this even under concurrent calls.
func (s *budgetService) CreateNextPeriod(userID, sourcePeriodID, name string, overrides map[string]RolloverOverride) (*PeriodDetail, error) {
	source, err := s.getPeriod(userID, sourcePeriodID)
	if err != nil {
		return nil, err
	}

	spent, err := s.spentByCategory(userID, source.StartDate, source.EndDate)
	if err != nil {
		return nil, err
	}

	nextStart := source.EndDate.AddDate(0, 0, 1)
	nextEnd := nextStart.AddDate(0, 1, -1)
	if name == "" {
		name = "Budget - " + nextStart.Format("January 2006")
	}

	newPeriod := &models.BudgetPeriod{
		UserID:    userID,
		Name:      name,
		StartDate: nextStart,
		EndDate:   nextEnd,
		IsActive:  true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newPeriod).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.ErrPeriodExists
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i := range source.Items {
			item := &source.Items[i]
			item.ComputeDerived(spent[item.CategoryID])

			rolloverIn := int64(0)
			carry := item.RolloverEnabled
			if override, ok := overrides[item.CategoryID]; ok {
				switch override.Mode {
				case RolloverModeCarry:
					carry = true
				case RolloverModeReset:
					carry = false
				case RolloverModeCustom:
					carry = false
					rolloverIn = override.Amount
				}
			}
			if carry {
				rolloverIn = item.Remaining
			}

			newItem := &models.BudgetItem{
				BudgetPeriodID:  newPeriod.ID,
				CategoryID:      item.CategoryID,
				Allocated:       item.Allocated,
				RolloverIn:      rolloverIn,
				RolloverEnabled: item.RolloverEnabled,
				Notes:           item.Notes,
			}
			if err := tx.Create(newItem).Error; err != nil {
				if isUniqueViolation(err) {
					return apperrors.ErrDuplicateBudgetItem
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPeriodDetail(userID, newPeriod.ID, false)
}

// AddItem adds a category allocation to a period. At most one item may exist
// per (period, category) pair.
func (s *budgetService) AddItem(userID, periodID, categoryID string, allocated int64, rolloverEnabled bool, notes string) (*models.BudgetItem, error) {
	if allocated < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocated must not be negative")
	}

	var period models.BudgetPeriod
	if err := s.db.Where("id = ? AND user_id = ?", periodID, userID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item := &models.BudgetItem{
		BudgetPeriodID:  periodID,
		CategoryID:      categoryID,
		Allocated:       allocated,
		RolloverEnabled: rolloverEnabled,
		Notes:           notes,
	}
	if err := s.db.Create(item).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateBudgetItem
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item.Category = category
	item.ComputeDerived(0)
	return item, nil
}

// getItem loads a budget item and verifies period ownership.
func (s *budgetService) getItem(userID, itemID string) (*models.BudgetItem, *models.BudgetPeriod, error) {
	var item models.BudgetItem
	if err := s.db.Preload("Category").Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrBudgetItemNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var period models.BudgetPeriod
	if err := s.db.Where("id = ? AND user_id = ?", item.BudgetPeriodID, userID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrBudgetItemNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, &period, nil
}

// UpdateItem updates an item's allocation, rollover flag, or notes. Validation
// errors are rejected, never clamped.
func (s *budgetService) UpdateItem(userID, itemID string, allocated *int64, rolloverEnabled *bool, notes *string) (*models.BudgetItem, error) {
	if allocated != nil && *allocated < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocated must not be negative")
	}

	item, period, err := s.getItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if allocated != nil {
		updates["allocated"] = *allocated
	}
	if rolloverEnabled != nil {
		updates["rollover_enabled"] = *rolloverEnabled
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	spent, err := s.ItemSpent(userID, period, item.CategoryID)
	if err != nil {
		return nil, err
	}
	item.ComputeDerived(spent)
	return item, nil
}

// DeleteItem removes an item from its period.
func (s *budgetService) DeleteItem(userID, itemID string) error {
	item, _, err := s.getItem(userID, itemID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ItemSpent computes the ledger spend for one category within a period's
// date range.
func (s *budgetService) ItemSpent(userID string, period *models.BudgetPeriod, categoryID string) (int64, error) {
	spent, err := s.spentByCategory(userID, period.StartDate, period.EndDate)
	if err != nil {
		return 0, err
	}
	return spent[categoryID], nil
}

// spentByCategory sums ledger outflows per category within [start, end],
// inclusive. Amounts are negated so ordinary spending reads positive. Split
// parents are excluded; their categorized children count instead, which keeps
// split transactions from being double-counted.
func (s *budgetService) spentByCategory(userID string, start, end time.Time) (map[string]int64, error) {
	type row struct {
		CategoryID string
		Total      int64
	}
	var rows []row
	err := s.db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND category_id IS NOT NULL AND is_split = ? AND date BETWEEN ? AND ?",
			userID, false, start, end).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent := make(map[string]int64, len(rows))
	for _, r := range rows {
		spent[r.CategoryID] = -r.Total
	}
	return spent, nil
}

// rollupDescendants folds each descendant category's summary into its
// ancestors that hold items in the same period.
func (s *budgetService) rollupDescendants(userID string, items []models.BudgetItem, summaries []CategorySummary) error {
	var categories []models.Category
	if err := s.db.Select("id", "parent_id").Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	parentOf := make(map[string]string, len(categories))
	for _, c := range categories {
		if c.ParentID != nil {
			parentOf[c.ID] = *c.ParentID
		}
	}

	index := make(map[string]int, len(summaries))
	for i, sum := range summaries {
		index[sum.CategoryID] = i
	}

	// Base figures per item, added to every ancestor holding an item.
	for i := range items {
		item := &items[i]
		ancestor, ok := parentOf[item.CategoryID]
		for ok {
			if j, has := index[ancestor]; has {
				summaries[j].Allocated += item.Allocated
				summaries[j].RolloverIn += item.RolloverIn
				summaries[j].Available += item.Available
				summaries[j].Spent += item.Spent
				summaries[j].Remaining += item.Remaining
			}
			ancestor, ok = parentOf[ancestor]
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// Postgres or SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
