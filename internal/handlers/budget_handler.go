package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/pagination"
	"homebudget/internal/services"
)

// BudgetHandler handles budget period and budget item requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreatePeriodRequest represents the request payload for creating a budget period
type CreatePeriodRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// RolloverOverrideRequest is a per-category rollover decision for one
// rollover invocation.
type RolloverOverrideRequest struct {
	Mode   string `json:"mode" binding:"required,rollover_mode"`
	Amount int64  `json:"amount"`
}

// RolloverRequest represents the request payload for rolling a period forward
type RolloverRequest struct {
	Name      string                             `json:"name" binding:"max=100"`
	Overrides map[string]RolloverOverrideRequest `json:"overrides"`
}

// AddItemRequest represents the request payload for adding a budget item
type AddItemRequest struct {
	CategoryID      string `json:"category_id" binding:"required,uuid"`
	Allocated       int64  `json:"allocated" binding:"gte=0"`
	RolloverEnabled bool   `json:"rollover_enabled"`
	Notes           string `json:"notes" binding:"max=500"`
}

// UpdateItemRequest represents the request payload for updating a budget item
type UpdateItemRequest struct {
	Allocated       *int64  `json:"allocated" binding:"omitempty,gte=0"`
	RolloverEnabled *bool   `json:"rollover_enabled"`
	Notes           *string `json:"notes" binding:"omitempty,max=500"`
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// CreatePeriod handles the creation of a new budget period
// @Summary     Create a budget period
// @Description Create a new budget period with an inclusive date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePeriodRequest true "Period details"
// @Success     201 {object} models.BudgetPeriod "Period created"
// @Failure     400 {object} ErrorResponse "Invalid input or date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period already exists for start date"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods [post]
func (h *BudgetHandler) CreatePeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format"))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format"))
		return
	}

	period, err := h.budgetService.CreatePeriod(userID, req.Name, startDate, endDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET_PERIOD", "budget_period", period.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "start_date": req.StartDate, "end_date": req.EndDate})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// GetUserPeriods handles the retrieval of budget periods for a user
// @Summary     Get budget periods
// @Description Get a paginated list of budget periods for the authenticated user
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetPeriod] "Paginated periods"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods [get]
func (h *BudgetHandler) GetUserPeriods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetService.GetUserPeriods(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPeriodDetail handles the retrieval of a budget period with derived
// spending figures for each item and per-category rollups.
// @Summary     Get budget period detail
// @Description Get a budget period with items, spending, and category summaries
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id              path  string true  "Period ID"
// @Param       rollup_children query bool   false "Fold child category totals into parents"
// @Success     200 {object} services.PeriodDetail "Period detail"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{id} [get]
func (h *BudgetHandler) GetPeriodDetail(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rollupChildren := c.Query("rollup_children") == "true"

	detail, err := h.budgetService.GetPeriodDetail(userID, periodID, rollupChildren)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Rollover handles closing out a period into a new one. Each item of the
// source period is copied forward with its carry-forward amount, subject to
// per-category overrides.
// @Summary     Roll a period forward
// @Description Create the next budget period, carrying remaining balances forward per item
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Source period ID"
// @Param       request body RolloverRequest true "Rollover options"
// @Success     201 {object} services.PeriodDetail "New period detail"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Source period not found"
// @Failure     409 {object} ErrorResponse "Next period already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{id}/rollover [post]
func (h *BudgetHandler) Rollover(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	overrides := make(map[string]services.RolloverOverride, len(req.Overrides))
	for categoryID, o := range req.Overrides {
		overrides[categoryID] = services.RolloverOverride{
			Mode:   services.RolloverMode(o.Mode),
			Amount: o.Amount,
		}
	}

	detail, err := h.budgetService.CreateNextPeriod(userID, periodID, req.Name, overrides)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ROLLOVER_BUDGET_PERIOD", "budget_period", detail.Period.ID, c.ClientIP(),
		map[string]interface{}{"source_period_id": periodID, "overrides": len(req.Overrides)})

	c.JSON(http.StatusCreated, detail)
}

// AddItem handles adding a budget item to a period
// @Summary     Add a budget item
// @Description Add a per-category allocation to a budget period
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Period ID"
// @Param       request body AddItemRequest true "Item details"
// @Success     201 {object} models.BudgetItem "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Period or category not found"
// @Failure     409 {object} ErrorResponse "Category already budgeted in period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{id}/items [post]
func (h *BudgetHandler) AddItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.budgetService.AddItem(userID, periodID, req.CategoryID, req.Allocated, req.RolloverEnabled, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET_ITEM", "budget_item", item.ID, c.ClientIP(),
		map[string]interface{}{"category_id": req.CategoryID, "allocated": req.Allocated})

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItem handles updating a budget item
// @Summary     Update a budget item
// @Description Update a budget item's allocation, rollover flag, or notes
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Item ID"
// @Param       request body UpdateItemRequest true "Fields to update"
// @Success     200 {object} models.BudgetItem "Updated item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-items/{id} [patch]
func (h *BudgetHandler) UpdateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.budgetService.UpdateItem(userID, itemID, req.Allocated, req.RolloverEnabled, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_ITEM", "budget_item", item.ID, c.ClientIP(),
		map[string]interface{}{"allocated": req.Allocated})

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem handles removing a budget item from its period
// @Summary     Delete a budget item
// @Description Remove a budget item from its period
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} MessageResponse "Item deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-items/{id} [delete]
func (h *BudgetHandler) DeleteItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteItem(userID, itemID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET_ITEM", "budget_item", itemID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "budget item deleted"})
}
