package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/models"
	"homebudget/internal/pagination"
	"homebudget/internal/services"
	"homebudget/internal/simplefin"
)

// TransactionHandler handles transaction ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	importService      services.ImportServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, importService services.ImportServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		importService:      importService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Amount      int64   `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"required,min=1,max=255"`
	Payee       string  `json:"payee" binding:"max=255"`
	Memo        string  `json:"memo" binding:"max=500"`
	Date        string  `json:"date" binding:"required"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction
type UpdateTransactionRequest struct {
	CategoryID   *string `json:"category_id"`
	Description  *string `json:"description" binding:"omitempty,min=1,max=255"`
	Memo         *string `json:"memo" binding:"omitempty,max=500"`
	IsReconciled *bool   `json:"is_reconciled"`
}

// SplitPartRequest is one child of a split request.
type SplitPartRequest struct {
	Amount      int64   `json:"amount" binding:"required"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Description string  `json:"description" binding:"max=255"`
}

// SplitTransactionRequest represents the request payload for splitting a transaction
type SplitTransactionRequest struct {
	Parts []SplitPartRequest `json:"parts" binding:"required,min=2,dive"`
}

// ImportRequest carries a batch of externally sourced accounts and
// transactions to apply to the ledger.
type ImportRequest struct {
	Accounts []simplefin.BridgeAccount `json:"accounts" binding:"required,min=1"`
}

// TransactionQuery holds the supported list filters.
type TransactionQuery struct {
	pagination.PageRequest
	FromDate   string `form:"from_date"`
	ToDate     string `form:"to_date"`
	AccountID  string `form:"account_id" binding:"omitempty,uuid"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Source     string `form:"source" binding:"omitempty,transaction_source"`
	Pending    *bool  `form:"pending"`
}

func (q *TransactionQuery) toFilter() (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	if q.FromDate != "" {
		t, err := parseDate(q.FromDate)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format")
		}
		filter.FromDate = &t
	}
	if q.ToDate != "" {
		t, err := parseDate(q.ToDate)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format")
		}
		filter.ToDate = &t
	}
	if q.AccountID != "" {
		filter.AccountID = &q.AccountID
	}
	if q.CategoryID != "" {
		filter.CategoryID = &q.CategoryID
	}
	if q.Source != "" {
		source := models.TransactionSource(q.Source)
		filter.Source = &source
	}
	filter.Pending = q.Pending
	return filter, nil
}

// CreateTransaction handles the creation of a manual transaction
// @Summary     Create a transaction
// @Description Record a manual transaction and adjust the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format"))
		return
	}

	txn, err := h.transactionService.CreateTransaction(
		userID,
		req.AccountID,
		req.CategoryID,
		req.Amount,
		req.Description,
		req.Payee,
		req.Memo,
		date,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"account_id": req.AccountID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GetUserTransactions handles the retrieval of transactions for a user
// @Summary     Get transactions
// @Description Get a paginated, filterable list of transactions for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       from_date   query string false "Inclusive lower date bound (YYYY-MM-DD)"
// @Param       to_date     query string false "Inclusive upper date bound (YYYY-MM-DD)"
// @Param       account_id  query string false "Filter by account"
// @Param       category_id query string false "Filter by category"
// @Param       source      query string false "Filter by source (manual or simplefin)"
// @Param       pending     query bool   false "Filter by pending flag"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles the retrieval of a single transaction
// @Summary     Get a transaction
// @Description Get a single transaction with its category and split children
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update a transaction
// @Description Update a transaction's category, description, memo, or reconciled flag
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := h.transactionService.UpdateTransaction(userID, transactionID, req.CategoryID, req.Description, req.Memo, req.IsReconciled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"category_id": req.CategoryID})

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction, reversing its effect on the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Transaction is a split child"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}

// SplitTransaction handles splitting a transaction into categorized parts
// @Summary     Split a transaction
// @Description Split a transaction into two or more parts whose amounts sum to the parent's
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Transaction ID"
// @Param       request body SplitTransactionRequest true "Split parts"
// @Success     200 {object} models.Transaction "Split parent with children"
// @Failure     400 {object} ErrorResponse "Invalid input or amounts do not sum"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction already split"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/split [post]
func (h *TransactionHandler) SplitTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SplitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	parts := make([]services.SplitPart, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = services.SplitPart{
			Amount:      p.Amount,
			CategoryID:  p.CategoryID,
			Description: p.Description,
		}
	}

	txn, err := h.transactionService.SplitTransaction(userID, transactionID, parts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SPLIT_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"parts": len(req.Parts)})

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UnsplitTransaction handles collapsing a split transaction back to a single row
// @Summary     Unsplit a transaction
// @Description Remove a transaction's split children and restore it to a single row
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Restored transaction"
// @Failure     400 {object} ErrorResponse "Transaction is not split"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/unsplit [post]
func (h *TransactionHandler) UnsplitTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.UnsplitTransaction(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UNSPLIT_TRANSACTION", "transaction", txn.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// ImportBatch handles applying a batch of externally sourced transactions
// @Summary     Import transactions
// @Description Apply a batch of externally sourced accounts and transactions, skipping duplicates
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ImportRequest true "Accounts with transactions"
// @Success     200 {object} services.ImportResult "Applied and skipped counts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/import [post]
func (h *TransactionHandler) ImportBatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.importService.ImportBatch(userID, req.Accounts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_TRANSACTIONS", "transaction", "", c.ClientIP(),
		map[string]interface{}{"applied": result.Applied, "skipped": result.Skipped})

	c.JSON(http.StatusOK, result)
}
