package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/pagination"
	"homebudget/internal/services"
)

// NetWorthHandler handles net worth snapshot requests.
type NetWorthHandler struct {
	netWorthService services.NetWorthServicer
	auditService    services.AuditServicer
}

// NewNetWorthHandler creates a new NetWorthHandler.
func NewNetWorthHandler(netWorthService services.NetWorthServicer, auditService services.AuditServicer) *NetWorthHandler {
	return &NetWorthHandler{netWorthService: netWorthService, auditService: auditService}
}

// CreateSnapshotRequest represents the request payload for creating a snapshot
type CreateSnapshotRequest struct {
	SnapshotDate     string `json:"snapshot_date" binding:"required"`
	TotalAssets      int64  `json:"total_assets" binding:"gte=0"`
	TotalLiabilities int64  `json:"total_liabilities" binding:"gte=0"`
	Notes            string `json:"notes" binding:"max=500"`
}

// CreateSnapshot handles recording a net worth snapshot
// @Summary     Create a net worth snapshot
// @Description Record a point-in-time net worth snapshot
// @Tags        net-worth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSnapshotRequest true "Snapshot details"
// @Success     201 {object} models.NetWorthSnapshot "Snapshot created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /net-worth/snapshots [post]
func (h *NetWorthHandler) CreateSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshotDate, err := parseDate(req.SnapshotDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid snapshot_date format"))
		return
	}

	snapshot, err := h.netWorthService.CreateSnapshot(userID, snapshotDate, req.TotalAssets, req.TotalLiabilities, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_NET_WORTH_SNAPSHOT", "net_worth_snapshot", snapshot.ID, c.ClientIP(),
		map[string]interface{}{"snapshot_date": req.SnapshotDate})

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// GetSnapshots handles the retrieval of snapshots for a user
// @Summary     Get net worth snapshots
// @Description Get a paginated list of net worth snapshots, newest first
// @Tags        net-worth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.NetWorthSnapshot] "Paginated snapshots"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /net-worth/snapshots [get]
func (h *NetWorthHandler) GetSnapshots(c *gin.Context) {
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

	result, err := h.netWorthService.GetSnapshots(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCurrent computes the current net worth from active account balances
// @Summary     Get current net worth
// @Description Compute current net worth from active account balances
// @Tags        net-worth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.NetWorthSnapshot "Current net worth"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /net-worth/current [get]
func (h *NetWorthHandler) GetCurrent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.netWorthService.Current(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"net_worth": snapshot})
}
