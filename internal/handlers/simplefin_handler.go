package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/services"
	"homebudget/internal/simplefin"
)

// defaultSyncLookbackDays bounds the transaction window requested from the
// bridge when the caller does not name one.
const defaultSyncLookbackDays = 90

// SimpleFINHandler handles SimpleFIN bridge connection requests.
type SimpleFINHandler struct {
	client        simplefin.Client
	userService   services.UserServicer
	importService services.ImportServicer
	auditService  services.AuditServicer
}

// NewSimpleFINHandler creates a new SimpleFINHandler.
func NewSimpleFINHandler(client simplefin.Client, userService services.UserServicer, importService services.ImportServicer, auditService services.AuditServicer) *SimpleFINHandler {
	return &SimpleFINHandler{
		client:        client,
		userService:   userService,
		importService: importService,
		auditService:  auditService,
	}
}

// SetupRequest carries a one-time SimpleFIN setup token.
type SetupRequest struct {
	SetupToken string `json:"setup_token" binding:"required"`
}

// SyncRequest optionally narrows the sync window.
type SyncRequest struct {
	LookbackDays int `json:"lookback_days" binding:"omitempty,gte=1,lte=365"`
}

// StatusResponse reports whether a bridge connection is configured.
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// Setup handles claiming a setup token and storing the resulting access URL
// @Summary     Connect SimpleFIN
// @Description Claim a one-time setup token and store the resulting access URL
// @Tags        simplefin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetupRequest true "Setup token"
// @Success     200 {object} MessageResponse "Bridge connected"
// @Failure     400 {object} ErrorResponse "Invalid or already claimed token"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /simplefin/setup [post]
func (h *SimpleFINHandler) Setup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	accessURL, err := h.client.ClaimSetupToken(c.Request.Context(), req.SetupToken)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrSimpleFINSetup, err))
		return
	}

	if err := h.userService.SetSimpleFINAccessURL(userID, accessURL); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SIMPLEFIN_CONNECT", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "simplefin connected"})
}

// Sync handles pulling transactions from the bridge into the ledger
// @Summary     Sync SimpleFIN
// @Description Fetch recent transactions from the bridge and apply them, skipping duplicates
// @Tags        simplefin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SyncRequest false "Sync options"
// @Success     200 {object} services.ImportResult "Applied and skipped counts"
// @Failure     400 {object} ErrorResponse "Bridge not configured"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Bridge unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /simplefin/sync [post]
func (h *SimpleFINHandler) Sync(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	req := SyncRequest{LookbackDays: defaultSyncLookbackDays}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		if req.LookbackDays == 0 {
			req.LookbackDays = defaultSyncLookbackDays
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -req.LookbackDays)
	result, err := h.importService.Sync(c.Request.Context(), userID, since)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SIMPLEFIN_SYNC", "user", userID, c.ClientIP(),
		map[string]interface{}{"applied": result.Applied, "skipped": result.Skipped})

	c.JSON(http.StatusOK, result)
}

// Status reports whether the user has a stored bridge connection
// @Summary     SimpleFIN status
// @Description Report whether a bridge connection is configured for the user
// @Tags        simplefin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} StatusResponse "Connection status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /simplefin/status [get]
func (h *SimpleFINHandler) Status(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": user.SimpleFINAccessURL != ""})
}

// Disconnect removes the stored bridge connection
// @Summary     Disconnect SimpleFIN
// @Description Remove the stored bridge access URL
// @Tags        simplefin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Bridge disconnected"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /simplefin/disconnect [post]
func (h *SimpleFINHandler) Disconnect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.SetSimpleFINAccessURL(userID, ""); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SIMPLEFIN_DISCONNECT", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "simplefin disconnected"})
}
