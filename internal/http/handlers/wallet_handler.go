package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/http/handlers/common"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/service"
)

type WalletHandler struct {
	withdrawals *service.WithdrawalService
}

func NewWalletHandler(withdrawals *service.WithdrawalService) *WalletHandler {
	return &WalletHandler{withdrawals: withdrawals}
}

// GetWallet GET /api/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	wallet, err := h.withdrawals.GetWallet(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetLedger GET /api/wallet/ledger
func (h *WalletHandler) GetLedger(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	entries, err := h.withdrawals.ListWalletLedger(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CreatePaymentMethod POST /api/payment-methods
func (h *WalletHandler) CreatePaymentMethod(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		MethodType   string `json:"method_type" binding:"required"`
		Label        string `json:"label" binding:"required"`
		MaskedDetail string `json:"masked_detail" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	method, err := h.withdrawals.AddPaymentMethod(c.Request.Context(), userID, service.PaymentMethodInput{
		MethodType:   req.MethodType,
		Label:        req.Label,
		MaskedDetail: req.MaskedDetail,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, method)
}

// ListPaymentMethods GET /api/payment-methods
func (h *WalletHandler) ListPaymentMethods(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	methods, err := h.withdrawals.ListPaymentMethods(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// RequestWithdrawal POST /api/withdrawals
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		PaymentMethodID string `json:"payment_method_id" binding:"required,uuid"`
		Amount          int64  `json:"amount" binding:"required,gt=0"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	methodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		common.RespondAppError(c, apperror.New(apperror.ErrCodeValidation, "invalid payment_method_id"))
		return
	}

	withdrawal, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), userID, methodID, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

// ListWithdrawals GET /api/withdrawals
// ?pending=true shows the processing queue, administrators only.
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	if c.Query("pending") == "true" {
		withdrawals, err := h.withdrawals.ListPendingWithdrawals(c.Request.Context(), limit, offset)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
		return
	}

	withdrawals, err := h.withdrawals.ListWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// GetWithdrawal GET /api/withdrawals/:id
func (h *WalletHandler) GetWithdrawal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	withdrawal, err := h.withdrawals.GetWithdrawal(c.Request.Context(), userID, role, withdrawalID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

// Process POST /api/withdrawals/:id/process
func (h *WalletHandler) Process(c *gin.Context) {
	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	withdrawal, err := h.withdrawals.ProcessWithdrawal(c.Request.Context(), withdrawalID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

// Reject POST /api/withdrawals/:id/reject
func (h *WalletHandler) Reject(c *gin.Context) {
	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	withdrawal, err := h.withdrawals.RejectWithdrawal(c.Request.Context(), withdrawalID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}
