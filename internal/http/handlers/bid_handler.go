package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorlink/collab-backend/internal/http/handlers/common"
	"github.com/creatorlink/collab-backend/internal/service"
)

type BidHandler struct {
	bids *service.BidService
}

func NewBidHandler(bids *service.BidService) *BidHandler {
	return &BidHandler{bids: bids}
}

type bidTermsRequest struct {
	Amount            int64  `json:"amount" binding:"required,gt=0"`
	Platform          string `json:"platform" binding:"required"`
	ContentType       string `json:"content_type" binding:"required"`
	DeliverablesCount int    `json:"deliverables_count" binding:"required,gt=0"`
	TimelineDays      int    `json:"timeline_days" binding:"required,gt=0"`
	Proposal          string `json:"proposal" binding:"required"`
}

func (r bidTermsRequest) toInput() service.BidTermsInput {
	return service.BidTermsInput{
		Amount:            r.Amount,
		Platform:          r.Platform,
		ContentType:       r.ContentType,
		DeliverablesCount: r.DeliverablesCount,
		TimelineDays:      r.TimelineDays,
		Proposal:          r.Proposal,
	}
}

// Submit POST /api/campaigns/:id/bids
func (h *BidHandler) Submit(c *gin.Context) {
	influencerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	campaignID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req bidTermsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.SubmitBid(c.Request.Context(), influencerID, campaignID, req.toInput())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// ListByCampaign GET /api/campaigns/:id/bids
func (h *BidHandler) ListByCampaign(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	campaignID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	bids, err := h.bids.ListCampaignBids(c.Request.Context(), userID, role, campaignID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// ListMine GET /api/bids
func (h *BidHandler) ListMine(c *gin.Context) {
	influencerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	bids, err := h.bids.ListMyBids(c.Request.Context(), influencerID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// Get GET /api/bids/:id
func (h *BidHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.GetBid(c.Request.Context(), userID, role, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// Edit PATCH /api/bids/:id
func (h *BidHandler) Edit(c *gin.Context) {
	influencerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		bidTermsRequest
		Version int64 `json:"version" binding:"required,gt=0"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.EditBid(c.Request.Context(), influencerID, bidID, req.toInput(), req.Version)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// Withdraw POST /api/bids/:id/withdraw
func (h *BidHandler) Withdraw(c *gin.Context) {
	influencerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.WithdrawBid(c.Request.Context(), influencerID, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// Accept POST /api/bids/:id/accept
func (h *BidHandler) Accept(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, reserve, err := h.bids.AcceptBid(c.Request.Context(), brandID, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bid":     bid,
		"reserve": reserve,
	})
}

// Reject POST /api/bids/:id/reject
func (h *BidHandler) Reject(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	bid, err := h.bids.RejectBid(c.Request.Context(), brandID, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}
