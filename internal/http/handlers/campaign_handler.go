package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/http/handlers/common"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/service"
)

type CampaignHandler struct {
	campaigns *service.CampaignService
}

func NewCampaignHandler(campaigns *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// Create POST /api/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Title       string     `json:"title" binding:"required"`
		Objective   string     `json:"objective" binding:"required"`
		Audience    *string    `json:"audience"`
		KeyMessages *string    `json:"key_messages"`
		Hashtags    []string   `json:"hashtags"`
		Dos         *string    `json:"dos"`
		Donts       *string    `json:"donts"`
		Budget      int64      `json:"budget" binding:"required,gt=0"`
		DeadlineAt  *time.Time `json:"deadline_at"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	campaign, err := h.campaigns.CreateCampaign(c.Request.Context(), brandID, service.CreateCampaignInput{
		Title:       req.Title,
		Objective:   req.Objective,
		Audience:    req.Audience,
		KeyMessages: req.KeyMessages,
		Hashtags:    req.Hashtags,
		Dos:         req.Dos,
		Donts:       req.Donts,
		Budget:      req.Budget,
		DeadlineAt:  req.DeadlineAt,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// List GET /api/campaigns
// ?mine=true narrows to the authenticated brand's campaigns.
func (h *CampaignHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	if c.Query("mine") == "true" {
		brandID, err := common.CurrentUserID(c)
		if err != nil {
			common.RespondUnauthorized(c, err.Error())
			return
		}
		campaigns, err := h.campaigns.ListBrandCampaigns(c.Request.Context(), brandID, limit, offset)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
		return
	}

	campaigns, err := h.campaigns.ListOpenCampaigns(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// Get GET /api/campaigns/:id
func (h *CampaignHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// Close POST /api/campaigns/:id/close
func (h *CampaignHandler) Close(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	campaign, err := h.campaigns.CloseCampaign(c.Request.Context(), brandID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// Complete POST /api/campaigns/:id/complete
func (h *CampaignHandler) Complete(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		BidID *string `json:"bid_id"`
	}
	// body is optional: without bid_id this is the batch form
	_ = c.ShouldBindJSON(&req)

	var bidID *uuid.UUID
	if req.BidID != nil {
		parsed, err := uuid.Parse(*req.BidID)
		if err != nil {
			common.RespondAppError(c, apperror.New(apperror.ErrCodeValidation, "bid_id must be a valid UUID"))
			return
		}
		bidID = &parsed
	}

	campaign, err := h.campaigns.CompleteCampaign(c.Request.Context(), brandID, id, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}
