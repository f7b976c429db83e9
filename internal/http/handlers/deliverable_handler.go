package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/creatorlink/collab-backend/internal/http/handlers/common"
	"github.com/creatorlink/collab-backend/internal/service"
	"github.com/creatorlink/collab-backend/internal/storage"
)

// Accepted artifact types: campaign content plus preview documents.
var allowedArtifactMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"application/pdf": true,
	"application/zip": true,
}

var allowedArtifactExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".pdf":  true,
	".zip":  true,
}

type DeliverableHandler struct {
	reviews *service.ReviewService
	storage *storage.ArtifactStorage
}

func NewDeliverableHandler(reviews *service.ReviewService, storage *storage.ArtifactStorage) *DeliverableHandler {
	return &DeliverableHandler{reviews: reviews, storage: storage}
}

// Submit POST /api/bids/:id/deliverables
func (h *DeliverableHandler) Submit(c *gin.Context) {
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
		Platform    string  `json:"platform" binding:"required"`
		ContentType string  `json:"content_type" binding:"required"`
		ArtifactURL string  `json:"artifact_url" binding:"required"`
		Description *string `json:"description"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	deliverable, err := h.reviews.SubmitDeliverable(c.Request.Context(), influencerID, bidID, service.SubmitDeliverableInput{
		Platform:    req.Platform,
		ContentType: req.ContentType,
		ArtifactURL: req.ArtifactURL,
		Description: req.Description,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deliverable)
}

// List GET /api/bids/:id/deliverables
func (h *DeliverableHandler) List(c *gin.Context) {
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

	deliverables, err := h.reviews.ListDeliverables(c.Request.Context(), userID, role, bidID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deliverables": deliverables})
}

// Approve POST /api/deliverables/:id/approve
func (h *DeliverableHandler) Approve(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	deliverableID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	res, err := h.reviews.ApproveDeliverable(c.Request.Context(), brandID, deliverableID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deliverable": res.Deliverable,
		"bid":         res.Bid,
		"released":    res.Released,
	})
}

// Revise POST /api/deliverables/:id/revise
func (h *DeliverableHandler) Revise(c *gin.Context) {
	brandID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	deliverableID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Feedback string `json:"feedback" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	res, err := h.reviews.RequestRevision(c.Request.Context(), brandID, deliverableID, req.Feedback)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deliverable": res.Deliverable,
		"bid":         res.Bid,
	})
}

// UploadArtifact POST /api/artifacts
// Stores a content file and returns the URL to reference in a deliverable.
func (h *DeliverableHandler) UploadArtifact(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field file is required"})
		return
	}
	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must not be empty"})
		return
	}
	if file.Size > h.storage.MaxUploadBytes() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds the %d byte limit", h.storage.MaxUploadBytes())})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedArtifactExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file extension"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	// real type is decided by magic bytes, not the file name
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown || !allowedArtifactMimeTypes[kind.MIME.Value] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rewind file"})
			return
		}
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"artifact_url": "/static/artifacts/" + filepath.ToSlash(relativePath),
		"file_type":    kind.MIME.Value,
		"file_size":    size,
	})
}
