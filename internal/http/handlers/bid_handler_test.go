package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/creatorlink/collab-backend/internal/http/middleware"
)

func TestBidHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BidHandler{bids: nil}
	r.POST("/campaigns/:id/bids", handler.Submit)

	req, _ := http.NewRequest("POST", "/campaigns/bd3e1f05-9d58-4f33-9f9a-1f4e29a1a111/bids", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBidHandler_Get_InvalidBidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	handler := &BidHandler{bids: nil}
	r.GET("/bids/:id", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.MustParse("bd3e1f05-9d58-4f33-9f9a-1f4e29a1a111"))
		handler.Get(c)
	})

	req, _ := http.NewRequest("GET", "/bids/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBidHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BidHandler{bids: nil}
	r.GET("/bids", handler.ListMine)

	req, _ := http.NewRequest("GET", "/bids", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBidHandler_Accept_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BidHandler{bids: nil}
	r.POST("/bids/:id/accept", handler.Accept)

	req, _ := http.NewRequest("POST", "/bids/bd3e1f05-9d58-4f33-9f9a-1f4e29a1a111/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
