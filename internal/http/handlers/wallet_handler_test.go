package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/creatorlink/collab-backend/internal/http/middleware"
)

func TestWalletHandler_GetWallet_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{withdrawals: nil}
	r.GET("/wallet", handler.GetWallet)

	req, _ := http.NewRequest("GET", "/wallet", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_RequestWithdrawal_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{withdrawals: nil}
	r.POST("/withdrawals", handler.RequestWithdrawal)

	req, _ := http.NewRequest("POST", "/withdrawals", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_Process_InvalidWithdrawalID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	handler := &WalletHandler{withdrawals: nil}
	r.POST("/withdrawals/:id/process", handler.Process)

	req, _ := http.NewRequest("POST", "/withdrawals/not-a-uuid/process", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_GetLedger_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{withdrawals: nil}
	r.GET("/wallet/ledger", handler.GetLedger)

	req, _ := http.NewRequest("GET", "/wallet/ledger", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
