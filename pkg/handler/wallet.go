package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/middleware"
)

func (h *Handler) CreateWallet(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var input models.CreateWalletInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := h.service.Wallet.CreateWallet(userID, input.Address)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) MyWallet(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	wallet, err := h.service.Wallet.MyWallet(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	items, err := h.service.Wallet.History(userID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if items == nil {
		items = []models.Transaction{}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{Items: items})
}
