package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/middleware"
)

func (h *Handler) PrepareTransfer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var input models.PrepareTransferInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Transfer.Prepare(c.Request.Context(), userID, input)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ExecuteTransfer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var input models.ExecuteTransferInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Transfer.Execute(c.Request.Context(), userID, input); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
