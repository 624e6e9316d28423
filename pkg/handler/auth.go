package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/middleware"
)

func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.service.Authorization.Register(input.Email, input.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.service.Authorization.Login(input.Email, input.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, err := h.service.Authorization.UserByID(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}
