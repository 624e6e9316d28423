package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cypherd_wallet_back/pkg/service"
)

type Error struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	logrus.Error(message)
	c.AbortWithStatusJSON(statusCode, Error{Message: message})
}

// serviceError maps the service rejection taxonomy onto HTTP statuses.
// Anything unrecognized is an internal fault of this one request.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrApprovalExpired),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrPriceSlippage),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAddressTaken):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNoWallet):
		newErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logrus.Errorf("internal error: %+v", err)
		newErrorResponse(c, http.StatusInternalServerError, "something went wrong")
	}
}
