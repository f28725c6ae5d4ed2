package handler

import (
	"errors"
	"net/http"

	"contapos/internal/logger"
	"contapos/internal/service"
	"contapos/pkg/pagination"
	"contapos/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusOf maps service sentinel errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInactiveUser), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrUnbalancedEntry),
		errors.Is(err, service.ErrPeriodClosed),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrDianNotReady):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Unexpected errors are logged and their text hidden.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		msg = "Internal server error"
	}
	c.JSON(status, response.Error(status, msg))
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, data))
}

func paged(c *gin.Context, p pagination.Params, items interface{}, total int64) {
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, pagination.NewMeta(p, total)))
}
