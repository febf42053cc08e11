package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/qtrack-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code          int    `json:"code"`
	Message       string `json:"message"`
	CurrentStatus string `json:"current_status,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an application error to an HTTP response.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	apiErr := &Error{
		Code:    int(errors.ErrInternal),
		Message: err.Error(),
	}

	if appErr, ok := err.(*errors.AppError); ok {
		apiErr.Code = int(appErr.Code)
		apiErr.Message = appErr.Message
		apiErr.CurrentStatus = appErr.CurrentStatus
		status = httpStatus(appErr.Code)
	}

	c.JSON(status, Response{
		Success: false,
		Error:   apiErr,
	})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest, errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrIllegalTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
