package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-ledger/internal/application/service"
)

const internalErrorMessage = "internal server error"

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case service.IsValidation(err):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case service.IsInvalidState(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the response envelope. Internal errors are logged and
// their message is only exposed when gin runs in debug mode.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxKeyRequestID),
			"error", err)
		if !gin.IsDebugging() {
			message = internalErrorMessage
		}
	}

	c.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}
