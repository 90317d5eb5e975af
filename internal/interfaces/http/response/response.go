// Package response renders the domain error taxonomy onto HTTP responses
// for the small admin/status surface (SPEC_FULL.md §4.8).
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response, mapping the domain error Kind onto an
// HTTP status (an AppError has no status of its own — the core never talks
// HTTP — so this is the one place that translation happens).
func Error(c *gin.Context, err error) {
	kind := domainerrors.KindOf(err)
	c.JSON(statusFor(kind), gin.H{
		"code":    kind.String(),
		"message": err.Error(),
	})
}

func statusFor(kind domainerrors.Kind) int {
	switch kind {
	case domainerrors.KindValidation:
		return http.StatusBadRequest
	case domainerrors.KindNotFound:
		return http.StatusNotFound
	case domainerrors.KindConflict:
		return http.StatusConflict
	case domainerrors.KindExternalAPI:
		return http.StatusBadGateway
	case domainerrors.KindInternalDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorWithError sends an error response with an explicit status and
// message, for the rare case the caller already knows the HTTP status.
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
