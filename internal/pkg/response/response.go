package response

import (
	"net/http"

	"lostfound/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func CustomError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError converts any service error into the JSON envelope.
// Unknown errors are reported as 500 and attached to the gin context for logging.
func FromError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		_ = c.Error(err)
		CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if e.Kind == apperr.KindIO {
		_ = c.Error(err)
	}
	if e.Details != nil {
		ErrorWithDetails(c, apperr.HTTPStatus(e.Kind), e.Code, e.Message, e.Details)
		return
	}
	CustomError(c, apperr.HTTPStatus(e.Kind), e.Code, e.Message)
}
