// internal/pkg/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error aborts the chain and sends a failure response. An optional data value
// carries details such as field violations.
func Error(c *gin.Context, code int, message string, err error, data ...any) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error, details ...any) {
	Error(c, http.StatusBadRequest, message, err, details...)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message, nil)
}

// InternalError sends a 500 response. The cause is not echoed to the client.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message, nil)
}
