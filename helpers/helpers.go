package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	NotFound         = "Not found"
	ServerError      = "server error"
	MethodNotAllowed = "Method not allowed"
	Unauthorized     = "Unauthorized"
	RequestIDHeader  = "X-Request-Id"
	requestIDKey     = "requestId"
)

// JSONError sets a `{"error": msg}` response and stops the handler chain
func JSONError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Simple404 sets the json not found response used for unknown api routes
func Simple404(c *gin.Context) {
	JSONError(c, http.StatusNotFound, NotFound)
}

// Simple405 sets a json method not allowed response
func Simple405(c *gin.Context) {
	JSONError(c, http.StatusMethodNotAllowed, MethodNotAllowed)
}

// Simple500 sets a quick and easy 500 json response
func Simple500(c *gin.Context) {
	JSONError(c, http.StatusInternalServerError, ServerError)
}

// RequestID tags every request with an id, reusing one sent by an upstream
// proxy when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or an empty string.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
