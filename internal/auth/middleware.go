package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys for the resolved identity
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
)

// AnonymousUserID marks a request with no session identity.
const AnonymousUserID = uint(0)

// Middleware attaches the session identity to requests.
type Middleware struct {
	sessions *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(sessions *SessionManager) *Middleware {
	return &Middleware{sessions: sessions}
}

// Handler resolves the session cookie to a user identity and stores it in
// the Gin context. Anonymous requests pass through with AnonymousUserID;
// resolution never fails a request by itself.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, m.sessions.UserID(c.Request))
		c.Set(ContextKeyUsername, m.sessions.Username(c.Request))
		c.Next()
	}
}

// RequireOwner guards /user/:userid routes: the session identity must match
// the user id in the path. Anonymous or mismatched requests get 401 before
// any data access.
func (m *Middleware) RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested, err := strconv.ParseUint(c.Param(param), 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errType": "UNKNOWN"})
			return
		}

		userID := GetUserID(c)
		if userID == AnonymousUserID || userID != uint(requested) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errType": "UNAUTHORIZED"})
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns AnonymousUserID when the request carries no identity.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return AnonymousUserID
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}
