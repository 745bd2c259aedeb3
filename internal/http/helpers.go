package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wkxuan/booknotes/internal/auth"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns auth.AnonymousUserID when the request carries no identity.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// --- Response Types ---

// Error type codes returned to clients. Credential failures are always
// ErrTypeVague so responses cannot be used for username enumeration.
const (
	ErrTypeCode         = "CODE"     // invitation code rejected
	ErrTypeUsername     = "USERNAME" // username already taken
	ErrTypeVague        = "VAGUE"    // bad username or password, deliberately indistinct
	ErrTypeUnauthorized = "UNAUTHORIZED"
	ErrTypeValidation   = "VALIDATION"
	ErrTypeNotFound     = "NOT_FOUND"
	ErrTypeUnknown      = "UNKNOWN"
)

// ErrorResponse is the standard error payload for all API errors.
type ErrorResponse struct {
	ErrType string `json:"errType"`
	Error   string `json:"error,omitempty"`
}

// SuccessResponse is a standard success payload with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, errType, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{ErrType: errType, Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{ErrType: ErrTypeNotFound, Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 response. The actual
// error is logged but never exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{ErrType: ErrTypeUnknown})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL
// parameters. Responds with a 400 and returns false on bad input.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, ErrTypeValidation, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePageQuery reads the page query parameter, defaulting to 1.
func parsePageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
