package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wkxuan/booknotes/internal/auth"
)

// AuthController handles signup, login and logout.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *auth.Service, sessions *auth.SessionManager) *AuthController {
	return &AuthController{service: service, sessions: sessions}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", ac.Signup)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
}

type signupRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitationCode"`
}

// Signup creates a new account gated by an invitation code.
// POST /signup
func (ac *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrTypeUnknown, "invalid request body")
		return
	}

	_, err := ac.service.Register(req.Username, req.Password, req.InvitationCode)
	switch {
	case err == nil:
		respondSuccess(c, "account created")
	case errors.Is(err, auth.ErrInvalidInvitation):
		respondBadRequest(c, ErrTypeCode, "")
	case errors.Is(err, auth.ErrUserExists):
		respondBadRequest(c, ErrTypeUsername, "")
	case errors.Is(err, auth.ErrUsernameRequired), errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, ErrTypeUnknown, err.Error())
	default:
		respondInternalError(c, err, "signup")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and binds a session to the caller. Any
// credential failure comes back as the same vague 401.
// POST /login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrTypeUnknown, "invalid request body")
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{ErrType: ErrTypeVague})
			return
		}
		respondInternalError(c, err, "login")
		return
	}

	if err := ac.sessions.SignIn(c.Request, user); err != nil {
		respondInternalError(c, err, "create session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":    user.ID,
		"csrfToken": auth.GetCSRFToken(c),
	})
}

// Logout destroys the session. Always succeeds, also for anonymous callers.
// POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessions.SignOut(c.Request); err != nil {
		// Session was already gone; logout is idempotent
		respondSuccess(c, "logged out")
		return
	}
	respondSuccess(c, "logged out")
}
