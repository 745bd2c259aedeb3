package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wkxuan/booknotes/internal/auth"
)

// RouterConfig holds all dependencies needed to construct the router.
type RouterConfig struct {
	BookStore      BookStore
	TagStore       TagStore
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	CSRFSecret     []byte // CSRF protection is skipped when empty
	SecureCookies  bool
}

// NewRouter constructs the Gin engine with all middleware and routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CSRF must run before the session middleware so the session context is
	// layered on top of the CSRF request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	router.Use(cfg.SessionManager.LoadAndSave())
	router.Use(cfg.AuthMiddleware.Handler())

	router.GET("/health", Health)
	router.GET("/", Home)

	authController := NewAuthController(cfg.AuthService, cfg.SessionManager)
	authController.RegisterRoutes(router)

	booksController := NewBooksController(cfg.BookStore, cfg.TagStore)
	userGroup := router.Group("/user/:userid", cfg.AuthMiddleware.RequireOwner("userid"))
	booksController.RegisterRoutes(userGroup)

	return router
}

// Health reports liveness.
// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Home greets anonymous visitors and sends authenticated users to their
// library page.
// GET /
func Home(c *gin.Context) {
	userID := GetUserID(c)
	if userID != auth.AnonymousUserID {
		c.Redirect(http.StatusFound, fmt.Sprintf("/user/%d", userID))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "welcome, please log in",
		"csrfToken": auth.GetCSRFToken(c),
	})
}
