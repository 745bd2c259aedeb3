package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wkxuan/booknotes/internal/auth"
	"github.com/wkxuan/booknotes/internal/config"
	"github.com/wkxuan/booknotes/internal/covers"
	"github.com/wkxuan/booknotes/internal/database"
	"github.com/wkxuan/booknotes/internal/database/books"
	"github.com/wkxuan/booknotes/internal/database/invitations"
	"github.com/wkxuan/booknotes/internal/database/tags"
	http_controllers "github.com/wkxuan/booknotes/internal/http"
	"github.com/wkxuan/booknotes/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting BookNotes v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	invitationRepo := invitations.NewRepository(db.DB)
	if cfg.Invitations.Codes != "" {
		if err := invitationRepo.Seed(cfg.Invitations.Codes); err != nil {
			log.Fatalf("Failed to seed invitation codes: %v", err)
		}
	}

	coverResolver := covers.NewResolver(cfg.Covers.BaseURL, cfg.Covers.Timeout, cfg.Covers.ProbeInterval)
	bookRepo := books.NewRepository(db.DB, coverResolver, cfg.Books.PageSize)
	tagRepo := tags.NewRepository(db.DB)

	authService := auth.NewService(db.DB, invitationRepo, cfg.Auth)
	sessionManager := auth.NewSessionManager(cfg.Auth)
	authMiddleware := auth.NewMiddleware(sessionManager)

	csrfSecret := []byte(cfg.Auth.CSRFSecret)
	if len(csrfSecret) == 0 {
		secret, err := auth.GenerateCSRFSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated CSRF secret (set AUTH_CSRF_SECRET to persist)")
	}

	// Background cover refresh for books saved before their cover existed
	var refresher *tasks.CoverRefresher
	var refresherCancel context.CancelFunc
	if cfg.Covers.RefreshEnabled {
		refresher = tasks.NewCoverRefresher(db.DB, coverResolver)
		var refreshCtx context.Context
		refreshCtx, refresherCancel = context.WithCancel(context.Background())
		if err := refresher.Start(refreshCtx, cfg.Covers.RefreshSchedule); err != nil {
			log.Fatalf("Failed to start cover refresh scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		BookStore:      bookRepo,
		TagStore:       tagRepo,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if refresher != nil {
			refresher.Stop()
			refresherCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
