package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wkxuan/booknotes/internal/auth"
	"github.com/wkxuan/booknotes/internal/config"
	"github.com/wkxuan/booknotes/internal/database/books"
	"github.com/wkxuan/booknotes/internal/database/invitations"
	"github.com/wkxuan/booknotes/internal/database/tags"
	"github.com/wkxuan/booknotes/internal/entities"
)

func setupRouter(t *testing.T) (*gin.Engine, func()) {
	router, _, cleanup := setupRouterWithCSRF(t, nil)
	return router, cleanup
}

func setupRouterWithCSRF(t *testing.T, csrfSecret []byte) (*gin.Engine, *gorm.DB, func()) {
	gin.SetMode(gin.TestMode)
	dbPath := "./test_http_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Invitation{},
		&entities.Book{},
		&entities.BookInfo{},
	)
	require.NoError(t, err)

	invitationRepo := invitations.NewRepository(db)
	require.NoError(t, invitationRepo.Seed("WELCOME"))

	authCfg := config.Auth{
		BcryptCost:      4,
		SessionLifetime: time.Hour,
		SecureCookies:   false,
	}
	sessionManager := auth.NewSessionManager(authCfg)

	router := NewRouter(RouterConfig{
		BookStore:      books.NewRepository(db, nil, 10),
		TagStore:       tags.NewRepository(db),
		AuthService:    auth.NewService(db, invitationRepo, authCfg),
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(sessionManager),
		CSRFSecret:     csrfSecret,
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return router, db, cleanup
}

func doJSON(router *gin.Engine, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func signupAndLogin(t *testing.T, router *gin.Engine, username string) (uint, *http.Cookie) {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": username, "password": "hunter2hunter2", "invitationCode": "WELCOME",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/login", gin.H{
		"username": username, "password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID uint `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.UserID)

	return resp.UserID, sessionCookie(t, w)
}

func TestEndToEnd_SignupLoginCreateListDelete(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	userID, cookie := signupAndLogin(t, router, "alice")
	base := fmt.Sprintf("/user/%d", userID)

	w := doJSON(router, http.MethodPost, base+"/books", gin.H{
		"title": "Dune", "rating": 5, "notes": "great", "tags": "fiction #sci-fi",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, base, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Books []entities.Book `json:"books"`
		Tags  []tags.TagCount `json:"tags"`
		Total int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Dune", page.Books[0].Title)
	assert.Equal(t, 5, page.Books[0].Rating)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Tags, 2)
	assert.Equal(t, tags.TagCount{Tag: "fiction", Count: 1}, page.Tags[0])

	bookID := page.Books[0].ID
	w = doJSON(router, http.MethodDelete, fmt.Sprintf("%s/books/%d", base, bookID), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, base, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Empty(t, page.Books)
	assert.Equal(t, int64(0), page.Total)
}

func TestSignup_ErrorTypes(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	w := doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": "alice", "password": "pw", "invitationCode": "WRONG",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errType":"CODE"}`, w.Body.String())

	w = doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": "alice", "password": "pw", "invitationCode": "WELCOME",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": "alice", "password": "pw", "invitationCode": "WELCOME",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errType":"USERNAME"}`, w.Body.String())
}

func TestLogin_VagueOnAnyCredentialFailure(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	w := doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": "alice", "password": "hunter2hunter2", "invitationCode": "WELCOME",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown username and wrong password produce identical responses
	unknown := doJSON(router, http.MethodPost, "/login", gin.H{
		"username": "mallory", "password": "hunter2hunter2",
	}, nil)
	wrong := doJSON(router, http.MethodPost, "/login", gin.H{
		"username": "alice", "password": "wrong",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.JSONEq(t, `{"errType":"VAGUE"}`, unknown.Body.String())
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestUserPage_OwnershipEnforced(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	// Anonymous
	w := doJSON(router, http.MethodGet, "/user/1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	aliceID, aliceCookie := signupAndLogin(t, router, "alice")
	bobID, _ := signupAndLogin(t, router, "bob")

	// Alice cannot read Bob's page nor write into his library
	w = doJSON(router, http.MethodGet, fmt.Sprintf("/user/%d", bobID), nil, aliceCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"errType":"UNAUTHORIZED"}`, w.Body.String())

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/user/%d/books", bobID), gin.H{
		"title": "Planted", "notes": "n",
	}, aliceCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The rejected write really mutated nothing
	w = doJSON(router, http.MethodGet, fmt.Sprintf("/user/%d", aliceID), nil, aliceCookie)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Zero(t, page.Total)
}

func TestLogout_RevokesSessionAndIsIdempotent(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	// Logging out without a session is fine
	w := doJSON(router, http.MethodPost, "/logout", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	userID, cookie := signupAndLogin(t, router, "alice")
	base := fmt.Sprintf("/user/%d", userID)

	w = doJSON(router, http.MethodGet, base, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// The revoked token now resolves to anonymous
	w = doJSON(router, http.MethodGet, base, nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Revoking twice is a no-op
	w = doJSON(router, http.MethodPost, "/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateBook_MissingTitle(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	userID, cookie := signupAndLogin(t, router, "alice")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/user/%d/books", userID), gin.H{
		"notes": "no title here",
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditBook_NotFound(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	userID, cookie := signupAndLogin(t, router, "alice")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/user/%d/books/999", userID), gin.H{
		"title": "Ghost", "notes": "n",
	}, cookie)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHome(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	w := doJSON(router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	userID, cookie := signupAndLogin(t, router, "alice")
	w = doJSON(router, http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/user/%d", userID), w.Header().Get("Location"))
}

func TestRouter_CSRFBlocksTokenlessWrites(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	router, db, cleanup := setupRouterWithCSRF(t, secret)
	defer cleanup()

	w := doJSON(router, http.MethodPost, "/signup", gin.H{
		"username": "alice", "password": "hunter2hunter2", "invitationCode": "WELCOME",
	}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"errType":"CSRF"}`, w.Body.String())

	// The rejected request must never reach the signup handler
	var users int64
	db.Model(&entities.User{}).Count(&users)
	assert.Zero(t, users)

	// Safe methods pass through
	w = doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CSRFTokenRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	router, db, cleanup := setupRouterWithCSRF(t, secret)
	defer cleanup()

	// The welcome payload hands out the token; the matching cookie comes with it
	home := doJSON(router, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, home.Code)

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(home.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.CSRFToken)

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(gin.H{
		"username": "alice", "password": "hunter2hunter2", "invitationCode": "WELCOME",
	})
	req := httptest.NewRequest(http.MethodPost, "/signup", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.CSRFTokenHeader, payload.CSRFToken)
	for _, c := range home.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var users int64
	db.Model(&entities.User{}).Count(&users)
	assert.Equal(t, int64(1), users)
}

func TestHealth(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
