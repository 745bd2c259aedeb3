package auth

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/wkxuan/booknotes/internal/config"
	"github.com/wkxuan/booknotes/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
)

// SessionManager wraps scs.SessionManager with application-specific methods.
// Sessions live in process memory only: a restart signs everyone out, which
// is acceptable for this service.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager backed by an
// in-memory store.
func NewSessionManager(cfg config.Auth) *SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = cfg.SessionLifetime

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// SignIn binds the session to a user after successful authentication.
func (sm *SessionManager) SignIn(r *http.Request, user *entities.User) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyUserID, int(user.ID))
	sm.Put(r.Context(), SessionKeyUsername, user.Username)
	return nil
}

// SignOut removes all session data and invalidates the token. Signing out an
// anonymous or already-destroyed session is a no-op.
func (sm *SessionManager) SignOut(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// UserID resolves the session to a user identity. Returns 0 for anonymous,
// unknown or expired sessions; never errors.
func (sm *SessionManager) UserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// Username retrieves the username bound to the session, if any.
func (sm *SessionManager) Username(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

// IsAuthenticated returns true if the request carries a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.UserID(r) != 0
}
