package www

import (
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"hairops/store"
)

const sessionName = "hairops-session"

// Capabilities checked by the protected routes. The single admin role holds
// all of them today; keeping the policy behind Authorizer means finer roles
// can be introduced without touching handlers.
const (
	CapManageEntities = "entities:manage"
	CapManageJobs     = "jobs:manage"
	CapViewAudit      = "audit:view"
)

// Authorizer decides whether a request may exercise a capability, and
// identifies the acting user for the audit trail.
type Authorizer interface {
	Allow(r *http.Request, capability string) bool
	Actor(r *http.Request) string
}

// sessionAuthorizer grants every capability to any logged-in session.
type sessionAuthorizer struct {
	sessions *sessions.CookieStore
}

func (a *sessionAuthorizer) Allow(r *http.Request, _ string) bool {
	session, err := a.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

func (a *sessionAuthorizer) Actor(r *http.Request) string {
	session, err := a.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := session.Values["username"].(string)
	return username
}

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "hairops-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false // deployed on plain HTTP inside the warehouse LAN
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) requireCap(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.auth.Allow(r, capability) {
				h.jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handlers) getUsername(r *http.Request) string {
	return h.auth.Actor(r)
}

func (h *Handlers) ensureDefaultAdmin(db *store.DB) {
	exists, err := db.AdminUserExists()
	if err != nil || exists {
		return
	}
	hash, err := hashPassword("admin")
	if err != nil {
		return
	}
	db.CreateAdminUser("admin", hash)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &creds); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.engine.DB().GetAdminUser(creds.Username)
	if err != nil || !checkPassword(user.PasswordHash, creds.Password) {
		h.jsonError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = creds.Username
	if err := session.Save(r, w); err != nil {
		h.jsonError(w, "session error", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"username": creds.Username})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	h.jsonOK(w, map[string]string{"status": "logged out"})
}
