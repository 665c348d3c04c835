package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/espresso-self/internal/auth"
)

// CookieName is the cookie that carries the signed session token.
const CookieName = "espresso_session"

// contextKey is unexported so only this package can read or write the
// session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

// Manager ties the session Store to HTTP: it issues and clears the session
// cookie and resolves it back into a Session on each request.
type Manager struct {
	store  Store
	tokens *auth.TokenService
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager. Sessions live as long as the tokens the
// TokenService issues. secure sets the Secure flag on the cookie and should
// be on whenever the site is served over HTTPS.
func NewManager(store Store, tokens *auth.TokenService, secure bool, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		tokens: tokens,
		secure: secure,
		logger: logger,
		now:    time.Now,
	}
}

// Start logs username in: it creates a session record and sets the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, username string) (*Session, error) {
	now := m.now()
	ttl := m.tokens.TTL()

	s := &Session{
		ID:        xid.New().String(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}

	token, err := m.tokens.Generate(s.ID)
	if err != nil {
		return nil, fmt.Errorf("session: signing cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return s, nil
}

// End logs the request's session out. The cookie is always expired, even
// when the request carried no valid session.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	return m.store.Delete(r.Context(), id)
}

// Load is a middleware that resolves the session cookie, if any, and puts
// the Session into the request context. It never rejects a request: an
// absent, forged or expired cookie just leaves the request anonymous.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := m.resolve(r); s != nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// Require is a middleware for pages that need a logged-in user. Anonymous
// requests are redirected to the login page. It must run after Load.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the session Load attached to ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// Username returns the logged-in username, or "" for anonymous requests.
func Username(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Username
	}
	return ""
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func (m *Manager) resolve(r *http.Request) *Session {
	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}

	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error("session lookup failed",
				slog.String("session", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	if s.Expired(m.now()) {
		return nil
	}
	return s
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return m.tokens.Validate(cookie.Value)
}
