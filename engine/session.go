package engine

import (
	"context"

	"github.com/use-agent/jobscout/models"
)

// DefaultSessionCookie is the cookie that carries an authenticated session.
const DefaultSessionCookie = "li_at"

// SessionGuard checks whether the surface still holds an authenticated
// session. It is stateless and cheap enough to call every iteration.
type SessionGuard struct {
	surface Surface
	cookie  string
}

// NewSessionGuard returns a guard looking for the named cookie.
func NewSessionGuard(surface Surface, cookie string) *SessionGuard {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return &SessionGuard{surface: surface, cookie: cookie}
}

// Authenticated reports whether the session cookie is present and non-empty.
func (g *SessionGuard) Authenticated(ctx context.Context) (bool, error) {
	cookies, err := g.surface.Cookies(ctx)
	if err != nil {
		return false, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to read session cookies", err)
	}
	for _, c := range cookies {
		if c != nil && c.Name == g.cookie && c.Value != "" {
			return true, nil
		}
	}
	return false, nil
}
