package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/models"
)

// rodTab implements Tab on a rod page.
type rodTab struct {
	page       *rod.Page
	router     *rod.HijackRouter
	stopWatch  context.CancelFunc
	cleaner    *cleaner.Cleaner
	navTimeout time.Duration
	log        *slog.Logger
}

// Navigate loads url and waits for the load event.
func (t *rodTab) Navigate(ctx context.Context, url string) error {
	if t.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.navTimeout)
		defer cancel()
	}
	p := t.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "page did not finish loading")
	}
	return nil
}

// Cookies returns the cookies visible to the current document.
func (t *rodTab) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	cookies, err := t.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, categorizeError(err, "failed to read cookies")
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out, nil
}

// SetCookie installs c in the tab's browser context.
func (t *rodTab) SetCookie(ctx context.Context, c *http.Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	err := t.page.Context(ctx).SetCookies([]*proto.NetworkCookieParam{{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
	}})
	if err != nil {
		return categorizeError(err, "failed to set session cookie")
	}
	return nil
}

// Close stops request interception and closes the tab.
func (t *rodTab) Close() error {
	if t.router != nil {
		_ = t.router.Stop()
	}
	if t.stopWatch != nil {
		t.stopWatch()
	}
	if err := t.page.Close(); err != nil {
		return categorizeError(err, "failed to close tab")
	}
	return nil
}

// eval runs js bound to ctx.
func (t *rodTab) eval(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	res, err := t.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, categorizeError(err, "script evaluation failed")
	}
	return res, nil
}

// categorizeError wraps raw errors into typed ScrapeErrors. A closed target
// or connection is reported as a browser crash so the run stops.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case isGone(err):
		return models.NewScrapeError(models.ErrCodeBrowserCrash, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

var goneMarkers = []string{
	"target closed",
	"no target with given id",
	"session with given id not found",
	"use of closed network connection",
	"websocket: close",
}

func isGone(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range goneMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
