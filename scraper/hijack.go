package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// trackingPaths are matched against host+path and blocked on every request.
var trackingPaths = []string{
	"li/track",
	"realtime.www.linkedin.com/realtime",
	"platform.linkedin.com/litms",
	"linkedin.com/sensorCollect",
	"linkedin.com/pixel/tracking",
}

// allowedDomains are the only registrable domains requests may reach.
var allowedDomains = map[string]struct{}{
	"linkedin.com": {},
	"licdn.com":    {},
}

// heavyExtensions are blocked with optimize regardless of resource type.
var heavyExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".css"}

// requestPolicy decides which requests a tab lets through.
type requestPolicy struct {
	optimize bool
	blocked  map[proto.NetworkResourceType]struct{}
}

func newRequestPolicy(blockedTypes []string, optimize bool) *requestPolicy {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return &requestPolicy{optimize: optimize, blocked: blocked}
}

// block reports whether a request to u of type rt must fail.
func (p *requestPolicy) block(u *url.URL, rt proto.NetworkResourceType) bool {
	target := u.Host + u.Path
	for _, path := range trackingPaths {
		if strings.Contains(target, path) {
			return true
		}
	}

	if _, ok := allowedDomains[registrableDomain(u.Hostname())]; !ok {
		return true
	}

	if p.optimize {
		if _, ok := p.blocked[rt]; ok {
			return true
		}
		raw := u.String()
		for _, ext := range heavyExtensions {
			if strings.Contains(raw, ext) {
				return true
			}
		}
	}
	return false
}

// registrableDomain keeps the last two labels of host.
func registrableDomain(host string) string {
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) <= 2 {
		return strings.ToLower(host)
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// setupHijack installs the request policy on the page.
//
// Returns the running HijackRouter so the caller can stop it when the tab
// closes.
func setupHijack(page *rod.Page, blockedTypes []string, optimize bool) *rod.HijackRouter {
	policy := newRequestPolicy(blockedTypes, optimize)
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if policy.block(ctx.Request.URL(), ctx.Request.Type()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It will exit when router.Stop() is called.
	go router.Run()

	return router
}
