package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/ysmood/gson"
)

// Browser opens tabs for runs. One Browser serves every run of a Scraper.
type Browser interface {
	NewTab(ctx context.Context, opts TabOptions) (Tab, error)
	Close() error
}

// Tab is a single render surface with the site extractor bound to it.
type Tab interface {
	engine.Surface
	engine.Extractor
	Close() error
}

// TabOptions configures a tab for one run.
type TabOptions struct {
	// Optimize blocks heavy resources.
	Optimize bool

	// Query and Location tag the tab's log lines.
	Query, Location string
}

// LaunchFunc starts or connects to a browser.
type LaunchFunc func(ctx context.Context, browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (Browser, error)

// rodBrowser is the go-rod Browser.
type rodBrowser struct {
	root     *rod.Browser // connection
	context  *rod.Browser // incognito context, or root for remote browsers
	conn     io.Closer    // devtools websocket
	launcher *launcher.Launcher
	remote   bool
	cleaner  *cleaner.Cleaner

	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
}

// LaunchRod launches a local Chromium, or connects to RemoteURL when set.
func LaunchRod(ctx context.Context, browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (Browser, error) {
	b := &rodBrowser{
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		cleaner:    cleaner.New(scraperCfg.HomeURL),
	}

	controlURL := browserCfg.RemoteURL
	if controlURL != "" {
		b.remote = true
		slog.Info("connecting to remote browser", "controlURL", controlURL)
	} else {
		l := launcher.New().
			Context(ctx).
			Headless(browserCfg.Headless).
			NoSandbox(browserCfg.NoSandbox)

		if browserCfg.BrowserBin != "" {
			l = l.Bin(browserCfg.BrowserBin)
		}
		if browserCfg.DefaultProxy != "" {
			l = l.Proxy(browserCfg.DefaultProxy)
		}

		// ── Stealth flags ────────────────────────────────────────────────
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-ipc-flooding-protection"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))
		l.Set(flags.Flag("lang"), "en-GB")

		u, err := l.Launch()
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		}
		slog.Info("browser launched", "controlURL", u)
		controlURL = u
		b.launcher = l
	}

	// Own the websocket so Close can drop a remote connection.
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		b.cleanupLauncher()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	b.conn = ws

	root := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if browserCfg.SlowMotion > 0 {
		root = root.SlowMotion(browserCfg.SlowMotion)
	}
	if err := root.Connect(); err != nil {
		_ = ws.Close()
		b.cleanupLauncher()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	// Detach from the init context: the browser outlives the first Run.
	b.root = root.Context(context.Background())

	if b.remote {
		b.context = b.root
	} else {
		incognito, err := b.root.Incognito()
		if err != nil {
			_ = b.root.Close()
			b.cleanupLauncher()
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create incognito context", err)
		}
		b.context = incognito
	}
	return b, nil
}

// NewTab opens a tab prepared for one run: stealth script, bypassed CSP,
// active lifecycle state, random user agent and request interception.
func (b *rodBrowser) NewTab(ctx context.Context, opts TabOptions) (Tab, error) {
	page, err := b.context.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, categorizeError(err, "failed to open tab")
	}
	log := slog.With("query", opts.Query, "location", opts.Location)

	// Stealth and the user agent only take effect for navigations that
	// happen after they are installed.
	if b.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			log.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(page); err != nil {
		log.Debug("failed to bypass CSP", "error", err)
	}
	if err := (proto.PageEnable{}).Call(page); err != nil {
		log.Debug("failed to enable page domain", "error", err)
	}
	if err := (proto.PageSetWebLifecycleState{State: proto.PageSetWebLifecycleStateStateActive}).Call(page); err != nil {
		log.Debug("failed to set lifecycle state", "error", err)
	}
	if !b.remote {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: randomUserAgent()}); err != nil {
			log.Debug("failed to set user agent", "error", err)
		}
	}

	if lang := b.browserCfg.AcceptLanguage; lang != "" {
		headers := proto.NetworkHeaders{"Accept-Language": gson.New(lang)}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
			log.Debug("failed to set extra headers", "error", err)
		}
	}

	router := setupHijack(page, b.scraperCfg.BlockedResourceTypes, opts.Optimize)

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		log.Debug("failed to enable network domain", "error", err)
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go page.Context(watchCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		logResponse(log, e.Response.Status, e.Response.URL)
	})()

	return &rodTab{
		page:       page,
		router:     router,
		stopWatch:  stopWatch,
		cleaner:    b.cleaner,
		navTimeout: b.scraperCfg.NavigationTimeout,
		log:        log,
	}, nil
}

// logResponse reports failed document and XHR responses. A 429 means the
// site is throttling the session.
func logResponse(log *slog.Logger, status int, url string) {
	switch {
	case status == http.StatusTooManyRequests:
		log.Warn("too many requests, consider raising slow motion", "status", status, "url", url)
	case status >= http.StatusBadRequest:
		log.Debug("request failed", "status", status, "url", url)
	}
}

// Close kills a launched browser. Remote browsers are left running and only
// the devtools connection is dropped; their tabs were already closed after
// each run.
func (b *rodBrowser) Close() error {
	if b.remote {
		if b.conn == nil {
			return nil
		}
		if err := b.conn.Close(); err != nil {
			return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to disconnect from browser", err)
		}
		return nil
	}
	err := b.root.Close()
	b.cleanupLauncher()
	if err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to close browser", err)
	}
	return nil
}

func (b *rodBrowser) cleanupLauncher() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
