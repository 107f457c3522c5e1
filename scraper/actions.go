package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/jobscout/engine"
)

const hideChatJS = `(sel) => {
	const el = document.querySelector(sel);
	if (el) el.style.display = "none";
}`

const acceptCookiesJS = `() => {
	const btn = Array.from(document.querySelectorAll("button"))
		.find(e => (e.innerText || "").includes("Accept cookies"));
	if (btn) btn.click();
}`

const acceptPrivacyJS = `(sel) => {
	const btn = Array.from(document.querySelectorAll(sel))
		.find(e => e.innerText === "Accept");
	if (btn) btn.click();
}`

// DismissOverlays hides the chat panel and accepts the cookie and privacy
// banners. Each step is attempted even when a previous one failed.
func (t *rodTab) DismissOverlays(ctx context.Context) error {
	var errs []error
	if _, err := t.eval(ctx, hideChatJS, selChatPanel); err != nil {
		errs = append(errs, fmt.Errorf("hide chat panel: %w", err))
	}
	if _, err := t.eval(ctx, acceptCookiesJS); err != nil {
		errs = append(errs, fmt.Errorf("accept cookies: %w", err))
	}
	if _, err := t.eval(ctx, acceptPrivacyJS, selPrivacyBtn); err != nil {
		errs = append(errs, fmt.Errorf("accept privacy: %w", err))
	}
	return errors.Join(errs...)
}

const clickApplyJS = `(sel) => {
	const btn = document.querySelector(sel);
	if (!btn) return false;
	btn.click();
	return true;
}`

// ApplyLink clicks the external apply button and captures the URL of the
// page target it opens. The new target is closed once its URL is known.
func (t *rodTab) ApplyLink(ctx context.Context, cfg engine.PollConfig) (string, error) {
	info, err := t.page.Context(ctx).Info()
	if err != nil {
		return "", categorizeError(err, "failed to read current url")
	}
	current := info.URL

	res, err := t.eval(ctx, clickApplyJS, selApplyBtn)
	if err != nil {
		return "", err
	}
	if !res.Value.Bool() {
		return "", errNoApplyButton
	}

	return engine.Poll(ctx, cfg, "apply link", func(ctx context.Context) (string, bool, error) {
		p := t.page.Context(ctx)
		targets, err := proto.TargetGetTargets{}.Call(p)
		if err != nil {
			return "", false, err
		}
		for _, ti := range targets.TargetInfos {
			if ti.TargetID == t.page.TargetID || string(ti.Type) != "page" {
				continue
			}
			if ti.URL != "" && ti.URL != "about:blank" && ti.URL != current {
				if _, err := (proto.TargetCloseTarget{TargetID: ti.TargetID}).Call(p); err != nil {
					t.log.Debug("failed to close apply target", "error", err)
				}
				return ti.URL, true, nil
			}
		}
		return "", false, nil
	})
}
