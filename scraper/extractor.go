package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/engine"
)

// Site selectors for the authenticated job search.
const (
	selContainer    = ".jobs-search-results-list"
	selChatPanel    = ".msg-overlay-list-bubble"
	selJobs         = "div.job-card-container"
	selLink         = "a.job-card-container__link"
	selApplyBtn     = `button.jobs-apply-button[role="link"]`
	selTitle        = ".artdeco-entity-lockup__title"
	selPlace        = ".artdeco-entity-lockup__caption"
	selDate         = "time[datetime]"
	selDateAgo      = ".jobs-unified-top-card__posted-date"
	selDescription  = ".jobs-description"
	selDetailsPanel = ".jobs-search__job-details--container"
	selInsights     = "[class=jobs-unified-top-card__job-insight]"
	selPrivacyBtn   = "button.artdeco-global-alert__action"
)

var selCompany = []string{
	".job-card-container__company-name",
	".job-card-container__primary-description",
}

// WaitForCollection waits for the results container.
func (t *rodTab) WaitForCollection(ctx context.Context, timeout time.Duration) error {
	if _, err := t.page.Context(ctx).Timeout(timeout).Element(selContainer); err != nil {
		return categorizeError(err, "results container not found")
	}
	return nil
}

// CountItems returns the number of rendered job cards.
func (t *rodTab) CountItems(ctx context.Context) (int, error) {
	res, err := t.eval(ctx, `(sel) => document.querySelectorAll(sel).length`, selJobs)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// listingJS clicks the card at index into view and reads its fields.
const listingJS = `(jobsSel, linkSel, titleSel, companySels, placeSel, dateSel, index) => {
	const job = document.querySelectorAll(jobsSel)[index];
	if (!job) throw new Error("job card " + index + " not found");
	const link = job.querySelector(linkSel);
	if (!link) throw new Error("job card " + index + " has no link");

	link.scrollIntoView();
	link.click();

	const origin = window.location.protocol + "//" + window.location.hostname;
	const text = (el) => el ? (el.innerText || "").trim() : "";

	let company = "", companyLink = "";
	for (const sel of companySels) {
		const el = job.querySelector(sel);
		if (el) {
			company = text(el);
			const href = el.getAttribute("href");
			companyLink = href ? origin + href : "";
		}
	}

	const img = job.querySelector("img");
	const date = job.querySelector(dateSel);
	const footer = Array.from(job.querySelectorAll("li")).map(e => (e.innerText || "").trim());

	return {
		jobId: job.getAttribute("data-job-id") || "",
		link: origin + (link.getAttribute("href") || ""),
		title: text(job.querySelector(titleSel)),
		company: company,
		companyLink: companyLink,
		companyImgLink: img ? (img.getAttribute("src") || "") : "",
		place: text(job.querySelector(placeSel)),
		date: date ? (date.getAttribute("datetime") || "") : "",
		promoted: footer.includes("Promoted"),
		easyApply: footer.some(e => e.includes("Easy Apply")),
	};
}`

// Listing selects the card at index and reads its card-level fields.
func (t *rodTab) Listing(ctx context.Context, index int) (*engine.Listing, error) {
	res, err := t.eval(ctx, listingJS,
		selJobs, selLink, selTitle, selCompany, selPlace, selDate, index)
	if err != nil {
		return nil, err
	}
	var l engine.Listing
	if err := res.Value.Unmarshal(&l); err != nil {
		return nil, fmt.Errorf("decode listing %d: %w", index, err)
	}
	return &l, nil
}

const detailReadyJS = `(jobId, panelSel, descSel) => {
	const panel = document.querySelector(panelSel);
	if (!panel) return false;
	const desc = document.querySelector(descSel);
	if (!desc) return false;
	return !!(panel.innerHTML.includes(jobId) && desc.innerText);
}`

// DetailReady reports whether the detail panel shows jobID.
func (t *rodTab) DetailReady(ctx context.Context, jobID string) (bool, error) {
	res, err := t.eval(ctx, detailReadyJS, jobID, selDetailsPanel, selDescription)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

const detailsJS = `(descSel, agoSel, insightsSel) => {
	const desc = document.querySelector(descSel);
	if (!desc) throw new Error("description not found");
	const ago = document.querySelector(agoSel);
	return {
		text: desc.innerText || "",
		html: desc.outerHTML,
		ago: ago ? (ago.innerText || "").trim() : "",
		insights: Array.from(document.querySelectorAll(insightsSel)).map(e => e.textContent || ""),
	};
}`

type detailsResult struct {
	Text     string   `json:"text"`
	HTML     string   `json:"html"`
	Ago      string   `json:"ago"`
	Insights []string `json:"insights"`
}

// Details reads the detail panel. descriptionFn, when set, replaces the
// built-in plain description.
func (t *rodTab) Details(ctx context.Context, descriptionFn string) (*engine.Details, error) {
	res, err := t.eval(ctx, detailsJS, selDescription, selDateAgo, selInsights)
	if err != nil {
		return nil, err
	}
	var r detailsResult
	if err := res.Value.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}

	d := &engine.Details{
		Description:     r.Text,
		DescriptionHTML: r.HTML,
		PostedAgo:       r.Ago,
		Insights:        make([]string, 0, len(r.Insights)),
	}
	for _, in := range r.Insights {
		d.Insights = append(d.Insights, cleaner.NormalizeText(in))
	}

	if descriptionFn != "" {
		custom, err := t.eval(ctx, descriptionFn)
		if err != nil {
			return nil, fmt.Errorf("custom description function: %w", err)
		}
		d.Description = custom.Value.Str()
	}

	if t.cleaner != nil {
		cleaned, err := t.cleaner.Clean(r.HTML)
		if err != nil {
			t.log.Debug("description markdown conversion failed", "error", err)
		} else {
			d.DescriptionMarkdown = cleaned.Markdown
			if d.Description == "" {
				d.Description = cleaned.Text
			}
		}
	}
	return d, nil
}

// errNoApplyButton is returned when the listing applies on-site.
var errNoApplyButton = errors.New("apply button not found")
