// Package engine drives one authenticated listing search from navigation to
// pagination exhaustion: readiness polling, session checks, per-item
// extraction with failure isolation, metrics and event delivery.
package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/use-agent/jobscout/models"
)

// Surface is the render-surface capability set the engine navigates with.
// Implementations are not safe for concurrent navigation.
type Surface interface {
	// Navigate loads url and returns once the document has loaded.
	Navigate(ctx context.Context, url string) error

	// Cookies returns the session cookies visible to the current document.
	Cookies(ctx context.Context) ([]*http.Cookie, error)

	// SetCookie installs a session cookie.
	SetCookie(ctx context.Context, c *http.Cookie) error
}

// Extractor reads listing data from the current document. This is where
// site-specific selectors live.
type Extractor interface {
	// WaitForCollection blocks until the item collection container is
	// rendered or timeout elapses.
	WaitForCollection(ctx context.Context, timeout time.Duration) error

	// CountItems returns the number of item cards currently rendered.
	CountItems(ctx context.Context) (int, error)

	// DismissOverlays hides chat panels and accepts consent prompts.
	// Every target is best-effort; the returned error joins the failures.
	DismissOverlays(ctx context.Context) error

	// Listing selects the card at index and reads its listing-level fields.
	Listing(ctx context.Context, index int) (*Listing, error)

	// DetailReady reports whether the detail panel shows jobID with a
	// non-empty description.
	DetailReady(ctx context.Context, jobID string) (bool, error)

	// Details reads the detail panel of the selected item. descriptionFn,
	// when set, is evaluated in the page to produce the plain description.
	Details(ctx context.Context, descriptionFn string) (*Details, error)

	// ApplyLink clicks the external apply button and returns the
	// destination opened in a new target.
	ApplyLink(ctx context.Context, timeout PollConfig) (string, error)
}

// Listing is the card-level part of a job.
type Listing struct {
	JobID          string `json:"jobId"`
	Link           string `json:"link"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyLink    string `json:"companyLink"`
	CompanyImgLink string `json:"companyImgLink"`
	Place          string `json:"place"`
	Date           string `json:"date"` // machine-readable timestamp, may be empty
	Promoted       bool   `json:"promoted"`
	EasyApply      bool   `json:"easyApply"`
}

// Details is the detail-panel part of a job.
type Details struct {
	Description         string
	DescriptionHTML     string
	DescriptionMarkdown string
	PostedAgo           string // relative time text, e.g. "3 days ago"
	Insights            []string
}

// Dedup answers whether a job was already persisted by a prior run.
type Dedup interface {
	Contains(ctx context.Context, jobID string) (bool, error)
}

// RunSpec is one (query, location) run.
type RunSpec struct {
	RunID    string
	Query    models.ResolvedQuery
	Location string
	Locator  string // search locator built with offset 0
}

// Result is the outcome of a run that did not fail.
type Result struct {
	// Exit asks the caller to stop without starting further runs.
	Exit bool

	// Aborted is set when the run ended on an invalid session at entry.
	Aborted bool

	// Pages counts successful pagination transitions.
	Pages int

	Metrics models.Metrics
}
