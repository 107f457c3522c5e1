package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

// DefaultPageSize is the nominal number of cards per result page.
const DefaultPageSize = 25

// DefaultCollectionTimeout bounds the wait for the item collection container.
const DefaultCollectionTimeout = 5 * time.Second

// Options configures a Controller.
type Options struct {
	// HomeURL is opened before the search so credentials can be installed.
	HomeURL string

	// SessionCookie is installed after reaching HomeURL. Nil when the
	// browser already carries a session.
	SessionCookie *http.Cookie

	// SessionCookieName is the cookie SessionGuard looks for.
	SessionCookieName string

	PageSize          int
	CollectionTimeout time.Duration

	ItemGrowth PollConfig
	Detail     PollConfig
	Pagination PollConfig
	ApplyLink  PollConfig

	// ShouldExit is polled before every page and every item. When it
	// returns true the run stops and asks the caller to start no more runs.
	ShouldExit func() bool

	// Now is the clock used for relative date derivation.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CollectionTimeout <= 0 {
		o.CollectionTimeout = DefaultCollectionTimeout
	}
	if o.SessionCookieName == "" {
		o.SessionCookieName = DefaultSessionCookie
	}
	if o.ItemGrowth == (PollConfig{}) {
		o.ItemGrowth = ItemGrowthPoll
	}
	if o.Detail == (PollConfig{}) {
		o.Detail = DetailPoll
	}
	if o.Pagination == (PollConfig{}) {
		o.Pagination = PaginationPoll
	}
	if o.ApplyLink == (PollConfig{}) {
		o.ApplyLink = ApplyLinkPoll
	}
	if o.ShouldExit == nil {
		o.ShouldExit = func() bool { return false }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Controller is the pagination state machine for authenticated searches.
// One Controller serves many runs, one at a time.
type Controller struct {
	opts  Options
	sink  Sink
	dedup Dedup
}

// NewController creates a Controller. dedup may be nil.
func NewController(opts Options, sink Sink, dedup Dedup) *Controller {
	opts.setDefaults()
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Controller{opts: opts, sink: sink, dedup: dedup}
}

func (c *Controller) Name() string { return string(StrategyAuthenticated) }

// Run executes one (query, location) run on surface. It returns an error
// only for faults beyond item scope: the surface becoming unusable or ctx
// ending. Exhaustion, no results and invalid sessions are not errors.
func (c *Controller) Run(ctx context.Context, surface Surface, ex Extractor, spec RunSpec) (Result, error) {
	r := &run{
		c:         c,
		surface:   surface,
		ex:        ex,
		spec:      spec,
		guard:     NewSessionGuard(surface, c.opts.SessionCookieName),
		pageIndex: spec.Query.PageOffset,
		pageSize:  c.opts.PageSize,
		log: slog.With(
			"run", spec.RunID,
			"query", spec.Query.Text,
			"location", spec.Location,
		),
	}
	return r.execute(ctx)
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeFatal
)

// run is the per-(query, location) state, discarded when the run ends.
type run struct {
	c       *Controller
	surface Surface
	ex      Extractor
	spec    RunSpec
	guard   *SessionGuard
	log     *slog.Logger

	pageIndex int
	pageSize  int
	pages     int
	acc       accumulator
}

func (r *run) execute(ctx context.Context) (Result, error) {
	opts := r.c.opts
	limit := r.spec.Query.Limit

	// ── 1. Home view + credentials ──────────────────────────────────
	if opts.HomeURL != "" {
		r.log.Debug("opening home page", "url", opts.HomeURL)
		if err := r.surface.Navigate(ctx, opts.HomeURL); err != nil {
			return r.result(false), err
		}
	}
	if opts.SessionCookie != nil {
		r.log.Info("setting authentication cookie")
		if err := r.surface.SetCookie(ctx, opts.SessionCookie); err != nil {
			return r.result(false), err
		}
	}

	locator, err := query.WithOffset(r.spec.Locator, r.pageIndex*r.pageSize)
	if err != nil {
		return r.result(false), err
	}
	r.log.Info("opening search page", "url", locator)
	if err := r.surface.Navigate(ctx, locator); err != nil {
		return r.result(false), err
	}

	// ── 2. Session check (fatal for this run) ──────────────────────
	ok, err := r.guard.Authenticated(ctx)
	if err != nil {
		return r.result(false), err
	}
	if !ok {
		r.log.Error("the provided session cookie is invalid, check how to obtain a valid session cookie")
		r.emit(Event{Type: EventInvalidSession})
		res := r.result(false)
		res.Aborted = true
		return res, nil
	}

	// ── 3. Item collection ─────────────────────────────────────────
	if err := r.ex.WaitForCollection(ctx, opts.CollectionTimeout); err != nil {
		if ctx.Err() != nil {
			return r.result(false), ctx.Err()
		}
		r.log.Info("no jobs found, skip", "reason", err)
		return r.result(false), nil
	}

	// ── 4-5. Page loop ─────────────────────────────────────────────
	for r.acc.m.Processed < limit {
		if opts.ShouldExit() {
			r.log.Warn("forced termination")
			return r.result(true), nil
		}

		ok, err := r.guard.Authenticated(ctx)
		if err != nil {
			return r.result(false), err
		}
		if !ok {
			r.log.Warn("session is invalid, this may cause the scraper to fail")
			r.emit(Event{Type: EventInvalidSession})
		} else {
			r.log.Debug("session is valid")
		}

		if err := r.ex.DismissOverlays(ctx); err != nil {
			if ctx.Err() != nil {
				return r.result(false), ctx.Err()
			}
			r.log.Debug("failed to dismiss overlays", "error", err)
		}

		total, err := r.ex.CountItems(ctx)
		if err != nil {
			return r.result(false), err
		}
		if total == 0 {
			r.log.Info("no jobs found, skip")
			break
		}

		looped, exit, err := r.itemLoop(ctx, total)
		if err != nil {
			return r.result(false), err
		}
		if exit {
			r.log.Warn("forced termination")
			return r.result(true), nil
		}

		r.log.Info("no more jobs to process in this page")

		if r.acc.m.Processed == limit {
			r.log.Info("query limit reached")
			r.emitMetrics()
			break
		}

		r.acc.missed(r.pageSize - looped)
		r.emitMetrics()

		r.pageIndex++
		r.log.Info("pagination requested", "page", r.pageIndex)
		if err := r.paginate(ctx); err != nil {
			if ctx.Err() != nil || models.HasCode(err, models.ErrCodeBrowserCrash) {
				return r.result(false), err
			}
			r.log.Info("couldn't find more jobs for the running query", "reason", err)
			break
		}
		r.pages++
	}

	return r.result(false), nil
}

// itemLoop walks the visible cards of the current page. It returns how many
// indices were looped over.
func (r *run) itemLoop(ctx context.Context, total int) (index int, exit bool, err error) {
	q := r.spec.Query

	for index < total && r.acc.m.Processed < q.Limit {
		if r.c.opts.ShouldExit() {
			return index, true, nil
		}

		job, out, itemErr := r.extractItem(ctx, index)

		// Emission happens here, after extraction has fully returned, so a
		// panicking or slow listener is never taken for an extraction fault.
		switch out {
		case outcomeFatal:
			return index, false, itemErr
		case outcomeFailed:
			r.emit(Event{Type: EventError, Err: itemErr})
			r.acc.failed()
		case outcomeSkipped:
			r.acc.skipped()
		case outcomeProcessed:
			r.emit(Event{Type: EventData, Job: job})
			r.acc.processed()
			r.log.Info("processed", "index", r.absolute(index))
		}
		index++

		if out == outcomeFailed {
			continue
		}
		if index == total && total < r.pageSize && r.acc.m.Processed < q.Limit {
			more, err := r.waitForMore(ctx, total)
			if err != nil {
				return index, false, err
			}
			total = more
		}
	}
	return index, false, nil
}

// extractItem builds the job at index. It never emits.
func (r *run) extractItem(ctx context.Context, index int) (*models.Job, outcome, error) {
	q := r.spec.Query
	log := r.log.With("index", r.absolute(index))

	listing, err := r.ex.Listing(ctx, index)
	if err != nil {
		return r.classify(ctx, index, "failed to extract listing", err)
	}

	if q.SkipPromotedJobs && listing.Promoted {
		log.Info("skipped because promoted")
		return nil, outcomeSkipped, nil
	}
	if r.c.dedup != nil && listing.JobID != "" {
		seen, err := r.c.dedup.Contains(ctx, listing.JobID)
		switch {
		case err != nil:
			log.Warn("dedup lookup failed, processing anyway", "job_id", listing.JobID, "error", err)
		case seen:
			log.Info("skipped because already stored", "job_id", listing.JobID)
			return nil, outcomeSkipped, nil
		}
	}

	_, err = Poll(ctx, r.c.opts.Detail, "job details", func(ctx context.Context) (struct{}, bool, error) {
		ok, err := r.ex.DetailReady(ctx, listing.JobID)
		return struct{}{}, ok, err
	})
	if err != nil {
		return r.classify(ctx, index, "failed to load job details", err)
	}

	details, err := r.ex.Details(ctx, q.DescriptionFn)
	if err != nil {
		return r.classify(ctx, index, "failed to extract job details", err)
	}

	job := &models.Job{
		Query:               q.Text,
		Location:            r.spec.Location,
		JobID:               listing.JobID,
		JobIndex:            index,
		Link:                listing.Link,
		Title:               listing.Title,
		Company:             listing.Company,
		CompanyLink:         listing.CompanyLink,
		CompanyImgLink:      listing.CompanyImgLink,
		Place:               listing.Place,
		Promoted:            listing.Promoted,
		EasyApply:           listing.EasyApply,
		Description:         details.Description,
		DescriptionHTML:     details.DescriptionHTML,
		DescriptionMarkdown: details.DescriptionMarkdown,
		Insights:            details.Insights,
	}
	if job.Insights == nil {
		job.Insights = []string{}
	}

	date, err := resolveDate(listing.Date, details.PostedAgo, r.c.opts.Now())
	if err != nil {
		log.Warn("failed to parse secondary date", "text", details.PostedAgo, "error", err)
	}
	job.Date = date

	if q.ApplyLink {
		link, err := r.ex.ApplyLink(ctx, r.c.opts.ApplyLink)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, outcomeFatal, ctx.Err()
		case err != nil:
			log.Debug("apply link not captured", "error", err)
		default:
			job.ApplyLink = link
		}
	}

	return job, outcomeProcessed, nil
}

// classify turns an extraction error into an item failure, unless the
// context ended or the surface itself is gone.
func (r *run) classify(ctx context.Context, index int, msg string, err error) (*models.Job, outcome, error) {
	if ctx.Err() != nil {
		return nil, outcomeFatal, ctx.Err()
	}
	if models.HasCode(err, models.ErrCodeBrowserCrash) {
		return nil, outcomeFatal, err
	}
	r.log.Error(msg, "index", r.absolute(index), "error", err)
	return nil, outcomeFailed, models.NewScrapeError(
		models.ErrCodeItemExtraction,
		fmt.Sprintf("[%s][%s][%d] %s", r.spec.Query.Text, r.spec.Location, r.absolute(index), msg),
		err,
	)
}

// waitForMore polls for the card count to grow past total. A timeout keeps
// the current count.
func (r *run) waitForMore(ctx context.Context, total int) (int, error) {
	count, err := Poll(ctx, r.c.opts.ItemGrowth, "loading jobs", func(ctx context.Context) (int, bool, error) {
		n, err := r.ex.CountItems(ctx)
		return n, n > total, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		if !errors.Is(err, ErrPollTimeout) {
			return total, err
		}
		return total, nil
	}
	r.log.Debug("more jobs loaded", "before", total, "after", count)
	return count, nil
}

// paginate navigates to the offset of the current page index and waits for
// cards to render.
func (r *run) paginate(ctx context.Context) error {
	offset := r.pageIndex * r.pageSize
	locator, err := query.WithOffset(r.spec.Locator, offset)
	if err != nil {
		return err
	}
	r.log.Info("opening next page", "offset", offset, "url", locator)
	if err := r.surface.Navigate(ctx, locator); err != nil {
		return err
	}

	r.log.Info("waiting for new jobs to load")
	_, err = Poll(ctx, r.c.opts.Pagination, "pagination", func(ctx context.Context) (struct{}, bool, error) {
		n, err := r.ex.CountItems(ctx)
		return struct{}{}, n > 0, err
	})
	return err
}

func (r *run) absolute(index int) int {
	return r.pageIndex*r.pageSize + index + 1
}

func (r *run) emitMetrics() {
	m := r.acc.snapshot()
	r.log.Info("metrics",
		"processed", m.Processed,
		"failed", m.Failed,
		"missed", m.Missed,
		"skipped", m.Skipped,
	)
	r.emit(Event{Type: EventMetrics, Metrics: m})
}

func (r *run) emit(e Event) {
	e.RunID = r.spec.RunID
	e.Query = r.spec.Query.Text
	e.Location = r.spec.Location
	r.c.sink.Emit(e)
}

func (r *run) result(exit bool) Result {
	return Result{Exit: exit, Pages: r.pages, Metrics: r.acc.m}
}
