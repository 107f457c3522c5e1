package engine

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

const testHome = "https://home.test"

type card struct {
	listing  Listing
	details  Details
	notReady bool
	err      error
}

// fakeSite is an in-memory surface and extractor. Pages are addressed by
// the offset parameter of the navigated locator.
type fakeSite struct {
	mu sync.Mutex

	pages  [][]card
	counts map[int][]int // per-page CountItems sequence, last value repeats
	calls  map[int]int

	url       string
	navigated []string

	cookies      []*http.Cookie
	validReads   int // cookie reads that still see the session, -1 for all
	cookieReads  int
	noCollection bool
	selected     *card
	dismissed    int
}

func newFakeSite(pages ...[]card) *fakeSite {
	return &fakeSite{
		pages:      pages,
		counts:     map[int][]int{},
		calls:      map[int]int{},
		cookies:    []*http.Cookie{{Name: DefaultSessionCookie, Value: "token"}},
		validReads: -1,
	}
}

func makeCards(prefix string, n int) []card {
	cards := make([]card, n)
	for i := range cards {
		id := prefix + strconv.Itoa(i)
		cards[i] = card{
			listing: Listing{
				JobID:   id,
				Link:    "https://jobs.test/view/" + id,
				Title:   "Title " + id,
				Company: "Company " + id,
				Place:   "Place " + id,
				Date:    "2026-10-01",
			},
			details: Details{
				Description:     "Description " + id,
				DescriptionHTML: "<p>Description " + id + "</p>",
				Insights:        []string{"Full-time"},
			},
		}
	}
	return cards
}

func (s *fakeSite) page() int {
	if !strings.Contains(s.url, query.OffsetParam+"=") {
		return -1
	}
	return query.Offset(s.url) / DefaultPageSize
}

func (s *fakeSite) currentCards() []card {
	p := s.page()
	if p < 0 || p >= len(s.pages) {
		return nil
	}
	return s.pages[p]
}

func (s *fakeSite) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *fakeSite) Cookies(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookieReads++
	if s.validReads >= 0 && s.cookieReads > s.validReads {
		return nil, nil
	}
	return s.cookies, nil
}

func (s *fakeSite) SetCookie(_ context.Context, c *http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append(s.cookies, c)
	return nil
}

func (s *fakeSite) WaitForCollection(context.Context, time.Duration) error {
	if s.noCollection {
		return errors.New("collection not found")
	}
	return nil
}

func (s *fakeSite) CountItems(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.page()
	seq, ok := s.counts[p]
	if !ok {
		return len(s.currentCards()), nil
	}
	i := s.calls[p]
	s.calls[p]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return seq[i], nil
}

func (s *fakeSite) DismissOverlays(context.Context) error {
	s.mu.Lock()
	s.dismissed++
	s.mu.Unlock()
	return nil
}

func (s *fakeSite) Listing(_ context.Context, index int) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := s.currentCards()
	if index >= len(cards) {
		return nil, errors.New("card index out of range")
	}
	c := &cards[index]
	s.selected = c
	if c.err != nil {
		return nil, c.err
	}
	l := c.listing
	return &l, nil
}

func (s *fakeSite) DetailReady(_ context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected != nil && !s.selected.notReady && s.selected.listing.JobID == jobID, nil
}

func (s *fakeSite) Details(context.Context, string) (*Details, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.selected.details
	return &d, nil
}

func (s *fakeSite) ApplyLink(context.Context, PollConfig) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "https://apply.test/" + s.selected.listing.JobID, nil
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type dedupSet map[string]bool

func (d dedupSet) Contains(_ context.Context, id string) (bool, error) {
	return d[id], nil
}

var fastPoll = PollConfig{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}

func testOptions() Options {
	return Options{
		HomeURL:    testHome,
		ItemGrowth: fastPoll,
		Detail:     fastPoll,
		Pagination: fastPoll,
		ApplyLink:  fastPoll,
		Now: func() time.Time {
			return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		},
	}
}

func testSpec(limit int) RunSpec {
	locator, _ := query.BuildSearchURL(query.DefaultSearchURL, "engineer", "Berlin", models.Filters{})
	return RunSpec{
		RunID:    "run-1",
		Query:    models.ResolvedQuery{Text: "engineer", Locations: []string{"Berlin"}, Limit: limit},
		Location: "Berlin",
		Locator:  locator,
	}
}
