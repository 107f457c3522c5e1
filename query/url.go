package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/use-agent/jobscout/models"
)

// DefaultSearchURL is the listing search endpoint.
const DefaultSearchURL = "https://www.linkedin.com/jobs/search"

// OffsetParam is the query parameter carrying the pagination offset.
const OffsetParam = "start"

type param struct {
	key, value string
}

// BuildSearchURL derives the search locator for one (query, location).
// Parameters are appended in a fixed order so equal inputs always yield the
// same string. The offset is always 0 here; the controller rewrites it.
func BuildSearchURL(base, text, location string, f models.Filters) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse search url %q: %w", base, err)
	}

	var params []param
	if text != "" {
		params = append(params, param{"keywords", text})
	}
	if location != "" {
		params = append(params, param{"location", location})
	}
	if f.CompanyJobsURL != "" {
		companyURL, err := url.Parse(f.CompanyJobsURL)
		if err != nil {
			return "", fmt.Errorf("parse company jobs url %q: %w", f.CompanyJobsURL, err)
		}
		params = append(params, param{"f_C", companyURL.Query().Get("f_C")})
	}
	if f.Relevance != "" {
		params = append(params, param{"sortBy", f.Relevance})
	}
	if w := f.TimeWindow(); w != models.TimeAny {
		params = append(params, param{"f_TPR", w})
	}
	if len(f.Type) > 0 {
		params = append(params, param{"f_JT", f.Type.Join()})
	}
	if len(f.Experience) > 0 {
		params = append(params, param{"f_E", f.Experience.Join()})
	}
	if len(f.OnSiteOrRemote) > 0 {
		params = append(params, param{"f_WT", f.OnSiteOrRemote.Join()})
	}
	params = append(params, param{OffsetParam, "0"})

	u.RawQuery = encode(u.RawQuery, params)
	return u.String(), nil
}

// WithOffset rewrites the pagination offset of locator in place, keeping
// every other parameter and their order untouched.
func WithOffset(locator string, offset int) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse locator %q: %w", locator, err)
	}

	value := strconv.Itoa(offset)
	pairs := strings.Split(u.RawQuery, "&")
	replaced := false
	for i, pair := range pairs {
		key := pair
		if j := strings.IndexByte(pair, '='); j >= 0 {
			key = pair[:j]
		}
		if key == OffsetParam {
			pairs[i] = OffsetParam + "=" + value
			replaced = true
		}
	}
	if !replaced {
		u.RawQuery = encode(u.RawQuery, []param{{OffsetParam, value}})
		return u.String(), nil
	}
	u.RawQuery = strings.Join(pairs, "&")
	return u.String(), nil
}

// Offset reads the pagination offset of locator (0 when absent).
func Offset(locator string) int {
	u, err := url.Parse(locator)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(u.Query().Get(OffsetParam))
	if err != nil {
		return 0
	}
	return n
}

func encode(existing string, params []param) string {
	var b strings.Builder
	b.WriteString(existing)
	for _, p := range params {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}
