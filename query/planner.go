// Package query plans search requests: it merges option layers, validates
// the result and derives the search locator for each (query, location).
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/use-agent/jobscout/models"
)

// DefaultLimit is the per-query item limit when no layer sets one.
const DefaultLimit = 25

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Defaults returns the built-in option layer.
func Defaults() models.QueryOptions {
	return models.QueryOptions{
		PageOffset:       models.Int(0),
		Limit:            models.Int(DefaultLimit),
		Filters:          &models.Filters{},
		Optimize:         models.Bool(false),
		ApplyLink:        models.Bool(false),
		SkipPromotedJobs: models.Bool(false),
	}
}

// Plan resolves every query against the defaults, the run-level overrides
// and its own options (in increasing priority) and validates the result.
// The first violation aborts the whole batch.
func Plan(queries []models.Query, overrides *models.QueryOptions) ([]models.ResolvedQuery, error) {
	planned := make([]models.ResolvedQuery, 0, len(queries))
	for i, q := range queries {
		opts := Defaults()
		merge(&opts, overrides)
		merge(&opts, q.Options)

		rq := resolve(q.Text, opts)
		if err := validate.Struct(rq); err != nil {
			return nil, toValidationError(i, err)
		}
		planned = append(planned, rq)
	}
	return planned, nil
}

// merge copies every set field of src over dst. Slices replace, never append.
func merge(dst, src *models.QueryOptions) {
	if src == nil {
		return
	}
	if src.Locations != nil {
		dst.Locations = append([]string(nil), src.Locations...)
	}
	if src.PageOffset != nil {
		dst.PageOffset = models.Int(*src.PageOffset)
	}
	if src.Limit != nil {
		dst.Limit = models.Int(*src.Limit)
	}
	if src.Optimize != nil {
		dst.Optimize = models.Bool(*src.Optimize)
	}
	if src.ApplyLink != nil {
		dst.ApplyLink = models.Bool(*src.ApplyLink)
	}
	if src.SkipPromotedJobs != nil {
		dst.SkipPromotedJobs = models.Bool(*src.SkipPromotedJobs)
	}
	if src.DescriptionFn != "" {
		dst.DescriptionFn = src.DescriptionFn
	}
	if src.Filters != nil {
		if dst.Filters == nil {
			dst.Filters = &models.Filters{}
		}
		mergeFilters(dst.Filters, src.Filters)
	}
}

func mergeFilters(dst, src *models.Filters) {
	if src.CompanyJobsURL != "" {
		dst.CompanyJobsURL = src.CompanyJobsURL
	}
	if src.Relevance != "" {
		dst.Relevance = src.Relevance
	}
	if src.Time != nil {
		dst.Time = models.String(*src.Time)
	}
	if src.Type != nil {
		dst.Type = append(models.StringSet(nil), src.Type...)
	}
	if src.Experience != nil {
		dst.Experience = append(models.StringSet(nil), src.Experience...)
	}
	if src.OnSiteOrRemote != nil {
		dst.OnSiteOrRemote = append(models.StringSet(nil), src.OnSiteOrRemote...)
	}
}

func resolve(text string, o models.QueryOptions) models.ResolvedQuery {
	rq := models.ResolvedQuery{
		Text:          strings.TrimSpace(text),
		Locations:     o.Locations,
		DescriptionFn: strings.TrimSpace(o.DescriptionFn),
	}
	if len(rq.Locations) == 0 {
		rq.Locations = []string{models.DefaultLocation}
	}
	if o.PageOffset != nil {
		rq.PageOffset = *o.PageOffset
	}
	if o.Limit != nil {
		rq.Limit = *o.Limit
	}
	if o.Filters != nil {
		rq.Filters = *o.Filters
	}
	if o.Optimize != nil {
		rq.Optimize = *o.Optimize
	}
	if o.ApplyLink != nil {
		rq.ApplyLink = *o.ApplyLink
	}
	if o.SkipPromotedJobs != nil {
		rq.SkipPromotedJobs = *o.SkipPromotedJobs
	}
	return rq
}

func toValidationError(index int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &models.ValidationError{Query: index, Field: "query", Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	return &models.ValidationError{Query: index, Field: field, Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s element(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a valid URL, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
