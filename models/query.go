package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocation is substituted when a planned query has no locations.
const DefaultLocation = "Worldwide"

// Relevance filter values.
const (
	RelevanceRelevant = "R"
	RelevanceRecent   = "DD"
)

// Time window filter values.
const (
	TimeAny   = ""
	TimeDay   = "r86400"
	TimeWeek  = "r604800"
	TimeMonth = "r2592000"
)

// Employment type filter values.
const (
	TypeFullTime   = "F"
	TypePartTime   = "P"
	TypeTemporary  = "T"
	TypeContract   = "C"
	TypeInternship = "I"
	TypeVolunteer  = "V"
	TypeOther      = "O"
)

// Experience level filter values.
const (
	ExperienceInternship = "1"
	ExperienceEntryLevel = "2"
	ExperienceAssociate  = "3"
	ExperienceMidSenior  = "4"
	ExperienceDirector   = "5"
	ExperienceExecutive  = "6"
)

// Work mode filter values.
const (
	OnSite = "1"
	Remote = "2"
	Hybrid = "3"
)

// Query is a raw search request as supplied by a caller.
type Query struct {
	// Text is the keyword query. Optional.
	Text string `json:"query,omitempty" yaml:"query"`

	// Options are the per-query overrides. Optional.
	Options *QueryOptions `json:"options,omitempty" yaml:"options"`
}

// QueryOptions holds the overridable run options. A nil pointer or nil
// slice means "unset" so layers can be merged field by field.
type QueryOptions struct {
	Locations        []string `json:"locations,omitempty" yaml:"locations"`
	PageOffset       *int     `json:"page_offset,omitempty" yaml:"page_offset"`
	Limit            *int     `json:"limit,omitempty" yaml:"limit"`
	Filters          *Filters `json:"filters,omitempty" yaml:"filters"`
	Optimize         *bool    `json:"optimize,omitempty" yaml:"optimize"`
	ApplyLink        *bool    `json:"apply_link,omitempty" yaml:"apply_link"`
	SkipPromotedJobs *bool    `json:"skip_promoted_jobs,omitempty" yaml:"skip_promoted_jobs"`

	// DescriptionFn is the source of a JavaScript function evaluated in the
	// page to produce the plain-text description, e.g.
	// "() => document.querySelector('.jobs-description').innerText".
	DescriptionFn string `json:"description_fn,omitempty" yaml:"description_fn"`
}

// Filters narrows the search. Empty strings and nil sets are unset. Time is
// a pointer so a query can clear a run-level window with TimeAny.
type Filters struct {
	CompanyJobsURL string    `json:"company_jobs_url,omitempty" yaml:"company_jobs_url" validate:"omitempty,url"`
	Relevance      string    `json:"relevance,omitempty" yaml:"relevance" validate:"omitempty,oneof=R DD"`
	Time           *string   `json:"time,omitempty" yaml:"time" validate:"omitempty,oneof='' r86400 r604800 r2592000"`
	Type           StringSet `json:"type,omitempty" yaml:"type" validate:"omitempty,dive,oneof=F P T C I V O"`
	Experience     StringSet `json:"experience,omitempty" yaml:"experience" validate:"omitempty,dive,oneof=1 2 3 4 5 6"`
	OnSiteOrRemote StringSet `json:"on_site_or_remote,omitempty" yaml:"on_site_or_remote" validate:"omitempty,dive,oneof=1 2 3"`
}

// ResolvedQuery is a planned query: every option has a concrete value.
type ResolvedQuery struct {
	Text             string   `json:"query"`
	Locations        []string `json:"locations" validate:"required,min=1,dive,required"`
	PageOffset       int      `json:"page_offset" validate:"gte=0"`
	Limit            int      `json:"limit" validate:"gte=0"`
	Filters          Filters  `json:"filters"`
	Optimize         bool     `json:"optimize"`
	ApplyLink        bool     `json:"apply_link"`
	SkipPromotedJobs bool     `json:"skip_promoted_jobs"`
	DescriptionFn    string   `json:"description_fn,omitempty"`
}

// StringSet is an ordered set of enum tokens. It decodes from either a
// single string or a list of strings.
type StringSet []string

// Join serialises the set as comma-joined tokens.
func (s StringSet) Join() string {
	return strings.Join(s, ",")
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringSet{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = StringSet(many)
	return nil
}

func (s *StringSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StringSet{node.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = StringSet(many)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Int returns a pointer to v. Handy for building QueryOptions literals.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// TimeWindow returns the time filter, TimeAny when unset.
func (f Filters) TimeWindow() string {
	if f.Time == nil {
		return TimeAny
	}
	return *f.Time
}
