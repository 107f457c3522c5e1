package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/models"
)

func TestPlan_DefaultsOnly(t *testing.T) {
	planned, err := Plan([]models.Query{{Text: "engineer"}}, nil)
	require.NoError(t, err)
	require.Len(t, planned, 1)

	q := planned[0]
	assert.Equal(t, "engineer", q.Text)
	assert.Equal(t, []string{models.DefaultLocation}, q.Locations)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, 0, q.PageOffset)
	assert.False(t, q.Optimize)
	assert.False(t, q.ApplyLink)
	assert.False(t, q.SkipPromotedJobs)
}

func TestPlan_LayerPriority(t *testing.T) {
	overrides := &models.QueryOptions{
		Locations: []string{"Berlin", "Paris"},
		Limit:     models.Int(10),
		Optimize:  models.Bool(true),
		Filters: &models.Filters{
			Relevance: models.RelevanceRecent,
			Type:      models.StringSet{models.TypeFullTime, models.TypeContract},
		},
	}
	queries := []models.Query{
		{Text: "a"},
		{Text: "b", Options: &models.QueryOptions{
			Locations: []string{"Remote"},
			Limit:     models.Int(3),
			Filters: &models.Filters{
				Type: models.StringSet{models.TypeInternship},
				Time: models.String(models.TimeWeek),
			},
		}},
	}

	planned, err := Plan(queries, overrides)
	require.NoError(t, err)
	require.Len(t, planned, 2)

	a := planned[0]
	assert.Equal(t, []string{"Berlin", "Paris"}, a.Locations)
	assert.Equal(t, 10, a.Limit)
	assert.True(t, a.Optimize)

	b := planned[1]
	// Arrays are replaced by the higher layer, never concatenated.
	assert.Equal(t, []string{"Remote"}, b.Locations)
	assert.Equal(t, models.StringSet{models.TypeInternship}, b.Filters.Type)
	assert.Equal(t, 3, b.Limit)
	// Unset query fields keep the run-level value.
	assert.True(t, b.Optimize)
	assert.Equal(t, models.RelevanceRecent, b.Filters.Relevance)
	assert.Equal(t, models.TimeWeek, b.Filters.TimeWindow())
}

func TestPlan_ExplicitAnyTimeClearsRunWindow(t *testing.T) {
	overrides := &models.QueryOptions{Filters: &models.Filters{Time: models.String(models.TimeDay)}}
	queries := []models.Query{
		{Text: "kept"},
		{Text: "cleared", Options: &models.QueryOptions{Filters: &models.Filters{Time: models.String(models.TimeAny)}}},
	}

	planned, err := Plan(queries, overrides)
	require.NoError(t, err)
	require.Len(t, planned, 2)
	assert.Equal(t, models.TimeDay, planned[0].Filters.TimeWindow())
	assert.Equal(t, models.TimeAny, planned[1].Filters.TimeWindow())
	require.NotNil(t, planned[1].Filters.Time)

	u, err := BuildSearchURL("https://www.linkedin.com/jobs/search/", planned[1].Text, "Berlin", planned[1].Filters)
	require.NoError(t, err)
	assert.NotContains(t, u, "f_TPR")
	u, err = BuildSearchURL("https://www.linkedin.com/jobs/search/", planned[0].Text, "Berlin", planned[0].Filters)
	require.NoError(t, err)
	assert.Contains(t, u, "f_TPR="+models.TimeDay)
}

func TestPlan_DoesNotMutateOverrides(t *testing.T) {
	overrides := &models.QueryOptions{Locations: []string{"Berlin"}}
	_, err := Plan([]models.Query{{Text: "x", Options: &models.QueryOptions{Locations: []string{"Rome"}}}}, overrides)
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin"}, overrides.Locations)
}

func TestPlan_EmptyLocationsDefaulted(t *testing.T) {
	planned, err := Plan([]models.Query{{Options: &models.QueryOptions{Locations: []string{}}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DefaultLocation}, planned[0].Locations)
}

func TestPlan_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		opts  *models.QueryOptions
		field string
	}{
		{"negative limit", &models.QueryOptions{Limit: models.Int(-1)}, "limit"},
		{"negative offset", &models.QueryOptions{PageOffset: models.Int(-2)}, "page_offset"},
		{"bad relevance", &models.QueryOptions{Filters: &models.Filters{Relevance: "X"}}, "filters.relevance"},
		{"bad time", &models.QueryOptions{Filters: &models.Filters{Time: models.String("r1")}}, "filters.time"},
		{"bad type", &models.QueryOptions{Filters: &models.Filters{Type: models.StringSet{"F", "Z"}}}, "filters.type[1]"},
		{"bad experience", &models.QueryOptions{Filters: &models.Filters{Experience: models.StringSet{"9"}}}, "filters.experience[0]"},
		{"bad work mode", &models.QueryOptions{Filters: &models.Filters{OnSiteOrRemote: models.StringSet{"4"}}}, "filters.on_site_or_remote[0]"},
		{"bad company url", &models.QueryOptions{Filters: &models.Filters{CompanyJobsURL: "not a url"}}, "filters.company_jobs_url"},
		{"blank location", &models.QueryOptions{Locations: []string{"Rome", ""}}, "locations[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := []models.Query{{Text: "ok"}, {Text: "bad", Options: tt.opts}}
			planned, err := Plan(queries, nil)
			require.Error(t, err)
			assert.Nil(t, planned, "no partial plan on failure")

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, 1, ve.Query)
			assert.Equal(t, tt.field, ve.Field)
			assert.NotEmpty(t, ve.Reason)
			assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
		})
	}
}

func TestStringSet_DecodesSingleOrList(t *testing.T) {
	var f models.Filters
	require.NoError(t, json.Unmarshal([]byte(`{"type":"F","experience":["2","3"]}`), &f))
	assert.Equal(t, models.StringSet{"F"}, f.Type)
	assert.Equal(t, models.StringSet{"2", "3"}, f.Experience)
	assert.Nil(t, f.OnSiteOrRemote)

	assert.Error(t, json.Unmarshal([]byte(`{"type":3}`), &f))
}
