package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/models"
)

func TestBuildSearchURL_QueryAndLocation(t *testing.T) {
	got, err := BuildSearchURL(DefaultSearchURL, "go engineer", "Remote", models.Filters{})
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/search?keywords=go+engineer&location=Remote&start=0", got)
}

func TestBuildSearchURL_AllFilters(t *testing.T) {
	f := models.Filters{
		CompanyJobsURL: "https://www.linkedin.com/jobs/search/?f_C=1441%2C17876832&geoId=92000000",
		Relevance:      models.RelevanceRecent,
		Time:           models.String(models.TimeMonth),
		Type:           models.StringSet{models.TypeFullTime, models.TypeInternship},
		Experience:     models.StringSet{models.ExperienceEntryLevel},
		OnSiteOrRemote: models.StringSet{models.Remote, models.Hybrid},
	}

	got, err := BuildSearchURL(DefaultSearchURL, "", "Europe", f)
	require.NoError(t, err)
	assert.Equal(t,
		"https://www.linkedin.com/jobs/search?location=Europe&f_C=1441%2C17876832&sortBy=DD&f_TPR=r2592000&f_JT=F%2CI&f_E=2&f_WT=2%2C3&start=0",
		got)
}

func TestBuildSearchURL_Deterministic(t *testing.T) {
	f := models.Filters{Type: models.StringSet{"C", "F"}, Relevance: "R"}
	first, err := BuildSearchURL(DefaultSearchURL, "data", "Rome", f)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := BuildSearchURL(DefaultSearchURL, "data", "Rome", f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestWithOffset(t *testing.T) {
	locator, err := BuildSearchURL(DefaultSearchURL, "go", "Rome", models.Filters{Relevance: "R"})
	require.NoError(t, err)

	moved, err := WithOffset(locator, 50)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/search?keywords=go&location=Rome&sortBy=R&start=50", moved)
	assert.Equal(t, 50, Offset(moved))

	// Missing parameter is appended.
	appended, err := WithOffset("https://example.com/jobs?keywords=x", 25)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jobs?keywords=x&start=25", appended)
}

func TestOffset_Absent(t *testing.T) {
	assert.Equal(t, 0, Offset("https://example.com/jobs"))
	assert.Equal(t, 0, Offset("://bad"))
}
