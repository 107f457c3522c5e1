package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

const sampleQueries = `
options:
  limit: 10
  skip_promoted_jobs: true
queries:
  - query: golang
    options:
      locations: [Berlin, Remote]
      filters:
        time: r604800
  - query: rust
`

func TestParseQueryFile(t *testing.T) {
	qf, err := parseQueryFile([]byte(sampleQueries))
	require.NoError(t, err)
	require.Len(t, qf.Queries, 2)
	assert.Equal(t, "golang", qf.Queries[0].Text)
	require.NotNil(t, qf.Options)
	assert.Equal(t, 10, *qf.Options.Limit)

	planned, err := query.Plan(qf.Queries, qf.Options)
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Remote"}, planned[0].Locations)
	assert.Equal(t, models.TimeWeek, planned[0].Filters.TimeWindow())
	assert.Equal(t, 10, planned[1].Limit)
	assert.True(t, planned[1].SkipPromotedJobs)
}

func TestParseQueryFile_Errors(t *testing.T) {
	_, err := parseQueryFile([]byte("queries: []"))
	assert.Error(t, err)

	_, err = parseQueryFile([]byte("queries: [unclosed"))
	assert.Error(t, err)

	_, err = loadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestJSONLinesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonl")
	out, err := openOutput(path)
	require.NoError(t, err)

	out.write(engine.Event{Type: engine.EventData, Job: &models.Job{JobID: "1"}})
	out.write(engine.Event{Type: engine.EventData, Job: &models.Job{JobID: "2"}})
	out.write(engine.Event{Type: engine.EventMetrics})
	require.NoError(t, out.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var job models.Job
		require.NoError(t, json.Unmarshal(sc.Bytes(), &job))
		ids = append(ids, job.JobID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}
