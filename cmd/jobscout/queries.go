package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"gopkg.in/yaml.v3"
)

// queryFile is the YAML document read by the CLI:
//
//	options:            # run-level overrides, optional
//	  limit: 50
//	queries:
//	  - query: golang
//	    options:
//	      locations: [Berlin, Remote]
type queryFile struct {
	Options *models.QueryOptions `yaml:"options"`
	Queries []models.Query       `yaml:"queries"`
}

func loadQueryFile(path string) (*queryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	return parseQueryFile(data)
}

func parseQueryFile(data []byte) (*queryFile, error) {
	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse query file: %w", err)
	}
	if len(qf.Queries) == 0 {
		return nil, fmt.Errorf("query file has no queries")
	}
	return &qf, nil
}

// jsonLines appends data events to a file, one job per line.
type jsonLines struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func openOutput(path string) (*jsonLines, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &jsonLines{f: f, enc: json.NewEncoder(f)}, nil
}

func (o *jsonLines) write(e engine.Event) {
	if e.Job == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(e.Job); err != nil {
		slog.Warn("failed to write job", "job_id", e.Job.JobID, "error", err)
	}
}

func (o *jsonLines) Close() error {
	return o.f.Close()
}
