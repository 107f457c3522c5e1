package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/jobscout/models"
)

// streamEvent is one Server-Sent Event of POST /api/v1/search.
type streamEvent struct {
	Type     string          `json:"type"`
	Query    string          `json:"query"`
	Location string          `json:"location"`
	Data     json.RawMessage `json:"data"`
}

func main() {
	apiURL := os.Getenv("JOBSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("JOBSCOUT_API_KEY")

	s := server.NewMCPServer(
		"jobscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_jobs",
		mcp.WithDescription("Search job listings with a logged-in browser session and return the extracted jobs. Runs can take several minutes for large limits."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords, e.g. 'golang developer'"),
		),
		mcp.WithArray("locations",
			mcp.Description("Locations to search, e.g. ['Berlin', 'Remote']. Default: Worldwide"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum jobs per location (default: 25)"),
		),
		mcp.WithString("time",
			mcp.Description("Posting window"),
			mcp.Enum("day", "week", "month"),
		),
		mcp.WithBoolean("skip_promoted",
			mcp.Description("Skip promoted listings"),
		),
	)
	s.AddTool(searchTool, handleSearchJobs(apiURL, apiKey))

	getJobTool := mcp.NewTool("get_job",
		mcp.WithDescription("Return a previously extracted job by its id, including the full description."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job id as returned by search_jobs"),
		),
	)
	s.AddTool(getJobTool, handleGetJob(apiURL, apiKey))

	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("List the ids of every stored job."),
	)
	s.AddTool(listJobsTool, handleListJobs(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

var timeFilters = map[string]string{
	"day":   models.TimeDay,
	"week":  models.TimeWeek,
	"month": models.TimeMonth,
}

func newRequest(ctx context.Context, method, apiURL, apiKey, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req, nil
}

// apiError formats a non-2xx JSON error body.
func apiError(status int, body []byte) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		return fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
	}
	return fmt.Sprintf("API returned status %d", status)
}

func handleSearchJobs(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		opts := &models.QueryOptions{}
		if locations := request.GetStringSlice("locations", nil); len(locations) > 0 {
			opts.Locations = locations
		}
		if args := request.GetArguments(); args["limit"] != nil {
			opts.Limit = models.Int(request.GetInt("limit", 25))
		}
		if t := request.GetString("time", ""); t != "" {
			opts.Filters = &models.Filters{Time: models.String(timeFilters[t])}
		}
		if request.GetBool("skip_promoted", false) {
			skip := true
			opts.SkipPromotedJobs = &skip
		}

		body, err := json.Marshal(models.SearchRequest{
			Queries: []models.Query{{Text: text, Options: opts}},
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}
		req, err := newRequest(ctx, http.MethodPost, apiURL, apiKey, "/api/v1/search", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return mcp.NewToolResultError(apiError(resp.StatusCode, respBody)), nil
		}

		events, err := readEvents(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read event stream: %v", err)), nil
		}
		return mcp.NewToolResultText(summarize(events)), nil
	}
}

// readEvents collects the data lines of an SSE stream.
func readEvents(r io.Reader) ([]streamEvent, error) {
	var events []streamEvent
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, sc.Err()
}

func summarize(events []streamEvent) string {
	var sb strings.Builder
	jobs := 0
	for _, ev := range events {
		switch ev.Type {
		case "data":
			var job models.Job
			if err := json.Unmarshal(ev.Data, &job); err != nil {
				continue
			}
			jobs++
			sb.WriteString(fmt.Sprintf("--- [%s] %s at %s (%s) ---\n", job.JobID, job.Title, job.Company, job.Place))
			if job.Date != "" {
				sb.WriteString("Posted: " + job.Date + "\n")
			}
			sb.WriteString(job.Link + "\n")
			if len(job.Insights) > 0 {
				sb.WriteString(strings.Join(job.Insights, " | ") + "\n")
			}
			sb.WriteString("\n")
		case "error":
			var detail models.ErrorDetail
			if err := json.Unmarshal(ev.Data, &detail); err == nil {
				sb.WriteString(fmt.Sprintf("!! [%s] %s\n\n", detail.Code, detail.Message))
			}
		case "invalid-session":
			sb.WriteString(fmt.Sprintf("!! session invalid for %q in %s: refresh the session cookie\n\n", ev.Query, ev.Location))
		}
	}
	return fmt.Sprintf("Found %d jobs.\n\n", jobs) + sb.String()
}

func handleGetJob(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}
		req, err := newRequest(ctx, http.MethodGet, apiURL, apiKey, "/api/v1/jobs/"+url.PathEscape(id), nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}
		if resp.StatusCode != http.StatusOK {
			return mcp.NewToolResultError(apiError(resp.StatusCode, body)), nil
		}

		var jr models.JobResponse
		if err := json.Unmarshal(body, &jr); err != nil || jr.Job == nil {
			return mcp.NewToolResultError("failed to parse job response"), nil
		}
		j := jr.Job
		desc := j.DescriptionMarkdown
		if desc == "" {
			desc = j.Description
		}
		result := fmt.Sprintf("Title: %s\nCompany: %s\nPlace: %s\nPosted: %s\nLink: %s\n", j.Title, j.Company, j.Place, j.Date, j.Link)
		if j.ApplyLink != "" {
			result += "Apply: " + j.ApplyLink + "\n"
		}
		result += "\n" + desc
		return mcp.NewToolResultText(result), nil
	}
}

func handleListJobs(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := newRequest(ctx, http.MethodGet, apiURL, apiKey, "/api/v1/jobs", nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}
		if resp.StatusCode != http.StatusOK {
			return mcp.NewToolResultError(apiError(resp.StatusCode, body)), nil
		}
		var list models.JobListResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return mcp.NewToolResultError("failed to parse list response"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d stored jobs:\n%s", list.Total, strings.Join(list.IDs, "\n"))), nil
	}
}
