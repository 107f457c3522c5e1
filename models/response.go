package models

// ErrorResponse is returned by any endpoint that fails before producing its
// payload, including POST /api/v1/search rejected before streaming starts.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// JobResponse is the response for GET /api/v1/jobs/:id.
type JobResponse struct {
	Success bool         `json:"success"`
	Job     *Job         `json:"job,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// JobListResponse is the response for GET /api/v1/jobs.
type JobListResponse struct {
	Success bool         `json:"success"`
	IDs     []string     `json:"ids"`
	Total   int          `json:"total"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" or "degraded"
	Uptime       string `json:"uptime"`
	ScraperState string `json:"scraper_state"`
	Running      bool   `json:"running"`
	Version      string `json:"version"`
}
