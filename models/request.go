package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Queries is the batch to run. Required, at least one.
	Queries []Query `json:"queries" binding:"required,min=1"`

	// Options are run-level overrides applied under each query's own options.
	Options *QueryOptions `json:"options,omitempty"`
}
