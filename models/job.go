package models

// Job is one extracted listing. It is built field by field while an item
// index is processed and emitted once complete.
type Job struct {
	Query    string `json:"query"`
	Location string `json:"location"`

	// JobID identifies the listing. It can be empty on malformed cards.
	JobID string `json:"job_id"`

	// JobIndex is the position of the card on its page (debug only).
	JobIndex int `json:"job_index"`

	Link           string `json:"link"`
	ApplyLink      string `json:"apply_link,omitempty"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyLink    string `json:"company_link,omitempty"`
	CompanyImgLink string `json:"company_img_link,omitempty"`
	Place          string `json:"place"`

	// Date is an ISO date (YYYY-MM-DD) or empty when it could not be derived.
	Date string `json:"date"`

	Description         string   `json:"description"`
	DescriptionHTML     string   `json:"description_html"`
	DescriptionMarkdown string   `json:"description_markdown,omitempty"`
	Insights            []string `json:"insights"`

	Promoted  bool `json:"promoted"`
	EasyApply bool `json:"easy_apply"`
}

// Metrics tallies a single (query, location) run.
type Metrics struct {
	Processed int `json:"processed"` // records emitted
	Failed    int `json:"failed"`    // items abandoned on an extraction error
	Missed    int `json:"missed"`    // nominal page slots never reached
	Skipped   int `json:"skipped"`   // promoted or already-seen items
}
