package domain

import "time"

// WeeklySeries is the cumulative opening curve of one academic year.
type WeeklySeries struct {
	Weeks      []int `json:"weeks"`
	Cumulative []int `json:"cumulative"`
	Total      int   `json:"total"`
	Postings   int   `json:"postings"`
}

type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

type Metadata struct {
	LastUpdate    time.Time `json:"last_update"`
	TotalPostings int       `json:"total_postings"`
	DateRange     DateRange `json:"date_range"`
}

// Dataset is the presentation structure: section key -> academic year -> series.
// Years are string keys so the JSON matches what the static site reads.
type Dataset struct {
	Metadata      Metadata                           `json:"metadata"`
	SectionLabels map[string]string                  `json:"section_labels,omitempty"`
	Sections      map[string]map[string]WeeklySeries `json:"sections"`
}
