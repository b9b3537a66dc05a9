package domain

import "time"

// Posting is one listing row from a job-board export.
type Posting struct {
	SourceID     string
	JPID         string
	Title        string
	Body         string
	Section      string
	Institution  string
	DateActive   *time.Time // nil when the row had no usable date
	OpeningCount int
	SourceFile   string
}

type Section struct {
	Key    string `json:"key" yaml:"key"`
	Label  string `json:"label" yaml:"label"`
	Filter string `json:"filter" yaml:"filter"` // substring of the posting section; empty keeps all
}
