package models

import "time"

// AttemptStatus is the outcome of one upload or query.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptLoaded    AttemptStatus = "loaded"
	AttemptFailed    AttemptStatus = "failed"
	AttemptDiscarded AttemptStatus = "discarded" // finished after a reset
)

// Attempt is one entry of the upload history.
type Attempt struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	Label      string        `json:"label"`
	FileName   string        `json:"fileName,omitempty"`
	SizeBytes  int64         `json:"sizeBytes"`
	Status     AttemptStatus `json:"status"`
	ChartCount int           `json:"chartCount"`
	Reason     string        `json:"reason,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}
