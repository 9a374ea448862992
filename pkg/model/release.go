package model

import "time"

// ReleaseTag is a calendar-versioned release marker (YYYY.MM.NN).
// NN is strictly increasing within a year-month per repository and
// resets to 01 at the first release of a new month.
type ReleaseTag struct {
	Repository string    `json:"repository"`
	Version    string    `json:"version"`
	CommitHash string    `json:"commit_hash"`
	Timestamp  time.Time `json:"timestamp"`
}
