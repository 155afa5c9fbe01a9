package models

import "time"

// VendorStats is the per-vendor part of a refresh report.
type VendorStats struct {
	Stations int `json:"stations"`
	Skipped  int `json:"skipped,omitempty"`
}

// RefreshRun is one execution of the vendor pipeline.
type RefreshRun struct {
	ID         int64                  `json:"id,omitempty"`
	Trigger    string                 `json:"trigger"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Success    bool                   `json:"success"`
	Stats      map[string]VendorStats `json:"stats"`
	Failures   map[string]string      `json:"failures,omitempty"`
}
