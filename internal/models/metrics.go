package models

import "time"

// SystemMetrics is a point-in-time summary of the process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SubmissionsTotal         uint64    `json:"submissions_total"`
	SeatsAllotted            uint64    `json:"seats_allotted"`
	SeatsSkipped             uint64    `json:"seats_skipped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
