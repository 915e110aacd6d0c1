package models

// GatherResponse is the response for POST /api/v1/calendar.
type GatherResponse struct {
	// Success indicates whether records could be extracted. Skipped
	// navigation steps do not affect it.
	Success bool `json:"success"`

	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	// Records are the extracted events in page order.
	Records []EventRecord `json:"records"`

	// Steps lists every navigation step in execution order.
	Steps []StepOutcome `json:"steps,omitempty"`

	Stats ExtractionStats `json:"stats"`

	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Persisted is true when the records were handed to the sinks.
	Persisted bool `json:"persisted,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// GatherMs covers navigation, scrolling and extraction.
	GatherMs int64 `json:"gather_ms"`

	// PersistMs is the time spent in sinks.
	PersistMs int64 `json:"persist_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "idle" or "busy"
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
