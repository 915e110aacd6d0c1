package models

// GatherRequest is the payload for POST /api/v1/calendar.
type GatherRequest struct {
	// StartDate and EndDate are typed verbatim into the calendar's date
	// picker, in month/day/year form (e.g. "09/01/2023"). Required.
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`

	// MaxAge allows serving a cached response younger than this many
	// milliseconds. Default: 0 (always gather).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// Persist forwards the gathered records to the configured sinks.
	// Default: false.
	Persist bool `json:"persist,omitempty"`
}
