package models

import "time"

// StepStatus is the tagged result of one navigation step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepSkipped   StepStatus = "skipped"
)

// StepOutcome records how a single best-effort UI step ended. A skipped
// step never aborts the run; Reason says why it was skipped.
type StepOutcome struct {
	Step     string        `json:"step"`
	Status   StepStatus    `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the step completed.
func (o StepOutcome) Succeeded() bool {
	return o.Status == StepSucceeded
}

// ExtractionStats counts how the event table's rows were consumed.
type ExtractionStats struct {
	Records    int `json:"records"`
	HeaderRows int `json:"header_rows"`
	ShortRows  int `json:"short_rows"`
	FailedRows int `json:"failed_rows"`
}
