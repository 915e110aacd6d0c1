package main

import (
	"testing"

	"github.com/use-agent/ecocal/models"
)

func TestStepSummary(t *testing.T) {
	tests := []struct {
		name  string
		steps []models.StepOutcome
		want  string
	}{
		{
			name: "all succeeded",
			steps: []models.StepOutcome{
				{Step: "open_page", Status: models.StepSucceeded},
				{Step: "scroll_to_end", Status: models.StepSucceeded},
			},
			want: "All 2 navigation steps succeeded.",
		},
		{
			name: "some skipped",
			steps: []models.StepOutcome{
				{Step: "open_page", Status: models.StepSucceeded},
				{Step: "accept_consent", Status: models.StepSkipped},
				{Step: "select_timezone", Status: models.StepSkipped},
			},
			want: "2 of 3 navigation steps skipped: accept_consent, select_timezone.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stepSummary(tt.steps); got != tt.want {
				t.Errorf("stepSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
