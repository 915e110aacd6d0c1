// Package metrics exposes gather telemetry as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/use-agent/ecocal/models"
)

const namespace = "ecocal"

// Collector records navigation steps, table rows and gather runs.
type Collector struct {
	steps        *prometheus.CounterVec
	stepDur      *prometheus.SummaryVec
	rows         *prometheus.CounterVec
	gathers      *prometheus.CounterVec
	gatherDur    prometheus.Summary
	lastRecords  prometheus.Gauge
	lastSuccessT prometheus.Gauge
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_steps_total",
			Help:      "Navigation steps by name and outcome",
		}, []string{"step", "status"}),
		stepDur: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "navigation_step_duration_seconds",
			Help:      "Time spent in each navigation step, settle delays included",
		}, []string{"step"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_rows_total",
			Help:      "Event table rows by how they were consumed",
		}, []string{"kind"}),
		gathers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gathers_total",
			Help:      "Completed gathers by result",
		}, []string{"result"}),
		gatherDur: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "gather_duration_seconds",
			Help:      "End-to-end gather time",
		}),
		lastRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_gather_records",
			Help:      "Records extracted by the most recent gather",
		}),
		lastSuccessT: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful gather",
		}),
	}

	reg.MustRegister(
		c.steps, c.stepDur, c.rows,
		c.gathers, c.gatherDur, c.lastRecords, c.lastSuccessT,
	)
	return c
}

// ObserveStep counts one finished navigation step.
func (c *Collector) ObserveStep(o models.StepOutcome) {
	c.steps.WithLabelValues(o.Step, string(o.Status)).Inc()
	c.stepDur.WithLabelValues(o.Step).Observe(o.Duration.Seconds())
}

// ObserveExtraction adds one table's row counts.
func (c *Collector) ObserveExtraction(s models.ExtractionStats) {
	c.rows.WithLabelValues("event").Add(float64(s.Records))
	c.rows.WithLabelValues("header").Add(float64(s.HeaderRows))
	c.rows.WithLabelValues("short").Add(float64(s.ShortRows))
	c.rows.WithLabelValues("failed").Add(float64(s.FailedRows))
	c.lastRecords.Set(float64(s.Records))
}

// ObserveGather records a finished gather. err is the gather's error, if any.
func (c *Collector) ObserveGather(d time.Duration, err error) {
	c.gatherDur.Observe(d.Seconds())
	if err != nil {
		c.gathers.WithLabelValues("error").Inc()
		return
	}
	c.gathers.WithLabelValues("ok").Inc()
	c.lastSuccessT.SetToCurrentTime()
}
