package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskflow"

// Metrics holds all TaskFlow metric instruments.
type Metrics struct {
	Prioritizations        metric.Int64Counter
	PrioritizationDuration metric.Float64Histogram
	TasksScored            metric.Int64Counter
	TaskMutations          metric.Int64Counter
	PersistFailures        metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Prioritizations, err = meter.Int64Counter("taskflow.prioritizations.total",
		metric.WithDescription("Prioritization rounds by outcome"))
	if err != nil {
		return nil, err
	}

	m.PrioritizationDuration, err = meter.Float64Histogram("taskflow.prioritizations.duration_seconds",
		metric.WithDescription("Remote prioritization latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.TasksScored, err = meter.Int64Counter("taskflow.prioritizations.tasks_scored",
		metric.WithDescription("Tasks that received a score"))
	if err != nil {
		return nil, err
	}

	m.TaskMutations, err = meter.Int64Counter("taskflow.tasks.mutations",
		metric.WithDescription("Task list mutations by operation"))
	if err != nil {
		return nil, err
	}

	m.PersistFailures, err = meter.Int64Counter("taskflow.tasks.persist_failures",
		metric.WithDescription("Task list writes that failed and were dropped"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
