package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/nominaops/staffbulk"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Loader metrics
	LoadsTotal      metric.Int64Counter
	LoadErrorsTotal metric.Int64Counter
	LoadDuration    metric.Float64Histogram

	// Batch save metrics
	SaveBatchesTotal metric.Int64Counter
	RowsUpdatedTotal metric.Int64Counter
	RowsFailedTotal  metric.Int64Counter
	SaveDuration     metric.Float64Histogram

	// Edit metrics
	EditsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.LoadsTotal, _ = meter.Int64Counter(
		"staffbulk.loads.total",
		metric.WithDescription("Total number of personnel list loads"),
		metric.WithUnit("{load}"),
	)

	m.LoadErrorsTotal, _ = meter.Int64Counter(
		"staffbulk.loads.errors.total",
		metric.WithDescription("Total number of failed personnel list loads"),
		metric.WithUnit("{error}"),
	)

	m.LoadDuration, _ = meter.Float64Histogram(
		"staffbulk.loads.duration",
		metric.WithDescription("Duration of personnel list loads"),
		metric.WithUnit("ms"),
	)

	m.SaveBatchesTotal, _ = meter.Int64Counter(
		"staffbulk.saves.batches.total",
		metric.WithDescription("Total number of batch save submissions"),
		metric.WithUnit("{batch}"),
	)

	m.RowsUpdatedTotal, _ = meter.Int64Counter(
		"staffbulk.saves.rows_updated.total",
		metric.WithDescription("Total number of rows updated successfully"),
		metric.WithUnit("{row}"),
	)

	m.RowsFailedTotal, _ = meter.Int64Counter(
		"staffbulk.saves.rows_failed.total",
		metric.WithDescription("Total number of rows that failed to update"),
		metric.WithUnit("{row}"),
	)

	m.SaveDuration, _ = meter.Float64Histogram(
		"staffbulk.saves.duration",
		metric.WithDescription("Duration of batch save submissions"),
		metric.WithUnit("ms"),
	)

	m.EditsTotal, _ = meter.Int64Counter(
		"staffbulk.edits.total",
		metric.WithDescription("Total number of cell edits applied"),
		metric.WithUnit("{edit}"),
	)

	return m
}
