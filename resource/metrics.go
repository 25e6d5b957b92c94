package resource

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	fetchOutcomeFetched = "fetched"
	fetchOutcomeError   = "error"
	fetchOutcomeStale   = "stale"
)

const (
	deliverySourceFetch      = "fetch"
	deliverySourceSet        = "set"
	deliverySourceInvalidate = "invalidate"
)

type resourceMetricsCollection struct {
	fetchCount       metric.Int64Counter
	fetchDuration    metric.Float64Histogram
	deliveryCount    metric.Int64Counter
	waitingObservers metric.Int64UpDownCounter
}

var metrics resourceMetricsCollection

func init() {
	const name = "conduction/resource"
	meter := otel.Meter(name)

	fetchCount, err := meter.Int64Counter(
		"resource/fetch_count",
		metric.WithDescription("Total number of completed fetches by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch count metric: %w", err))
	}

	fetchDuration, err := meter.Float64Histogram(
		"resource/fetch_duration_seconds",
		metric.WithDescription("Wall time spent in the fetch function"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch duration metric: %w", err))
	}

	deliveryCount, err := meter.Int64Counter(
		"resource/delivery_count",
		metric.WithDescription("Total number of values delivered to observers"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create delivery count metric: %w", err))
	}

	waitingObservers, err := meter.Int64UpDownCounter(
		"resource/waiting_observers",
		metric.WithDescription("Number of observers currently waiting for a value"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create waiting observers metric: %w", err))
	}

	metrics = resourceMetricsCollection{
		fetchCount:       fetchCount,
		fetchDuration:    fetchDuration,
		deliveryCount:    deliveryCount,
		waitingObservers: waitingObservers,
	}
}

func noteFetch(outcome string, elapsed time.Duration) {
	ctx := context.Background()
	attributesOption := metric.WithAttributes(attribute.String("outcome", outcome))

	metrics.fetchCount.Add(ctx, 1, attributesOption)
	metrics.fetchDuration.Record(ctx, elapsed.Seconds(), attributesOption)
}

func noteDelivery(source string, observers int) {
	attributesOption := metric.WithAttributes(attribute.String("source", source))

	metrics.deliveryCount.Add(context.Background(), int64(observers), attributesOption)
}

func noteWaitingDelta(delta int) {
	if delta == 0 {
		return
	}
	metrics.waitingObservers.Add(context.Background(), int64(delta))
}
