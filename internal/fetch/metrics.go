package fetch

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type resolverMetricsCollection struct {
	cacheHits           metric.Int64Counter
	cacheMisses         metric.Int64Counter
	flightJoins         metric.Int64Counter
	backgroundRefreshes metric.Int64Counter
	claimSelfHeals      metric.Int64Counter
}

func setupResolverMetrics(meter metric.Meter) (resolverMetricsCollection, error) {
	cacheHits, err := meter.Int64Counter(
		"fetch/cache_hits",
		metric.WithDescription("Resolutions served from the TTL store"),
	)
	if err != nil {
		return resolverMetricsCollection{}, fmt.Errorf("failed to create cache hit metric: %w", err)
	}

	cacheMisses, err := meter.Int64Counter(
		"fetch/cache_misses",
		metric.WithDescription("Resolutions that required an upstream fetch"),
	)
	if err != nil {
		return resolverMetricsCollection{}, fmt.Errorf("failed to create cache miss metric: %w", err)
	}

	flightJoins, err := meter.Int64Counter(
		"fetch/flight_joins",
		metric.WithDescription("Resolutions that joined an in-flight fetch"),
	)
	if err != nil {
		return resolverMetricsCollection{}, fmt.Errorf("failed to create flight join metric: %w", err)
	}

	backgroundRefreshes, err := meter.Int64Counter(
		"fetch/background_refreshes",
		metric.WithDescription("Stale-while-revalidate refreshes started"),
	)
	if err != nil {
		return resolverMetricsCollection{}, fmt.Errorf("failed to create background refresh metric: %w", err)
	}

	claimSelfHeals, err := meter.Int64Counter(
		"fetch/claim_self_heals",
		metric.WithDescription("Stale registration claims cleared after the bounded wait"),
	)
	if err != nil {
		return resolverMetricsCollection{}, fmt.Errorf("failed to create claim self heal metric: %w", err)
	}

	return resolverMetricsCollection{
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		flightJoins:         flightJoins,
		backgroundRefreshes: backgroundRefreshes,
		claimSelfHeals:      claimSelfHeals,
	}, nil
}

func (r *Resolver[T]) count(ctx context.Context, counter metric.Int64Counter) {
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("resolver", r.name)))
}
