package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/tenant"
	"go.opentelemetry.io/otel"
)

// A caller that loses the race for a registration claim polls for the
// winner's flight to appear. If the bounded wait expires the claim is
// considered abandoned and cleared, so a crashed claim owner can never
// deadlock the key. The tradeoff is an extremely rare duplicate fetch in
// exchange for guaranteed forward progress.
const claimWaitInterval = 10 * time.Millisecond
const claimWaitAttempts = 50

// Resolver serves "give me the data for this operation, with these
// dependency values" with TTL caching, in-flight deduplication and
// stale-while-revalidate. One resolver is constructed per resource type at
// startup and shared by every subscriber; its store, registry and memo
// tables live exactly as long as it does.
type Resolver[T any] struct {
	name    string
	deriver *cachekey.Deriver

	store    *ttlStore[T]
	registry *registry[T]

	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	metrics resolverMetricsCollection
}

func NewResolver[T any](
	name string,
	deriver *cachekey.Deriver,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) (*Resolver[T], func(), error) {
	meter := otel.Meter("fetch/resolver")
	metrics, err := setupResolverMetrics(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	store, stop := newTTLStore[T](nowFunc)

	return &Resolver[T]{
		name:      name,
		deriver:   deriver,
		store:     store,
		registry:  newRegistry[T](),
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		metrics:   metrics,
	}, stop, nil
}

func (r *Resolver[T]) deriveKey(ctx context.Context, descriptor cachekey.Descriptor, deps []cachekey.Dep) string {
	return r.deriver.Derive(descriptor, tenant.FromContext(ctx), deps)
}

// Get resolves the operation once: a fresh cache hit, a joined in-flight
// fetch, or a new fetch. A hit past its freshness threshold is returned
// immediately and refreshed in the background.
func (r *Resolver[T]) Get(ctx context.Context, op Operation[T], opts Options[T]) (T, error) {
	return r.resolveOnce(ctx, op, opts, false)
}

// Fetch resolves the operation skipping the cache-hit shortcut. An in-flight
// fetch for the same key is still joined rather than duplicated.
func (r *Resolver[T]) Fetch(ctx context.Context, op Operation[T], opts Options[T]) (T, error) {
	return r.resolveOnce(ctx, op, opts, true)
}

// Clear drops every cached entry. For test isolation.
func (r *Resolver[T]) Clear() {
	r.store.clear()
}

func (r *Resolver[T]) resolveOnce(ctx context.Context, op Operation[T], opts Options[T], skipCacheHit bool) (T, error) {
	key := r.deriveKey(ctx, op.Descriptor, opts.Dependencies)
	cacheEnabled := opts.TTL > 0

	if f, ok := r.registry.inFlight(key); ok {
		r.count(ctx, r.metrics.flightJoins)
		return r.await(ctx, key, f)
	}

	if cacheEnabled && !skipCacheHit {
		if stored, ok := r.store.get(key, opts.TTL); ok {
			r.count(ctx, r.metrics.cacheHits)
			if r.nowFunc().Sub(stored.storedAt) > opts.FreshFor {
				r.refreshInBackground(ctx, key, op, opts, nil)
			}
			return stored.value, nil
		}
	}

	r.count(ctx, r.metrics.cacheMisses)
	f, err := r.startOrJoin(ctx, key, op.Fetch, cacheEnabled)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.await(ctx, key, f)
}

// startOrJoin returns the flight serving key, starting one if none exists.
// cacheResult controls whether a successful result is written to the store.
func (r *Resolver[T]) startOrJoin(ctx context.Context, key string, fetchFunc func(context.Context) (T, error), cacheResult bool) (*flight[T], error) {
	for {
		if f, ok := r.registry.inFlight(key); ok {
			return f, nil
		}

		if r.registry.tryAcquire(key) {
			return r.startFlight(ctx, key, fetchFunc, cacheResult), nil
		}

		// Another caller holds the registration claim but has not published
		// its flight yet. Wait bounded for it to appear.
		stillClaimed := true
		for attempt := 0; attempt < claimWaitAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-r.afterFunc(claimWaitInterval):
			}

			if f, ok := r.registry.inFlight(key); ok {
				return f, nil
			}
			if !r.registry.claimed(key) {
				stillClaimed = false
				break
			}
		}

		if stillClaimed {
			// The claim owner disappeared between acquiring and registering.
			// Clear the abandoned claim so the key cannot deadlock.
			r.registry.release(key)
			r.count(ctx, r.metrics.claimSelfHeals)
		}
	}
}

func (r *Resolver[T]) startFlight(ctx context.Context, key string, fetchFunc func(context.Context) (T, error), cacheResult bool) *flight[T] {
	f := r.registry.register(key)

	// The fetch outlives the caller that started it: a subscriber torn down
	// mid-flight must not abort the fetch for everyone else joined to it.
	fetchCtx := context.WithoutCancel(ctx)

	go func() {
		value, err := fetchFunc(fetchCtx)
		if err != nil {
			// Never serve a value that a refresh attempt proved stale
			r.store.delete(key)
			r.registry.unregister(key, f)
			var zero T
			f.settle(zero, err)
			return
		}

		if cacheResult {
			r.store.set(key, value)
		}
		r.registry.unregister(key, f)
		f.settle(value, nil)
	}()

	return f
}

func (r *Resolver[T]) await(ctx context.Context, key string, f *flight[T]) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
	}

	if f.err != nil {
		// The owner already unregistered; this removal is defensive
		r.registry.unregister(key, f)
		var zero T
		return zero, f.err
	}
	return f.value, nil
}

func (r *Resolver[T]) refreshInBackground(ctx context.Context, key string, op Operation[T], opts Options[T], adopt func(T)) {
	r.count(ctx, r.metrics.backgroundRefreshes)

	refreshCtx := context.WithoutCancel(ctx)
	go func() {
		f, err := r.startOrJoin(refreshCtx, key, op.Fetch, opts.TTL > 0)
		if err == nil {
			var value T
			value, err = r.await(refreshCtx, key, f)
			if err == nil {
				if adopt != nil {
					adopt(value)
				}
				return
			}
		}

		// The value already on display stays put: the failure happened out of
		// sight. The cache entry was evicted on failure, so the next
		// resolution fetches fresh instead of re-serving it.
		if opts.LogFailures {
			logging.FromContext(refreshCtx).Error(
				"background refresh failed",
				"operation", op.Descriptor.Name,
				"error", err.Error(),
			)
		}
		if opts.OnFailure != nil {
			opts.OnFailure(err)
		}
	}()
}
