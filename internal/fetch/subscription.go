package fetch

import (
	"context"
	"sync"

	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/logging"
)

// Subscription is one subscriber's live view of an operation's data. The
// operation is fixed for the subscription's lifetime; re-resolution is
// driven by dependency-value changes and enabling, never by the identity of
// the fetch function.
type Subscription[T any] struct {
	resolver *Resolver[T]
	op       Operation[T]

	lock   sync.Mutex
	opts   Options[T]
	key    string
	state  State[T]
	closed bool
}

// Subscribe resolves the operation and keeps the subscription's state
// current until Close. Changes are delivered to opts.OnChange; the fast
// cache-hit path settles synchronously before Subscribe returns, with no
// loading flash.
func (r *Resolver[T]) Subscribe(ctx context.Context, op Operation[T], opts Options[T]) *Subscription[T] {
	s := &Subscription[T]{
		resolver: r,
		op:       op,
		opts:     opts,
		key:      r.deriveKey(ctx, op.Descriptor, opts.Dependencies),
	}

	if opts.InitialValue != nil {
		s.state = State[T]{Data: *opts.InitialValue, HasData: true}
	}

	if opts.Enabled {
		s.resolve(ctx, false)
	}

	return s
}

// State returns a snapshot of the subscriber's current view.
func (s *Subscription[T]) State() State[T] {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Refetch forces a full resolution pass, skipping the cache-hit shortcut.
// An in-flight fetch for the key is still joined. This is also the caller's
// retry mechanism: failures are never retried automatically.
func (s *Subscription[T]) Refetch(ctx context.Context) {
	s.resolve(ctx, true)
}

// ClearError clears only the error field.
func (s *Subscription[T]) ClearError() {
	s.mutate(func(state *State[T]) {
		state.Error = ""
	})
}

// SetData overwrites this subscriber's local data view. It does not touch
// the shared cache and does not notify other subscribers of the same key:
// it is an optimistic-update escape hatch, not a cache write.
func (s *Subscription[T]) SetData(value T) {
	s.mutate(func(state *State[T]) {
		state.Data = value
		state.HasData = true
		state.Loading = false
		state.Error = ""
	})
}

// SetDependencies replaces the dependency list. A change by value (a
// different derived key) re-resolves; swapping in an equal list does not.
func (s *Subscription[T]) SetDependencies(ctx context.Context, deps []cachekey.Dep) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	s.opts.Dependencies = deps
	newKey := s.resolver.deriveKey(ctx, s.op.Descriptor, deps)
	changed := newKey != s.key
	s.key = newKey
	enabled := s.opts.Enabled
	s.lock.Unlock()

	if changed && enabled {
		s.resolve(ctx, false)
	}
}

// SetEnabled flips automatic fetching. Only the false -> true transition
// triggers a resolution; disabling leaves the current state in place.
func (s *Subscription[T]) SetEnabled(ctx context.Context, enabled bool) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	wasEnabled := s.opts.Enabled
	s.opts.Enabled = enabled
	s.lock.Unlock()

	if enabled && !wasEnabled {
		s.resolve(ctx, false)
	}
}

// Close tears the subscription down. Later settlements will not mutate its
// state or invoke its callbacks; fetches already in flight run to completion
// for the benefit of other subscribers to the same key.
func (s *Subscription[T]) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
}

// mutate applies fn to the state and notifies the subscriber. No-op after
// Close: a torn-down subscriber is never written to.
func (s *Subscription[T]) mutate(fn func(state *State[T])) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	fn(&s.state)
	snapshot := s.state
	onChange := s.opts.OnChange
	s.lock.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

func (s *Subscription[T]) adopt(value T) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	onSuccess := s.opts.OnSuccess
	s.lock.Unlock()

	s.mutate(func(state *State[T]) {
		state.Data = value
		state.HasData = true
		state.Loading = false
		state.Error = ""
	})

	if onSuccess != nil {
		onSuccess(value)
	}
}

func (s *Subscription[T]) fail(ctx context.Context, err error) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	opts := s.opts
	s.lock.Unlock()

	if opts.LogFailures {
		logging.FromContext(ctx).Error(
			"fetch failed",
			"operation", s.op.Descriptor.Name,
			"error", err.Error(),
		)
	}

	s.mutate(func(state *State[T]) {
		// Never show stale data next to an error
		var zero T
		state.Data = zero
		state.HasData = false
		state.Loading = false
		state.Error = displayMessage(err, opts.DefaultErrorMessage)
	})

	if opts.OnFailure != nil {
		opts.OnFailure(err)
	}
}

// resolve runs one resolution pass: join an in-flight fetch, serve a fresh
// cache hit, or start a new fetch through the claim protocol.
func (s *Subscription[T]) resolve(ctx context.Context, force bool) {
	s.lock.Lock()
	if s.closed || !s.opts.Enabled {
		s.lock.Unlock()
		return
	}
	key := s.key
	opts := s.opts
	hasData := s.state.HasData
	s.lock.Unlock()

	r := s.resolver
	cacheEnabled := opts.TTL > 0

	if f, ok := r.registry.inFlight(key); ok {
		r.count(ctx, r.metrics.flightJoins)
		if !hasData {
			s.mutate(func(state *State[T]) { state.Loading = true })
		}
		go func() {
			value, err := r.await(ctx, key, f)
			if err != nil {
				s.fail(ctx, err)
				return
			}
			s.adopt(value)
		}()
		return
	}

	// Fast path: adopt a fresh cached value synchronously, no loading flash.
	// A caller-supplied initial value overrides the shortcut.
	if cacheEnabled && !force && opts.InitialValue == nil {
		if stored, ok := r.store.get(key, opts.TTL); ok {
			r.count(ctx, r.metrics.cacheHits)
			s.adopt(stored.value)
			if r.nowFunc().Sub(stored.storedAt) > opts.FreshFor {
				r.refreshInBackground(ctx, key, s.op, opts, s.adopt)
			}
			return
		}
	}

	r.count(ctx, r.metrics.cacheMisses)
	if !hasData {
		s.mutate(func(state *State[T]) { state.Loading = true })
	}

	go func() {
		f, err := r.startOrJoin(ctx, key, s.op.Fetch, cacheEnabled)
		if err == nil {
			var value T
			value, err = r.await(ctx, key, f)
			if err == nil {
				s.adopt(value)
				return
			}
		}
		s.fail(ctx, err)
	}()
}
