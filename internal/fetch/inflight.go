package fetch

import "sync"

// flight is one in-progress fetch. Joiners wait on done, then read value and
// err; both are written exactly once before done is closed.
type flight[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func (f *flight[T]) settle(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// registry tracks in-progress fetches and registration claims per key.
//
// A claim is the window between a caller winning the right to start a fetch
// and publishing its flight. Callers observing a claim without a flight wait
// bounded for the flight to appear (see the resolver) instead of starting a
// duplicate fetch. At most one claim or flight exists per key at any instant.
type registry[T any] struct {
	lock    sync.Mutex
	flights map[string]*flight[T]
	claims  map[string]struct{}
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		flights: make(map[string]*flight[T]),
		claims:  make(map[string]struct{}),
	}
}

func (r *registry[T]) inFlight(key string) (*flight[T], bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	f, ok := r.flights[key]
	return f, ok
}

func (r *registry[T]) claimed(key string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	_, ok := r.claims[key]
	return ok
}

// tryAcquire claims the right to register a flight for key. Fails if the key
// is already claimed or in flight.
func (r *registry[T]) tryAcquire(key string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.claims[key]; ok {
		return false
	}
	if _, ok := r.flights[key]; ok {
		return false
	}

	r.claims[key] = struct{}{}
	return true
}

// register publishes a new flight for key and releases the claim.
func (r *registry[T]) register(key string) *flight[T] {
	r.lock.Lock()
	defer r.lock.Unlock()

	f := &flight[T]{done: make(chan struct{})}
	r.flights[key] = f
	delete(r.claims, key)
	return f
}

// release drops a claim without registering a flight.
func (r *registry[T]) release(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.claims, key)
}

// unregister removes the flight for key if it is still the given one.
// Idempotent: joiners of a failed flight may remove it defensively after the
// owner already has, and a newer flight for the same key is left alone.
func (r *registry[T]) unregister(key string, f *flight[T]) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if current, ok := r.flights[key]; ok && current == f {
		delete(r.flights, key)
	}
}
