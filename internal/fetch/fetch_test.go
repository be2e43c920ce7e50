package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clinova/beacon/internal/cachekey"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// immediateAfter never actually waits. Claim-wait polling runs its bounded
// attempts instantly, keeping lock-contention tests fast and deterministic.
func immediateAfter(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func newTestResolver(t *testing.T, clock *fakeClock) *Resolver[string] {
	t.Helper()

	scopes, err := cachekey.NewScopeList([]string{`^settings\.`}, nil)
	require.NoError(t, err)

	resolver, stop, err := NewResolver[string]("test", cachekey.NewDeriver(scopes), clock.Now, immediateAfter)
	require.NoError(t, err)
	t.Cleanup(stop)

	return resolver
}

// countingFetcher counts fetch invocations. With a non-nil block channel
// every fetch waits for it to be closed before returning.
type countingFetcher struct {
	lock  sync.Mutex
	calls int
	value string
	err   error
	block chan struct{}
}

func (f *countingFetcher) operation(name string) Operation[string] {
	return Operation[string]{
		Descriptor: cachekey.Descriptor{Name: name, Path: "internal/fetch/fetch_test.go"},
		Fetch: func(ctx context.Context) (string, error) {
			f.lock.Lock()
			f.calls++
			block := f.block
			f.lock.Unlock()

			if block != nil {
				select {
				case <-block:
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}

			f.lock.Lock()
			defer f.lock.Unlock()
			return f.value, f.err
		},
	}
}

func (f *countingFetcher) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

func (f *countingFetcher) SetBlock(ch chan struct{}) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.block = ch
}

func (f *countingFetcher) SetResult(value string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.value = value
	f.err = err
}

func testOptions(deps ...cachekey.Dep) Options[string] {
	opts := NewOptions[string]()
	opts.LogFailures = false
	opts.Dependencies = deps
	return opts
}
