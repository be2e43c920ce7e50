package fetch

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// maxEntryLifetime bounds how long any entry survives regardless of the
// per-call TTLs used to read it. The backing cache sweeps expired entries in
// the background, so the store cannot grow for the lifetime of the process.
const maxEntryLifetime = 1 * time.Hour

type entry[T any] struct {
	value    T
	storedAt time.Time
}

type ttlStore[T any] struct {
	entries *ttlcache.Cache[string, entry[T]]
	nowFunc func() time.Time
}

func newTTLStore[T any](nowFunc func() time.Time) (*ttlStore[T], func()) {
	entries := ttlcache.New[string, entry[T]](
		ttlcache.WithTTL[string, entry[T]](maxEntryLifetime),
		ttlcache.WithDisableTouchOnHit[string, entry[T]](),
	)
	go entries.Start()

	return &ttlStore[T]{
		entries: entries,
		nowFunc: nowFunc,
	}, entries.Stop
}

// get returns a hit only if the entry is younger than ttl. Freshness is
// decided per call: different consumers may want different freshness for the
// same entry. Entries that fail the check are evicted.
func (s *ttlStore[T]) get(key string, ttl time.Duration) (entry[T], bool) {
	item := s.entries.Get(key)
	if item == nil {
		return entry[T]{}, false
	}

	stored := item.Value()
	if s.nowFunc().Sub(stored.storedAt) >= ttl {
		s.entries.Delete(key)
		return entry[T]{}, false
	}

	return stored, true
}

func (s *ttlStore[T]) set(key string, value T) {
	s.entries.Set(key, entry[T]{value: value, storedAt: s.nowFunc()}, ttlcache.DefaultTTL)
}

func (s *ttlStore[T]) delete(key string) {
	s.entries.Delete(key)
}

func (s *ttlStore[T]) clear() {
	s.entries.DeleteAll()
}
