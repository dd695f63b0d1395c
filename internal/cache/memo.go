package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo is a TTL-bounded memoizer with request coalescing: concurrent
// callers of the same key share one in-flight producer call. Errors are
// never cached. The cache is transparent — callers get the same result
// with or without it, only latency differs.
type Memo struct {
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value   any
	expires time.Time
}

func New() *Memo {
	return &Memo{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Do returns the cached value for key if fresh, otherwise runs fn
// (coalesced across concurrent callers) and caches its result for ttl.
// A ttl of zero or less disables caching but keeps coalescing.
func (m *Memo) Do(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// A coalesced sibling may have populated the entry already.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}

		v, err := fn()
		if err != nil {
			return nil, err
		}

		if ttl > 0 {
			m.mu.Lock()
			m.entries[key] = entry{value: v, expires: m.now().Add(ttl)}
			m.mu.Unlock()
		}
		return v, nil
	})
	return v, err
}

// Forget drops a key so the next Do re-runs its producer.
func (m *Memo) Forget(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	m.group.Forget(key)
}

func (m *Memo) lookup(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Cached is a typed wrapper over Memo.Do.
func Cached[T any](m *Memo, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	v, err := m.Do(key, ttl, func() (any, error) {
		t, err := fn()
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}
