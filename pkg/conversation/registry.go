package conversation

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Registry keeps one engine per browser and surface. Idle engines expire and
// are closed so late replies are discarded.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry(idle time.Duration) *Registry {
	c := cache.New(idle, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if e, ok := v.(*Engine); ok {
			e.Close()
		}
	})
	return &Registry{cache: c}
}

func registryKey(sid string, surface Surface) string {
	return sid + ":" + string(surface)
}

// Get returns the live engine, creating it with build on first use.
func (r *Registry) Get(sid string, surface Surface, build func() *Engine) *Engine {
	key := registryKey(sid, surface)
	if x, found := r.cache.Get(key); found {
		r.cache.Set(key, x, cache.DefaultExpiration)
		return x.(*Engine)
	}

	// An entry that went idle is invisible to Get but still stored until the
	// janitor runs. Evict it now so it is closed before being replaced.
	r.cache.DeleteExpired()

	e := build()
	if err := r.cache.Add(key, e, cache.DefaultExpiration); err != nil {
		// Lost a race with another request of the same browser.
		if x, found := r.cache.Get(key); found {
			return x.(*Engine)
		}
		r.cache.Set(key, e, cache.DefaultExpiration)
	}
	return e
}

// Peek returns the engine without creating one.
func (r *Registry) Peek(sid string, surface Surface) (*Engine, bool) {
	x, found := r.cache.Get(registryKey(sid, surface))
	if !found {
		return nil, false
	}
	return x.(*Engine), true
}

// Reset closes and forgets one surface's engine.
func (r *Registry) Reset(sid string, surface Surface) {
	r.cache.Delete(registryKey(sid, surface))
}

// Drop closes and forgets every engine of a browser.
func (r *Registry) Drop(sid string) {
	for _, s := range Surfaces {
		r.Reset(sid, s)
	}
}
