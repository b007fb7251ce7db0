package wizard

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Registry holds one wizard per browser. A wizard left idle starts over.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry(idle time.Duration) *Registry {
	return &Registry{cache: cache.New(idle, 10*time.Minute)}
}

func (r *Registry) Get(sid string, build func() *Wizard) *Wizard {
	if x, found := r.cache.Get(sid); found {
		r.cache.Set(sid, x, cache.DefaultExpiration)
		return x.(*Wizard)
	}
	w := build()
	if err := r.cache.Add(sid, w, cache.DefaultExpiration); err != nil {
		if x, found := r.cache.Get(sid); found {
			return x.(*Wizard)
		}
		r.cache.Set(sid, w, cache.DefaultExpiration)
	}
	return w
}

func (r *Registry) Drop(sid string) {
	r.cache.Delete(sid)
}
