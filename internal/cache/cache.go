// Package cache holds built datasets keyed by the content they were built
// from. Callers own the key and decide when to invalidate.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"joetracker-engine/internal/domain"
)

const DefaultTTL = time.Hour

type Datasets struct {
	mu sync.Mutex // serializes builds
	c  *gocache.Cache
}

func NewDatasets(ttl time.Duration) *Datasets {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Datasets{c: gocache.New(ttl, 2*ttl)}
}

// Get returns the dataset cached under key, or calls build and caches its
// result. Build errors are returned and nothing is stored.
func (d *Datasets) Get(key string, build func() (domain.Dataset, error)) (domain.Dataset, error) {
	if v, ok := d.c.Get(key); ok {
		return v.(domain.Dataset), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := d.c.Get(key); ok {
		return v.(domain.Dataset), nil
	}
	ds, err := build()
	if err != nil {
		return domain.Dataset{}, err
	}
	d.c.SetDefault(key, ds)
	return ds, nil
}

func (d *Datasets) Invalidate() {
	d.c.Flush()
}

func (d *Datasets) Len() int {
	return d.c.ItemCount()
}
