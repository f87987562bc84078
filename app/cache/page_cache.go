package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Pages memoizes computed listing pages by page number, bounded by entry
// count (LRU) and optionally by age. For a given page number at most one
// computation is in flight at a time; concurrent requesters share its
// result. Failed computations are never stored, so the next request for
// that page retries.
type Pages[V any] struct {
	lru   *expirable.LRU[int, V]
	group singleflight.Group
}

// NewPages creates a cache holding up to size pages. A ttl of 0 disables
// age-based eviction.
func NewPages[V any](size int, ttl time.Duration) *Pages[V] {
	return &Pages[V]{
		lru: expirable.NewLRU[int, V](size, nil, ttl),
	}
}

// GetOrFetch returns the cached value for page, or invokes fetch exactly
// once among concurrent callers and stores its result. The computation
// runs detached from the caller's context: aborting one request leaves
// the other waiters unaffected, and a computation that completes after
// every waiter has gone still populates the cache for future requests.
func (p *Pages[V]) GetOrFetch(ctx context.Context, page int, fetch func(context.Context) (V, error)) (V, error) {
	if value, ok := p.lru.Get(page); ok {
		return value, nil
	}

	ch := p.group.DoChan(strconv.Itoa(page), func() (interface{}, error) {
		value, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.lru.Add(page, value)
		return value, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Len reports the number of cached pages.
func (p *Pages[V]) Len() int {
	return p.lru.Len()
}

// Purge drops every cached page.
func (p *Pages[V]) Purge() {
	p.lru.Purge()
}
