// Package resource provides pools of opaque resource identifiers (proxies,
// sessions) that switch-resource recoveries draw replacements from.
package resource

import (
	"context"
	"errors"
	"sync"
)

// ErrEmpty is returned when a pool has no resources to hand out.
var ErrEmpty = errors.New("resource pool is empty")

// Pool selects replacement resources. Next should avoid returning exclude
// when any alternative exists.
type Pool interface {
	// Next returns the next resource id, rotating through the pool.
	Next(ctx context.Context, exclude string) (string, error)

	// Size returns the number of resources in the pool.
	Size(ctx context.Context) (int, error)
}

// StaticPool rotates round-robin over a fixed set of resource ids.
type StaticPool struct {
	mu   sync.Mutex
	ids  []string
	last int
}

// NewStaticPool creates a pool over the given ids.
func NewStaticPool(ids []string) *StaticPool {
	return &StaticPool{ids: append([]string(nil), ids...), last: -1}
}

// Next returns the next id after the previously returned one, skipping
// exclude unless it is the only resource.
func (p *StaticPool) Next(_ context.Context, exclude string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ids) == 0 {
		return "", ErrEmpty
	}

	for i := 0; i < len(p.ids); i++ {
		p.last = (p.last + 1) % len(p.ids)
		if p.ids[p.last] != exclude {
			return p.ids[p.last], nil
		}
	}
	// Everything matched exclude; hand it back anyway.
	return p.ids[p.last], nil
}

// Size returns the pool size.
func (p *StaticPool) Size(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids), nil
}
