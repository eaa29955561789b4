// SPDX-License-Identifier: Apache-2.0

package schemacache

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultRefreshTimeout is the floor the spec requires ("≥ 5s"; §5).
const DefaultRefreshTimeout = 5 * time.Second

// Cache holds the current Snapshot behind an atomic pointer, so readers
// never block on a refresh and a refresh never blocks a reader (§4.5:
// "swapping is a single atomic pointer replacement").
type Cache struct {
	current atomic.Pointer[Snapshot]
	timeout time.Duration
}

// NewCache creates a Cache seeded with an empty snapshot so that
// completion providers always have something to read, even before the
// first successful refresh.
func NewCache(timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	c := &Cache{timeout: timeout}
	c.current.Store(Empty())
	return c
}

// Snapshot returns the current snapshot. Always non-nil.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Refresh builds a new snapshot via q and swaps it in on success. On
// timeout or query error, the previous snapshot is retained and the
// error returned to the caller for logging — never to a completion
// request (§7: SchemaUnavailable never propagates to completions).
func (c *Cache) Refresh(ctx context.Context, q Querier) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	snap, err := Build(ctx, q)
	if err != nil {
		return err
	}
	c.current.Store(snap)
	return nil
}
