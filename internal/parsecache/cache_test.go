// SPDX-License-Identifier: Apache-2.0

package parsecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
)

func TestNewRaisesCapacityToMinimum(t *testing.T) {
	t.Parallel()

	c := New(1)
	assert.Equal(t, MinCapacity, c.capacity)
}

func TestCacheGetOrParseMissesThenHits(t *testing.T) {
	t.Parallel()

	c := New(MinCapacity)
	var calls int32
	parse := func(context.Context, string) (Entry, error) {
		atomic.AddInt32(&calls, 1)
		return Entry{Grammar: pgastparse.Result{Kind: pgastparse.KindSelect}}, nil
	}

	e1, err := c.GetOrParse(context.Background(), "select 1", parse)
	require.NoError(t, err)
	e2, err := c.GetOrParse(context.Background(), "select 1", parse)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, e1, e2)
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	c := New(MinCapacity)
	var calls int32
	start := make(chan struct{})
	parse := func(context.Context, string) (Entry, error) {
		<-start
		atomic.AddInt32(&calls, 1)
		return Entry{Grammar: pgastparse.Result{Kind: pgastparse.KindSelect}}, nil
	}

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := c.GetOrParse(context.Background(), "select 1 from t", parse)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := New(MinCapacity)
	noop := func(context.Context, string) (Entry, error) { return Entry{}, nil }

	for i := 0; i < MinCapacity; i++ {
		_, err := c.GetOrParse(context.Background(), sqlFor(i), noop)
		require.NoError(t, err)
	}
	require.Equal(t, MinCapacity, c.Len())

	// Touch the very first key so it isn't the LRU victim.
	_, err := c.GetOrParse(context.Background(), sqlFor(0), noop)
	require.NoError(t, err)

	// One more insert pushes the cache over capacity; key 1 (now least
	// recently used) should be evicted, key 0 should survive.
	_, err = c.GetOrParse(context.Background(), sqlFor(MinCapacity), noop)
	require.NoError(t, err)

	assert.LessOrEqual(t, c.Len(), MinCapacity)
	_, ok0 := c.Get(HashText(sqlFor(0)))
	_, ok1 := c.Get(HashText(sqlFor(1)))
	assert.True(t, ok0)
	assert.False(t, ok1)
}

func TestCachePurgeEmptiesEntries(t *testing.T) {
	t.Parallel()

	c := New(MinCapacity)
	noop := func(context.Context, string) (Entry, error) { return Entry{}, nil }
	_, err := c.GetOrParse(context.Background(), "select 1", noop)
	require.NoError(t, err)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func sqlFor(i int) string {
	return "select " + string(rune('a'+i%26)) + string(rune(i))
}
