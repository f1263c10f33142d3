package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func candidate(intent core.Intent) core.IntentCandidate {
	return core.IntentCandidate{Intent: intent, Confidence: 0.9}
}

func TestCache_GetSet(t *testing.T) {
	c := New()
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", candidate(core.IntentPlanDetail))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, core.IntentPlanDetail, got.Intent)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCache_TTLExpiryOnRead(t *testing.T) {
	c := New(func(o *Options) { o.TTL = time.Minute })
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("k", candidate(core.IntentHelp))

	c.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	_, ok := c.Get("k")
	assert.False(t, ok, "expired entry is a miss")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestCache_NeverStoresUnrecognized(t *testing.T) {
	c := New()
	c.Set("k", candidate(core.IntentUnrecognized))
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_EvictsOldestFifth(t *testing.T) {
	c := New(func(o *Options) { o.Capacity = 10 })
	base := time.Now()
	for i := 0; i < 10; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return tick }
		c.Set(fmt.Sprintf("k%d", i), candidate(core.IntentHelp))
	}
	require.Equal(t, 10, c.Len())

	c.now = func() time.Time { return base.Add(time.Minute) }
	c.Set("overflow", candidate(core.IntentHelp))

	assert.Equal(t, 9, c.Len(), "2 oldest evicted, 1 inserted")
	assert.Equal(t, int64(2), c.Stats().Evictions)

	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k2")
	assert.True(t, ok)
	_, ok = c.Get("overflow")
	assert.True(t, ok)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(func(o *Options) { o.Capacity = 2 })
	c.Set("a", candidate(core.IntentHelp))
	c.Set("b", candidate(core.IntentHelp))
	c.Set("a", candidate(core.IntentGreeting))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)
}
