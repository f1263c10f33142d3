package twophase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func TestWrap_AtThresholdPassesThrough(t *testing.T) {
	c := New(func(o *Options) {
		o.PerIntent = map[core.Intent]int{core.IntentPlanSearch: 3}
	})
	rec := core.NewSessionRecord("s1")

	text, more := c.Wrap(rec, core.IntentPlanSearch, "full three items", "summary", 3)
	assert.Equal(t, "full three items", text)
	assert.False(t, more)
	assert.Nil(t, rec.PendingDetail)
}

func TestWrap_AboveThresholdSummarizes(t *testing.T) {
	c := New(func(o *Options) {
		o.PerIntent = map[core.Intent]int{core.IntentPlanSearch: 3}
	})
	rec := core.NewSessionRecord("s1")

	text, more := c.Wrap(rec, core.IntentPlanSearch, "full twelve items", "summary", 12)
	assert.True(t, more)
	assert.True(t, strings.HasPrefix(text, "summary"))
	assert.Contains(t, text, "elenco completo")
	require.NotNil(t, rec.PendingDetail)
	assert.Equal(t, 12, rec.PendingDetail.ItemCount)
}

func TestConfirmDetails_ReturnsStoredVerbatim(t *testing.T) {
	c := New()
	rec := core.NewSessionRecord("s1")
	full := "riga 1\nriga 2\nriga 3\nriga 4\nriga 5\nriga 6"

	_, more := c.Wrap(rec, core.IntentOverduePlans, full, "6 piani scaduti", 6)
	require.True(t, more)

	got, ok := c.ConfirmDetails(rec)
	require.True(t, ok)
	assert.Equal(t, full, got, "confirmation must return the original rendering byte-for-byte")
	assert.Nil(t, rec.PendingDetail, "confirmation consumes the envelope")

	_, ok = c.ConfirmDetails(rec)
	assert.False(t, ok)
}

func TestDeclineDetails_ClearsWithAck(t *testing.T) {
	c := New()
	rec := core.NewSessionRecord("s1")
	c.Wrap(rec, core.IntentOverduePlans, "full", "summary", 9)

	ack, ok := c.DeclineDetails(rec)
	require.True(t, ok)
	assert.NotEmpty(t, ack)
	assert.Nil(t, rec.PendingDetail)
}

func TestWrap_OverwritesNeverStacks(t *testing.T) {
	c := New()
	rec := core.NewSessionRecord("s1")

	c.Wrap(rec, core.IntentOverduePlans, "first full", "first summary", 8)
	c.Wrap(rec, core.IntentPlanSearch, "second full", "second summary", 10)

	got, ok := c.ConfirmDetails(rec)
	require.True(t, ok)
	assert.Equal(t, "second full", got)
}

func TestWrap_SmallResultClearsStaleDetail(t *testing.T) {
	c := New()
	rec := core.NewSessionRecord("s1")
	c.Wrap(rec, core.IntentOverduePlans, "big full", "summary", 8)

	text, more := c.Wrap(rec, core.IntentPlanDetail, "small full", "unused", 1)
	assert.Equal(t, "small full", text)
	assert.False(t, more)
	assert.Nil(t, rec.PendingDetail)
}
