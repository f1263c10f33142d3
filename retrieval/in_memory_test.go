package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func TestInMemoryIndex_Retrieve(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Add("quali piani sono scaduti", core.IntentOverduePlans)
	idx.Add("elenco dei piani scaduti", core.IntentOverduePlans)
	idx.Add("piani in ritardo", core.IntentOverduePlans)
	idx.Add("dimmi del piano A1", core.IntentPlanDetail)

	got := idx.Retrieve(context.Background(), "piani scaduti", 6, 0.01, 2)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 6)

	// Descending order.
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	// Label diversity: at most 2 per label.
	perLabel := map[core.Intent]int{}
	for _, ex := range got {
		perLabel[ex.Label]++
	}
	assert.LessOrEqual(t, perLabel[core.IntentOverduePlans], 2)
}

func TestInMemoryIndex_EmptyOnNoMatch(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Add("dimmi del piano A1", core.IntentPlanDetail)

	assert.Empty(t, idx.Retrieve(context.Background(), "qualcosa di completamente diverso", 6, 0.2, 2))
	assert.Empty(t, idx.Retrieve(context.Background(), "", 6, 0, 2))
	assert.Empty(t, idx.Retrieve(context.Background(), "piano", 0, 0, 2))
}

func TestNewSeededIndex(t *testing.T) {
	idx := NewSeededIndex()
	assert.Greater(t, idx.Len(), 10)

	got := idx.Retrieve(context.Background(), "quali piani sono scaduti?", 3, 0.05, 1)
	require.NotEmpty(t, got)
	assert.Equal(t, core.IntentOverduePlans, got[0].Label)
}
