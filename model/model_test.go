package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func TestMockModel_SubstringRules(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("piano", `{"intent":"plan_detail","confidence":0.9}`)

	got, err := m.Complete(context.Background(), Request{User: "dimmi del piano A1"})
	require.NoError(t, err)
	assert.Contains(t, got, "plan_detail")

	got, err = m.Complete(context.Background(), Request{User: "xyzzy"})
	require.NoError(t, err)
	assert.Contains(t, got, "unrecognized")
	assert.Equal(t, 2, m.Calls())
}

func TestMockModel_Fail(t *testing.T) {
	m := NewMockModel("test-model")
	m.Fail(errors.New("boom"))
	_, err := m.Complete(context.Background(), Request{User: "ciao"})
	assert.Error(t, err)
}

func TestRenderFewShot(t *testing.T) {
	examples := []core.Example{
		{Text: "piani scaduti", Label: core.IntentOverduePlans, Score: 0.9},
		{Text: "dimmi del piano A1", Label: core.IntentPlanDetail, Score: 0.8},
	}
	out := RenderFewShot(examples, 1)
	assert.Contains(t, out, "piani scaduti")
	assert.NotContains(t, out, "A1", "max caps the rendered examples")
	assert.Empty(t, RenderFewShot(nil, 6))
}
