package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func echoTool(name string) *FuncTool {
	return NewFuncTool(name, func(_ context.Context, intent core.Intent, slots core.Slots, _ map[string]string) (*Result, error) {
		return &Result{Rendering: string(intent) + ":" + slots.Get(core.SlotPlanCode)}, nil
	})
}

func TestFuncTool_NormalizesErrors(t *testing.T) {
	boom := NewFuncTool("boom", func(context.Context, core.Intent, core.Slots, map[string]string) (*Result, error) {
		return nil, errors.New("db unreachable")
	})
	_, err := boom.Call(context.Background(), core.IntentPlanDetail, nil, nil)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "EXECUTION_ERROR", te.Code)
	assert.Equal(t, "boom", te.Tool)
}

func TestFuncTool_PreservesToolErrorCode(t *testing.T) {
	boom := NewFuncTool("boom", func(context.Context, core.Intent, core.Slots, map[string]string) (*Result, error) {
		return nil, NewToolError("boom", "bad plan code", "NOT_FOUND")
	})
	_, err := boom.Call(context.Background(), core.IntentPlanDetail, nil, nil)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "NOT_FOUND", te.Code)
}

func TestRegistry_DispatchAndValidate(t *testing.T) {
	r := NewRegistry()
	for _, spec := range core.DomainIntents() {
		r.Register(echoTool("echo"), spec.Name)
	}
	require.NoError(t, r.Validate())

	res, err := r.Call(context.Background(), core.IntentPlanDetail, core.Slots{core.SlotPlanCode: "A1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "plan_detail:A1", res.Rendering)
}

func TestRegistry_ValidateReportsUnmapped(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"), core.IntentPlanDetail)

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(core.IntentPlanSearch))
	assert.NotContains(t, err.Error(), string(core.IntentGreeting), "conversational intents need no tool")
}

func TestRegistry_UnmappedIntentCall(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), core.IntentPlanSearch, nil, nil)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "UNMAPPED_INTENT", te.Code)
}
