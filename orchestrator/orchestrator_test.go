package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/model"
	"github.com/dvitale/gias/tool"
	"github.com/dvitale/gias/twophase"
)

func echoRegistry() *tool.Registry {
	r := tool.NewRegistry()
	echo := tool.NewFuncTool("echo", func(_ context.Context, intent core.Intent, slots core.Slots, _ map[string]string) (*tool.Result, error) {
		return &tool.Result{Rendering: "ok:" + string(intent) + ":" + slots.Get(core.SlotPlanCode), ItemCount: 1}, nil
	})
	for _, spec := range core.DomainIntents() {
		r.Register(echo, spec.Name)
	}
	return r
}

func newOrchestrator(t *testing.T, mock *model.MockModel, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	all := append([]func(o *Options){func(o *Options) { o.Model = mock }}, optFns...)
	o, err := New(echoRegistry(), all...)
	require.NoError(t, err)
	return o
}

func turnIn(utterance string, state *core.DialogueState) core.TurnInput {
	return core.TurnInput{
		Utterance: utterance,
		Metadata:  map[string]string{core.MetadataSessionID: "s1"},
		State:     state,
	}
}

func TestNew_RejectsIncompleteRegistry(t *testing.T) {
	r := tool.NewRegistry()
	_, err := New(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmapped")
}

func TestTurn_GreetingColdSession(t *testing.T) {
	mock := model.NewMockModel("mock")
	o := newOrchestrator(t, mock)

	out := o.Turn(context.Background(), turnIn("ciao", nil))
	assert.Equal(t, core.IntentGreeting, out.Intent)
	assert.Equal(t, core.ActionExecute, out.Action)
	assert.NotEmpty(t, out.Text)
	assert.Zero(t, mock.Calls(), "a heuristic hit must not reach the model")
	require.NotNil(t, out.State)
	assert.Equal(t, 1, out.State.TurnCount)
}

func TestTurn_PlanCodeExecutesTool(t *testing.T) {
	o := newOrchestrator(t, model.NewMockModel("mock"))

	out := o.Turn(context.Background(), turnIn("piano A1", nil))
	assert.Equal(t, core.IntentPlanDetail, out.Intent)
	assert.Equal(t, core.ActionExecute, out.Action)
	assert.Equal(t, "ok:plan_detail:A1", out.Text)
}

func TestTurn_MissingSlotThenPendingBinding(t *testing.T) {
	mock := model.NewMockModel("mock")
	o := newOrchestrator(t, mock)
	ctx := context.Background()

	first := o.Turn(ctx, turnIn("dimmi del piano", nil))
	assert.Equal(t, core.ActionAsk, first.Action)
	assert.Contains(t, first.Text, "Quale piano")
	require.NotNil(t, first.State)
	assert.Equal(t, []string{core.SlotPlanCode}, first.State.MissingSlots)

	calls := mock.Calls()
	second := o.Turn(ctx, turnIn("A1", first.State))
	assert.Equal(t, core.IntentPlanDetail, second.Intent)
	assert.Equal(t, core.ActionExecute, second.Action)
	assert.Equal(t, "ok:plan_detail:A1", second.Text)
	assert.Equal(t, calls, mock.Calls(), "the pending-slot path binds without reclassifying")
}

func TestTurn_TwoPhaseSummaryThenConfirm(t *testing.T) {
	registry := echoRegistry()
	full := strings.Repeat("riga\n", 12)
	registry.Register(tool.NewFuncTool("search", func(context.Context, core.Intent, core.Slots, map[string]string) (*tool.Result, error) {
		return &tool.Result{Rendering: full, Summary: "12 piani trovati", ItemCount: 12}, nil
	}), core.IntentPlanSearch)

	o, err := New(registry, func(o *Options) {
		o.Model = model.NewMockModel("mock")
		o.TwoPhase = twophase.New(func(t *twophase.Options) {
			t.PerIntent = map[core.Intent]int{core.IntentPlanSearch: 3}
		})
	})
	require.NoError(t, err)
	ctx := context.Background()

	first := o.Turn(ctx, turnIn("quali piani sul benessere animale?", nil))
	require.Equal(t, core.ActionExecute, first.Action)
	assert.True(t, first.HasMoreDetails)
	assert.Contains(t, first.Text, "12 piani trovati")
	assert.NotContains(t, first.Text, full)

	second := o.Turn(ctx, turnIn("sì", first.State))
	assert.Equal(t, core.IntentConfirm, second.Intent)
	assert.Equal(t, full, second.Text, "confirmation returns the original rendering unchanged")
	assert.False(t, second.HasMoreDetails)
}

func TestTurn_MismatchedWorkflowTokenIgnoresPending(t *testing.T) {
	o := newOrchestrator(t, model.NewMockModel("mock"))

	st := core.NewDialogueState(time.Now())
	st.ConfirmedIntent = core.IntentPriorityRanking
	st.PendingStrategy = core.StrategyRisk
	st.Pending = &core.PendingQuestion{Kind: core.QuestionStrategyChoice, Token: core.NewToken()}

	in := turnIn("quali piani sono scaduti?", st)
	in.Workflow = &core.WorkflowContext{
		Type:    core.IntentPriorityRanking,
		Stage:   core.StageChoosing,
		Token:   core.NewToken(),
		Created: time.Now(),
	}

	out := o.Turn(context.Background(), in)
	assert.Equal(t, core.IntentOverduePlans, out.Intent,
		"a forged continuation must not hijack the turn; the raw text is classified")
	require.NotNil(t, out.State)
	assert.Nil(t, out.State.Pending)
}

func TestTurn_BlankUtterance(t *testing.T) {
	mock := model.NewMockModel("mock")
	o := newOrchestrator(t, mock)

	out := o.Turn(context.Background(), turnIn("   ", nil))
	assert.Equal(t, core.ActionFallback, out.Action)
	assert.Equal(t, emptyInputMessage, out.Text)
	assert.Zero(t, mock.Calls())
}

func TestTurn_FallbackThenSelection(t *testing.T) {
	o := newOrchestrator(t, model.NewMockModel("mock"))
	ctx := context.Background()

	first := o.Turn(ctx, turnIn("xkcd fnord", nil))
	require.Equal(t, core.ActionFallback, first.Action)
	assert.Contains(t, first.Text, "1.")

	second := o.Turn(ctx, turnIn("1", first.State))
	assert.NotEqual(t, core.ActionFallback, second.Action, "a menu pick resolves against the stored options")
}

func TestTurn_ToolFailureDegrades(t *testing.T) {
	registry := echoRegistry()
	registry.Register(tool.NewFuncTool("boom", func(context.Context, core.Intent, core.Slots, map[string]string) (*tool.Result, error) {
		return nil, tool.NewToolError("boom", "backend down", "EXECUTION_ERROR")
	}), core.IntentOverduePlans)

	o, err := New(registry, func(o *Options) { o.Model = model.NewMockModel("mock") })
	require.NoError(t, err)

	out := o.Turn(context.Background(), turnIn("quali piani sono scaduti?", nil))
	assert.Equal(t, core.ActionExecute, out.Action)
	assert.Equal(t, toolErrorMessage, out.Text)
}

func TestTurn_HardTimeout(t *testing.T) {
	registry := echoRegistry()
	registry.Register(tool.NewFuncTool("slow", func(context.Context, core.Intent, core.Slots, map[string]string) (*tool.Result, error) {
		time.Sleep(300 * time.Millisecond)
		return &tool.Result{Rendering: "late"}, nil
	}), core.IntentPlanDetail)

	o, err := New(registry, func(o *Options) {
		o.Model = model.NewMockModel("mock")
		o.TurnTimeout = 50 * time.Millisecond
	})
	require.NoError(t, err)

	out := o.Turn(context.Background(), turnIn("piano A1", nil))
	assert.Equal(t, timeoutMessage, out.Text)
	assert.Equal(t, core.ActionFallback, out.Action)
}

func TestTurn_FallbackSelectionCarriesMetadata(t *testing.T) {
	var seen map[string]string
	registry := echoRegistry()
	registry.Register(tool.NewFuncTool("capture", func(_ context.Context, _ core.Intent, _ core.Slots, md map[string]string) (*tool.Result, error) {
		seen = md
		return &tool.Result{Rendering: "elenco", ItemCount: 1}, nil
	}), core.IntentOverduePlans)

	o, err := New(registry, func(o *Options) { o.Model = model.NewMockModel("mock") })
	require.NoError(t, err)
	ctx := context.Background()

	first := o.Turn(ctx, turnIn("elenco scadenze scaduti", nil))
	require.Equal(t, core.ActionFallback, first.Action)

	second := o.Turn(ctx, turnIn("1", first.State))
	require.Equal(t, core.ActionExecute, second.Action)
	assert.Equal(t, core.IntentOverduePlans, second.Intent)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen[core.MetadataSessionID], "a menu pick runs the tool with the caller's metadata")
}

func TestTurn_CarriedWorkflowFiltersReachState(t *testing.T) {
	o := newOrchestrator(t, model.NewMockModel("mock"))

	in := turnIn("quali piani sono scaduti?", nil)
	in.Workflow = &core.WorkflowContext{
		Type:    core.IntentPlanSearch,
		Stage:   core.StageExecuting,
		Token:   core.NewToken(),
		Filters: core.Slots{core.SlotLimit: "100"},
		Created: time.Now(),
	}
	out := o.Turn(context.Background(), in)
	require.NotNil(t, out.State)
	assert.Equal(t, "100", out.State.Filters.Get(core.SlotLimit), "sanitized carried filters join the filter memory")
}

func TestLockSession_DropsEntryOnRelease(t *testing.T) {
	o := newOrchestrator(t, model.NewMockModel("mock"))

	unlock := o.lockSession("s1")
	o.mu.Lock()
	assert.Len(t, o.locks, 1)
	o.mu.Unlock()

	unlock()
	o.mu.Lock()
	assert.Empty(t, o.locks, "released sessions leave no lock entry behind")
	o.mu.Unlock()

	o.Turn(context.Background(), turnIn("ciao", nil))
	o.mu.Lock()
	assert.Empty(t, o.locks)
	o.mu.Unlock()
}
