package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots_MergeAdditive(t *testing.T) {
	s := Slots{"plan_code": "A1", "topic": "benessere"}

	// Empty and nil merges never change anything.
	assert.True(t, s.Merge(nil).Equal(Slots{"plan_code": "A1", "topic": "benessere"}))
	assert.True(t, s.Merge(Slots{}).Equal(Slots{"plan_code": "A1", "topic": "benessere"}))

	// An empty value never erases a remembered one.
	s = s.Merge(Slots{"plan_code": ""})
	assert.Equal(t, "A1", s.Get("plan_code"))

	// Non-empty overwrites; merging the same value twice equals merging once.
	s = s.Merge(Slots{"plan_code": "B3"})
	once := s.Clone()
	s = s.Merge(Slots{"plan_code": "B3"})
	assert.True(t, s.Equal(once))
	assert.Equal(t, "B3", s.Get("plan_code"))
}

func TestSlots_NilReceiver(t *testing.T) {
	var s Slots
	assert.Equal(t, "", s.Get("plan_code"))
	merged := s.Merge(Slots{"plan_code": "A1"})
	assert.Equal(t, "A1", merged.Get("plan_code"))
}

func TestDialogueState_TTLBoundary(t *testing.T) {
	now := time.Now().UTC()

	fresh := NewDialogueState(now.Add(-StateTTL)) // exactly 300s old
	fresh.Slots.Set(SlotPlanCode, "A1")
	fresh.TurnCount = 3

	got := fresh.Prepare(now)
	assert.Equal(t, 4, got.TurnCount, "a state aged exactly at the TTL is still accepted")
	assert.Equal(t, "A1", got.Slots.Get(SlotPlanCode))

	stale := NewDialogueState(now.Add(-StateTTL - time.Second)) // 301s old
	stale.Slots.Set(SlotPlanCode, "A1")
	stale.TurnCount = 3

	got = stale.Prepare(now)
	assert.Equal(t, 1, got.TurnCount, "an expired state is treated as absent")
	assert.Empty(t, got.Slots.Get(SlotPlanCode))
}

func TestDialogueState_PrepareNil(t *testing.T) {
	var d *DialogueState
	got := d.Prepare(time.Now())
	require.NotNil(t, got)
	assert.Equal(t, 1, got.TurnCount)
	assert.NotNil(t, got.Slots)
	assert.NotNil(t, got.Filters)
}

func TestDialogueState_CloneIsIndependent(t *testing.T) {
	d := NewDialogueState(time.Now())
	d.Slots.Set(SlotPlanCode, "A1")
	d.Pending = &PendingQuestion{Kind: QuestionStrategyChoice, Token: NewToken()}

	c := d.Clone()
	c.Slots.Set(SlotPlanCode, "B3")
	c.Pending.StrategyID = StrategyRisk

	assert.Equal(t, "A1", d.Slots.Get(SlotPlanCode))
	assert.Empty(t, d.Pending.StrategyID)
}

func TestToken_Matches(t *testing.T) {
	tok := NewToken()
	assert.True(t, tok.Matches(tok))
	assert.False(t, tok.Matches(NewToken()))
	assert.False(t, Token("").Matches(Token("")), "empty tokens never match, not even each other")
}

func TestSpec_MissingSlots(t *testing.T) {
	search, ok := LookupIntent(IntentPlanSearch)
	require.True(t, ok)

	// "at least one of" group: either topic or nc_category satisfies it.
	assert.Equal(t, []string{SlotTopic}, search.MissingSlots(nil))
	assert.Nil(t, search.MissingSlots(Slots{SlotTopic: "benessere"}))
	assert.Nil(t, search.MissingSlots(Slots{SlotNCCategory: "igiene"}))

	detail, ok := LookupIntent(IntentPlanDetail)
	require.True(t, ok)
	assert.Equal(t, []string{SlotPlanCode}, detail.MissingSlots(Slots{SlotTopic: "x"}))
}

func TestSpec_NextStrategyCircular(t *testing.T) {
	prio, ok := LookupIntent(IntentPriorityRanking)
	require.True(t, ok)

	next, err := prio.NextStrategy(StrategyDeadline)
	require.NoError(t, err)
	assert.Equal(t, StrategyRisk, next)

	next, err = prio.NextStrategy(StrategyCoverage)
	require.NoError(t, err)
	assert.Equal(t, StrategyDeadline, next, "rotation is circular")

	next, err = prio.NextStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyDeadline, next)

	_, err = prio.NextStrategy("nope")
	require.NoError(t, err)

	detail, _ := LookupIntent(IntentPlanDetail)
	_, err = detail.NextStrategy(StrategyRisk)
	assert.Error(t, err)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
}

func TestValidIntent(t *testing.T) {
	assert.True(t, ValidIntent(IntentPlanDetail))
	assert.True(t, ValidIntent(IntentUnrecognized))
	assert.False(t, ValidIntent(Intent("make_coffee")))
}
