package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvitale/gias/core"
)

func newValidator() *Validator {
	return New(func(o *Options) {
		o.Municipalities = []string{"Cuneo", "Alba", "Bra"}
		o.OrgUnits = []string{"ASL-CN1", "ASL-CN2"}
	})
}

func goodContext() *core.WorkflowContext {
	return &core.WorkflowContext{
		Type:    core.IntentPriorityRanking,
		Stage:   core.StageChoosing,
		Token:   core.NewToken(),
		Created: time.Now(),
	}
}

func TestValidate_AcceptsWellFormedContext(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	out := v.Validate(wf)
	require.NotNil(t, out)
	assert.Equal(t, wf.Token, out.Token)
	assert.Equal(t, wf.Type, out.Type)
}

func TestValidate_RejectsExpired(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.Created = time.Now().Add(-core.WorkflowTTL - time.Second)
	assert.Nil(t, v.Validate(wf))
}

func TestValidate_RejectsNonWorkflowIntent(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.Type = core.IntentGreeting
	assert.Nil(t, v.Validate(wf))
}

func TestValidate_RejectsUnknownStage(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.Stage = core.Stage("teleporting")
	assert.Nil(t, v.Validate(wf))
}

func TestValidate_RejectsMissingToken(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.Token = ""
	assert.Nil(t, v.Validate(wf))
}

func TestValidate_RejectsForeignStrategy(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.StrategyID = "alphabetical"
	assert.Nil(t, v.Validate(wf))
}

func TestValidate_SanitizesCarriedSlots(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	wf.Slots = core.Slots{
		core.SlotMunicipality: "cuneo",
		"favorite_color":      "blue",
	}
	out := v.Validate(wf)
	require.NotNil(t, out)
	assert.Equal(t, "CUNEO", out.Slots.Get(core.SlotMunicipality))
	assert.Empty(t, out.Slots.Get("favorite_color"))
}

func TestHonorPending_TokenMismatchIsForgery(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	p := &core.PendingQuestion{Kind: core.QuestionStrategyChoice, Token: core.NewToken()}
	assert.False(t, v.HonorPending(p, wf), "mismatched token must behave as no pending question")

	p.Token = wf.Token
	assert.True(t, v.HonorPending(p, wf))
}

func TestHonorPending_UnknownKindRejected(t *testing.T) {
	v := newValidator()
	wf := goodContext()
	p := &core.PendingQuestion{Kind: core.QuestionKind("riddle"), Token: wf.Token}
	assert.False(t, v.HonorPending(p, wf))
}

func TestSanitizeFilters(t *testing.T) {
	v := newValidator()
	in := core.Slots{
		core.SlotMunicipality: "Alba",
		core.SlotOrgUnit:      "asl-cn9",
		core.SlotLimit:        "9000",
		core.SlotRadiusKM:     "25",
		core.SlotNCCategory:   "Igiene",
		core.SlotDateFrom:     "2026-02-30",
		core.SlotDateTo:       "2026-03-15",
		core.SlotTopic:        "benessere animale",
		"drop_me":             "x",
	}
	out := v.SanitizeFilters(in)

	assert.Equal(t, "ALBA", out.Get(core.SlotMunicipality))
	assert.Empty(t, out.Get(core.SlotOrgUnit), "org unit outside whitelist is dropped")
	assert.Equal(t, "500", out.Get(core.SlotLimit), "limit clamps to the upper bound")
	assert.Equal(t, "25", out.Get(core.SlotRadiusKM))
	assert.Equal(t, "igiene", out.Get(core.SlotNCCategory))
	assert.Empty(t, out.Get(core.SlotDateFrom), "impossible calendar date is dropped")
	assert.Equal(t, "2026-03-15", out.Get(core.SlotDateTo))
	assert.Equal(t, "benessere animale", out.Get(core.SlotTopic))
	assert.Empty(t, out.Get("drop_me"))
}

func TestSanitizeFilters_FreeTextCharClassAndLength(t *testing.T) {
	v := newValidator()
	out := v.SanitizeFilters(core.Slots{core.SlotTopic: "etichettatura <script>"})
	assert.Empty(t, out.Get(core.SlotTopic))

	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	out = v.SanitizeFilters(core.Slots{core.SlotTopic: string(long)})
	assert.Empty(t, out.Get(core.SlotTopic))
}

func TestSanitizeFilters_FreeTextLengthCountsRunes(t *testing.T) {
	v := newValidator()

	// 70 accented runes exceed 80 bytes but stay within the length allowance.
	accented := strings.Repeat("è", 70)
	out := v.SanitizeFilters(core.Slots{core.SlotTopic: accented})
	assert.Equal(t, accented, out.Get(core.SlotTopic))

	out = v.SanitizeFilters(core.Slots{core.SlotTopic: strings.Repeat("à", 81)})
	assert.Empty(t, out.Get(core.SlotTopic))
}
