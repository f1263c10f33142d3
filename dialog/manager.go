// Package dialog implements the decision engine that turns classifier
// candidates plus remembered dialogue state into exactly one of three
// verdicts: execute a tool, ask the user one question, or hand the turn to
// the fallback engine. The rules form a single literal ordered table (R1-R9)
// evaluated first-match-wins, so precedence is auditable and testable rule by
// rule. The implicit conversation states (no goal, awaiting slots, confirmed,
// strategy pending, executing) are re-derived fresh each turn from the state
// fields; there is no explicit state machine object and no terminal state.
package dialog

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dvitale/gias/config"
	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
	"github.com/dvitale/gias/logging"
	"github.com/dvitale/gias/workflow"
)

// EvalInput carries one turn into the manager. State is already prepared
// (TTL-checked, turn counter bumped); Workflow is already validated or nil.
type EvalInput struct {
	Candidates []core.IntentCandidate
	Extracted  core.Slots
	Utterance  string
	State      *core.DialogueState
	Workflow   *core.WorkflowContext
	ModelID    string
}

// Manager is the rule-based decision engine. Construct once; safe for
// concurrent use (all per-turn state lives in EvalInput).
type Manager struct {
	thresholds config.Table
	logger     *logging.DialogLogger
	now        func() time.Time
}

// Options configures a Manager.
type Options struct {
	Thresholds config.Table
	Logger     logging.Logger
}

// New constructs a Manager with the built-in threshold table unless
// overridden.
func New(optFns ...func(o *Options)) *Manager {
	opts := Options{Thresholds: config.DefaultTable()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		thresholds: opts.Thresholds,
		logger:     logging.NewDialogLogger(opts.Logger),
		now:        time.Now,
	}
}

var (
	reAlternative = regexp.MustCompile(`^(mostra |proponi |fammi vedere )?(un.?)?alternativ[ae]$|altro modo|in un altro modo`)
	reRefine      = regexp.MustCompile(`restringi|affina|filtra|stessa ricerca|ripeti la ricerca|come prima|di nuovo ma`)
	reAffirmative = regexp.MustCompile(`^(si|ok|va bene|certo|d'accordo|procedi|confermo)[.!]?$`)
	reMenuReply   = regexp.MustCompile(`^(\d{1,2})$|^(?:opzione|scelta|numero) (\d{1,2})$`)
)

// rule is one row of the ordered decision table.
type rule struct {
	name    string
	applies func(m *Manager, in EvalInput) bool
	act     func(m *Manager, in EvalInput) (core.Decision, *core.WorkflowContext)
}

// rules is the literal R1-R9 table. First match wins.
var rules = []rule{
	{name: "R1_alternative", applies: (*Manager).appliesAlternative, act: (*Manager).actAlternative},
	{name: "R2_refine", applies: (*Manager).appliesRefine, act: (*Manager).actRefine},
	{name: "R3_strategy_confirm", applies: (*Manager).appliesStrategyConfirm, act: (*Manager).actStrategyConfirm},
	{name: "R3b_disambiguation_reply", applies: (*Manager).appliesMenuReply, act: (*Manager).actMenuReply},
	{name: "R4_no_candidates", applies: (*Manager).appliesNoCandidates, act: (*Manager).actFallback},
	{name: "R5_high_complete", applies: (*Manager).appliesHighComplete, act: (*Manager).actHighComplete},
	{name: "R6_high_missing", applies: (*Manager).appliesHighMissing, act: (*Manager).actAskSlots},
	{name: "R7_ambiguous", applies: (*Manager).appliesAmbiguous, act: (*Manager).actDisambiguate},
	{name: "R8_low_confidence", applies: (*Manager).appliesLowConfidence, act: (*Manager).actFallback},
	{name: "R9_medium", applies: func(*Manager, EvalInput) bool { return true }, act: (*Manager).actMedium},
}

// Evaluate runs the decision table and returns the verdict plus the workflow
// continuation to hand back to the caller (nil unless a replay-protected
// question was asked). The state inside in.State is mutated for echo-back.
func (m *Manager) Evaluate(in EvalInput) (core.Decision, *core.WorkflowContext) {
	// Fold the validated continuation into the remembered state under the
	// additive rule before any rule fires: carried filters feed the filter
	// memory (R2 re-applies them), carried slots rejoin the slot memory.
	if in.State != nil && in.Workflow != nil {
		in.State.MergeFilters(in.Workflow.Filters)
		in.State.MergeSlots(in.Workflow.Slots)
	}
	for _, r := range rules {
		if !r.applies(m, in) {
			continue
		}
		d, wf := r.act(m, in)
		d.Rule = r.name
		// An answered parameter-collection question does not survive an
		// execution verdict.
		if d.Kind == core.DecisionExecute && in.State != nil &&
			in.State.Pending != nil && in.State.Pending.Kind == core.QuestionParamCollection {
			in.State.Pending = nil
		}
		m.logger.Debug("manager rule fired", "rule", r.name, "kind", int(d.Kind))
		return d, wf
	}
	// Unreachable: R9 always applies.
	return core.Decision{Kind: core.DecisionFallback, Rule: "unreachable"}, nil
}

func (m *Manager) top(in EvalInput) (core.IntentCandidate, bool) {
	if len(in.Candidates) == 0 {
		return core.IntentCandidate{}, false
	}
	return in.Candidates[0], true
}

func (m *Manager) rowFor(in EvalInput) config.Thresholds {
	return m.thresholds.Lookup(in.ModelID)
}

// combinedSlots merges remembered slots with this turn's extraction under
// the additive rule.
func combinedSlots(in EvalInput, cand core.IntentCandidate) core.Slots {
	merged := core.NewSlots()
	if in.State != nil {
		merged = merged.Merge(in.State.Slots)
	}
	merged = merged.Merge(in.Extracted)
	merged = merged.Merge(cand.Slots)
	return merged
}

// --- R1: bare "show an alternative" -------------------------------------

func (m *Manager) appliesAlternative(in EvalInput) bool {
	if in.State == nil {
		return false
	}
	prior := in.State.ConfirmedIntent
	if prior == "" {
		prior = in.State.LastToolIntent
	}
	spec, ok := core.LookupIntent(prior)
	if !ok || len(spec.Strategies) == 0 {
		return false
	}
	return reAlternative.MatchString(util.Normalize(in.Utterance))
}

func (m *Manager) actAlternative(in EvalInput) (core.Decision, *core.WorkflowContext) {
	st := in.State
	prior := st.ConfirmedIntent
	if prior == "" {
		prior = st.LastToolIntent
	}
	spec, _ := core.LookupIntent(prior)
	next, _ := spec.NextStrategy(st.StrategyID)

	token := core.NewToken()
	st.ConfirmedIntent = prior
	st.PendingStrategy = next
	st.Pending = &core.PendingQuestion{Kind: core.QuestionOppureConfirmation, Token: token, StrategyID: next}
	question := alternativeQuestion(next)
	st.Clarifications = append(st.Clarifications, question)

	wf := &core.WorkflowContext{
		Type: prior, Stage: core.StageChoosing, Token: token,
		StrategyID: next, Slots: st.Slots.Clone(), Filters: st.Filters.Clone(),
		Created: m.now().UTC(),
	}
	return core.Decision{Kind: core.DecisionAsk, Intent: prior, Question: question}, wf
}

// --- R2: narrow/repeat the previous search -------------------------------

func (m *Manager) appliesRefine(in EvalInput) bool {
	return in.State != nil && in.State.LastToolIntent != "" &&
		reRefine.MatchString(util.Normalize(in.Utterance))
}

func (m *Manager) actRefine(in EvalInput) (core.Decision, *core.WorkflowContext) {
	st := in.State
	merged := st.LastToolSlots.Clone()
	merged = merged.Merge(st.Filters)
	merged = merged.Merge(in.Extracted)
	st.ConfirmedIntent = st.LastToolIntent
	st.MergeSlots(in.Extracted)
	return core.Decision{Kind: core.DecisionExecute, Intent: st.LastToolIntent, Slots: merged}, nil
}

// --- R3: short affirmative resolving a pending strategy choice -----------

func (m *Manager) appliesStrategyConfirm(in EvalInput) bool {
	st := in.State
	if st == nil || st.Pending == nil || st.PendingStrategy == "" {
		return false
	}
	if st.Pending.Kind != core.QuestionStrategyChoice && st.Pending.Kind != core.QuestionOppureConfirmation {
		return false
	}
	return reAffirmative.MatchString(util.Normalize(in.Utterance))
}

func (m *Manager) actStrategyConfirm(in EvalInput) (core.Decision, *core.WorkflowContext) {
	st := in.State
	st.StrategyID = st.PendingStrategy
	st.PendingStrategy = ""
	st.Pending = nil
	slots := combinedSlots(in, core.IntentCandidate{})
	slots.Set(core.SlotStrategy, st.StrategyID)
	return core.Decision{Kind: core.DecisionExecute, Intent: st.ConfirmedIntent, Slots: slots}, nil
}

// --- R3b: numbered reply to a disambiguation or strategy menu ------------

func (m *Manager) appliesMenuReply(in EvalInput) bool {
	st := in.State
	if st == nil {
		return false
	}
	if len(st.Candidates) == 0 && (st.Pending == nil || st.Pending.Kind != core.QuestionStrategyChoice) {
		return false
	}
	return reMenuReply.MatchString(util.Normalize(in.Utterance))
}

func (m *Manager) actMenuReply(in EvalInput) (core.Decision, *core.WorkflowContext) {
	st := in.State
	idx := menuIndex(in.Utterance)

	// Strategy menu reply.
	if st.Pending != nil && st.Pending.Kind == core.QuestionStrategyChoice {
		spec, ok := core.LookupIntent(st.ConfirmedIntent)
		if ok && idx >= 1 && idx <= len(spec.Strategies) {
			st.StrategyID = spec.Strategies[idx-1]
			st.Pending = nil
			st.PendingStrategy = ""
			slots := combinedSlots(in, core.IntentCandidate{})
			slots.Set(core.SlotStrategy, st.StrategyID)
			return core.Decision{Kind: core.DecisionExecute, Intent: st.ConfirmedIntent, Slots: slots}, nil
		}
	}

	// Disambiguation reply.
	if idx >= 1 && idx <= len(st.Candidates) {
		chosen := core.Intent(st.Candidates[idx-1])
		st.Candidates = nil
		st.ConfirmedIntent = chosen
		spec, ok := core.LookupIntent(chosen)
		slots := combinedSlots(in, core.IntentCandidate{})
		if ok {
			if missing := spec.MissingSlots(slots); len(missing) > 0 {
				st.MissingSlots = missing
				question := PromptForSlots(missing)
				st.Clarifications = append(st.Clarifications, question)
				return core.Decision{Kind: core.DecisionAsk, Intent: chosen, Question: question}, nil
			}
		}
		st.MissingSlots = nil
		return core.Decision{Kind: core.DecisionExecute, Intent: chosen, Slots: slots}, nil
	}
	return core.Decision{Kind: core.DecisionFallback}, nil
}

func menuIndex(utterance string) int {
	mres := reMenuReply.FindStringSubmatch(util.Normalize(utterance))
	if mres == nil {
		return 0
	}
	for _, g := range mres[1:] {
		if g != "" {
			n, _ := strconv.Atoi(g)
			return n
		}
	}
	return 0
}

// --- R4 / R8: fallback ----------------------------------------------------

func (m *Manager) appliesNoCandidates(in EvalInput) bool {
	top, ok := m.top(in)
	return !ok || top.Intent == core.IntentUnrecognized
}

func (m *Manager) actFallback(in EvalInput) (core.Decision, *core.WorkflowContext) {
	return core.Decision{Kind: core.DecisionFallback}, nil
}

func (m *Manager) appliesLowConfidence(in EvalInput) bool {
	top, ok := m.top(in)
	return ok && top.Confidence < m.rowFor(in).Min
}

// --- R5/R6: high confidence ----------------------------------------------

func (m *Manager) appliesHighComplete(in EvalInput) bool {
	top, ok := m.top(in)
	if !ok || top.Confidence < m.rowFor(in).High {
		return false
	}
	spec, ok := core.LookupIntent(top.Intent)
	if !ok {
		return false
	}
	slots := combinedSlots(in, top)
	return spec.SelfSufficient || len(spec.MissingSlots(slots)) == 0
}

func (m *Manager) actHighComplete(in EvalInput) (core.Decision, *core.WorkflowContext) {
	top, _ := m.top(in)
	spec, _ := core.LookupIntent(top.Intent)
	st := in.State
	slots := combinedSlots(in, top)

	// A multi-strategy intent asked vaguely gets a strategy menu before the
	// first execution; a precise request runs with the default strategy.
	if len(spec.Strategies) > 0 && st != nil && st.StrategyID == "" && isVague(in.Utterance, slots) {
		token := core.NewToken()
		st.ConfirmedIntent = top.Intent
		st.Pending = &core.PendingQuestion{Kind: core.QuestionStrategyChoice, Token: token}
		question := strategyChoiceQuestion(spec)
		st.Clarifications = append(st.Clarifications, question)
		wf := &core.WorkflowContext{
			Type: top.Intent, Stage: core.StageChoosing, Token: token,
			Slots: slots.Clone(), Filters: st.Filters.Clone(), Created: m.now().UTC(),
		}
		return core.Decision{Kind: core.DecisionAsk, Intent: top.Intent, Question: question}, wf
	}

	if st != nil {
		st.ConfirmedIntent = top.Intent
		st.MissingSlots = nil
		st.MergeSlots(slots)
	}
	if st != nil && st.StrategyID != "" && len(spec.Strategies) > 0 {
		slots.Set(core.SlotStrategy, st.StrategyID)
	}
	return core.Decision{Kind: core.DecisionExecute, Intent: top.Intent, Slots: slots}, nil
}

func (m *Manager) appliesHighMissing(in EvalInput) bool {
	top, ok := m.top(in)
	if !ok || top.Confidence < m.rowFor(in).High {
		return false
	}
	spec, ok := core.LookupIntent(top.Intent)
	if !ok {
		return false
	}
	return !spec.SelfSufficient && len(spec.MissingSlots(combinedSlots(in, top))) > 0
}

func (m *Manager) actAskSlots(in EvalInput) (core.Decision, *core.WorkflowContext) {
	top, _ := m.top(in)
	spec, _ := core.LookupIntent(top.Intent)
	st := in.State
	slots := combinedSlots(in, top)
	missing := spec.MissingSlots(slots)

	if st != nil {
		st.ConfirmedIntent = top.Intent
		st.MissingSlots = missing
		st.MergeSlots(slots)
		st.Goal = string(top.Intent)
	}
	question := PromptForSlots(missing)
	if st != nil {
		st.Clarifications = append(st.Clarifications, question)
	}

	// A workflow-capable intent collects its parameters under replay
	// protection: the answer turn must echo the continuation carrying this
	// token or the pending question is discarded as a forgery.
	var wf *core.WorkflowContext
	if st != nil && workflow.WorkflowCapable(top.Intent) {
		token := core.NewToken()
		st.Pending = &core.PendingQuestion{Kind: core.QuestionParamCollection, Token: token}
		wf = &core.WorkflowContext{
			Type: top.Intent, Stage: core.StageCollecting, Token: token,
			Slots: slots.Clone(), Filters: st.Filters.Clone(), Created: m.now().UTC(),
		}
	}
	return core.Decision{Kind: core.DecisionAsk, Intent: top.Intent, Question: question}, wf
}

// --- R7: ambiguous top candidates ----------------------------------------

func (m *Manager) appliesAmbiguous(in EvalInput) bool {
	if len(in.Candidates) < 2 {
		return false
	}
	row := m.rowFor(in)
	top := in.Candidates[0]
	second := in.Candidates[1]
	return top.Confidence >= row.Min && top.Confidence-second.Confidence < row.Delta
}

func (m *Manager) actDisambiguate(in EvalInput) (core.Decision, *core.WorkflowContext) {
	st := in.State
	cands := in.Candidates
	if len(cands) > 3 {
		cands = cands[:3]
	}
	if st != nil {
		st.Candidates = st.Candidates[:0]
		for _, c := range cands {
			st.Candidates = append(st.Candidates, string(c.Intent))
		}
	}
	question := disambiguationQuestion(cands)
	return core.Decision{Kind: core.DecisionAsk, Intent: cands[0].Intent, Question: question}, nil
}

// --- R9: medium confidence ------------------------------------------------

func (m *Manager) actMedium(in EvalInput) (core.Decision, *core.WorkflowContext) {
	top, _ := m.top(in)
	spec, ok := core.LookupIntent(top.Intent)
	if !ok {
		return core.Decision{Kind: core.DecisionFallback}, nil
	}
	slots := combinedSlots(in, top)
	if !spec.SelfSufficient {
		if missing := spec.MissingSlots(slots); len(missing) > 0 {
			return m.actAskSlots(in)
		}
	}
	if in.State != nil {
		in.State.ConfirmedIntent = top.Intent
		in.State.MergeSlots(slots)
	}
	return core.Decision{Kind: core.DecisionExecute, Intent: top.Intent, Slots: slots}, nil
}

// isVague marks short generic phrasings that deserve a strategy menu before
// execution ("dammi le priorità") as opposed to precise requests that name
// their own ordering.
func isVague(utterance string, slots core.Slots) bool {
	return len(util.Tokens(utterance)) <= 5 && len(slots) == 0
}
