// Package orchestrator wires the whole turn pipeline: classification,
// dialogue-state tracking, decision rules, workflow validation, tool
// dispatch through the two-phase controller, and the fallback engine. One
// Orchestrator serves many sessions concurrently; per-session mutable state
// lives in the SessionStore and is mutated under a per-session lock.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvitale/gias/cache"
	"github.com/dvitale/gias/classifier"
	"github.com/dvitale/gias/config"
	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/dialog"
	"github.com/dvitale/gias/fallback"
	"github.com/dvitale/gias/internal/util"
	"github.com/dvitale/gias/logging"
	"github.com/dvitale/gias/model"
	"github.com/dvitale/gias/session"
	"github.com/dvitale/gias/slots"
	"github.com/dvitale/gias/tool"
	"github.com/dvitale/gias/twophase"
	"github.com/dvitale/gias/workflow"
)

// DefaultTurnTimeout bounds a whole turn. It must stay shorter than the
// calling transport's own timeout; on expiry the caller gets a deterministic
// message and the in-flight work is abandoned, never retried.
const DefaultTurnTimeout = 8 * time.Second

const (
	timeoutMessage    = "Non sono riuscito a elaborare la richiesta in tempo. Prova a riformularla in modo più specifico."
	emptyInputMessage = "Non ho ricevuto nessun messaggio. Scrivi cosa vorresti sapere sui piani di controllo."
	toolErrorMessage  = "Si è verificato un errore durante l'elaborazione. Riprova tra poco."
)

// Conversational renderings, served without a tool.
const (
	greetingText     = "Ciao! Sono l'assistente per i piani di controllo. Come posso aiutarti?"
	farewellText     = "A presto!"
	nothingToConfirm = "Al momento non c'è nulla da confermare."
	noActiveMenu     = "Al momento non c'è nessun menu attivo. Dimmi pure cosa ti serve."
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Model backs classification and fallback ranking; nil keeps the
	// deterministic layers only.
	Model model.Model
	// Retriever serves few-shot examples; nil disables retrieval.
	Retriever core.Retriever
	// SessionStore persists per-session server-side state.
	SessionStore core.SessionStore
	// Cache is the process-wide classification cache.
	Cache *cache.Cache
	// Thresholds is the per-model confidence table.
	Thresholds config.Table
	// Validator guards carried-over continuations.
	Validator *workflow.Validator
	// TwoPhase overrides the response controller.
	TwoPhase *twophase.Controller
	// TurnTimeout bounds one whole turn.
	TurnTimeout time.Duration
	// Logger receives diagnostics.
	Logger logging.Logger
}

// Orchestrator coordinates one turn end to end. Public methods are safe for
// concurrent use.
type Orchestrator struct {
	router    *classifier.Router
	manager   *dialog.Manager
	validator *workflow.Validator
	twoPhase  *twophase.Controller
	fallback  *fallback.Engine
	registry  *tool.Registry
	sessions  core.SessionStore
	logger    *logging.DialogLogger
	timeout   time.Duration
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// New constructs an Orchestrator around a tool registry. It fails when the
// registry leaves any domain intent without a handler, so wiring mistakes
// surface at startup.
func New(registry *tool.Registry, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Cache:        cache.New(),
		Thresholds:   config.DefaultTable(),
		Validator:    workflow.New(),
		TwoPhase:     twophase.New(),
		TurnTimeout:  DefaultTurnTimeout,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}

	router := classifier.New(opts.Cache, opts.Model, func(o *classifier.Options) {
		o.Retriever = opts.Retriever
		o.Logger = opts.Logger
	})
	manager := dialog.New(func(o *dialog.Options) {
		o.Thresholds = opts.Thresholds
		o.Logger = opts.Logger
	})
	fb := fallback.New(func(o *fallback.Options) {
		o.Model = opts.Model
		o.Logger = opts.Logger
	})

	return &Orchestrator{
		router:    router,
		manager:   manager,
		validator: opts.Validator,
		twoPhase:  opts.TwoPhase,
		fallback:  fb,
		registry:  registry,
		sessions:  opts.SessionStore,
		logger:    logging.NewDialogLogger(opts.Logger),
		timeout:   opts.TurnTimeout,
		now:       time.Now,
	}, nil
}

// Turn processes one conversational turn under the hard timeout. The
// returned state and workflow must be echoed back on the next turn.
func (o *Orchestrator) Turn(ctx context.Context, in core.TurnInput) core.TurnOutput {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan core.TurnOutput, 1)
	go func() { done <- o.turn(ctx, in) }()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		o.logger.Warn("turn abandoned on timeout", "session", in.SessionID())
		return core.TurnOutput{
			Intent: core.IntentUnrecognized,
			Action: core.ActionFallback,
			Text:   timeoutMessage,
			State:  in.State,
		}
	}
}

func (o *Orchestrator) turn(ctx context.Context, in core.TurnInput) core.TurnOutput {
	sessionID := in.SessionID()
	log := o.logger.WithSession(sessionID, util.NewID())
	stop := log.StartTimer("turn")
	defer stop()

	unlock := o.lockSession(sessionID)
	defer unlock()

	now := o.now()
	st := in.State.Prepare(now)
	rec := o.loadRecord(ctx, sessionID)

	if util.Normalize(in.Utterance) == "" {
		o.saveRecord(ctx, rec)
		return core.TurnOutput{
			Intent: core.IntentUnrecognized,
			Action: core.ActionFallback,
			Text:   emptyInputMessage,
			State:  st,
		}
	}

	// Revalidate the continuation and the pending question it protects. A
	// discarded structure never aborts the turn; the raw text is classified
	// as if nothing were carried over.
	wf := o.validator.Validate(in.Workflow)
	if st.Pending != nil && !o.validator.HonorPending(st.Pending, wf) {
		log.Debug("pending question discarded")
		st.Pending = nil
		st.PendingStrategy = ""
		wf = nil
	}

	if out, handled := o.resolveFallbackSelection(ctx, in, st, rec); handled {
		o.saveRecord(ctx, rec)
		return out
	}

	detailPending := o.twoPhase.Pending(rec)
	cand := o.router.Classify(ctx, classifier.Input{
		Utterance:     in.Utterance,
		State:         st,
		Workflow:      wf,
		DetailPending: detailPending,
	})

	if detailPending {
		if out, handled := o.resolveDetailReply(cand.Intent, st, rec); handled {
			o.saveRecord(ctx, rec)
			return out
		}
	}

	decision, wfOut := o.manager.Evaluate(dialog.EvalInput{
		Candidates: []core.IntentCandidate{cand},
		Extracted:  slots.Extract(in.Utterance),
		Utterance:  in.Utterance,
		State:      st,
		Workflow:   wf,
		ModelID:    o.router.ModelID(),
	})

	out := o.act(ctx, in, decision, st, rec)
	out.Workflow = wfOut
	o.saveRecord(ctx, rec)
	log.LogTurn(string(out.Intent), string(out.Action), decision.Rule, time.Since(now))
	return out
}

// act turns a manager decision into the final output.
func (o *Orchestrator) act(ctx context.Context, in core.TurnInput, d core.Decision, st *core.DialogueState, rec *core.SessionRecord) core.TurnOutput {
	switch d.Kind {
	case core.DecisionAsk:
		return core.TurnOutput{Intent: d.Intent, Slots: d.Slots, Action: core.ActionAsk, Text: d.Question, State: st}

	case core.DecisionExecute:
		fallback.Reset(rec)
		if text, ok := o.conversational(d.Intent); ok {
			return core.TurnOutput{Intent: d.Intent, Action: core.ActionExecute, Text: text, State: st}
		}
		return o.execute(ctx, in, d, st, rec)

	default:
		res := o.fallback.Run(ctx, rec, in.Utterance)
		return core.TurnOutput{Intent: core.IntentUnrecognized, Action: core.ActionFallback, Text: res.Text, State: st}
	}
}

// execute dispatches a domain intent to its tool and applies the two-phase
// policy to the rendering. A tool failure degrades to a short error line.
func (o *Orchestrator) execute(ctx context.Context, in core.TurnInput, d core.Decision, st *core.DialogueState, rec *core.SessionRecord) core.TurnOutput {
	stop := o.logger.StartTimer("tool")
	res, err := o.registry.Call(ctx, d.Intent, d.Slots, in.Metadata)
	stop()
	if err != nil {
		o.logger.Error("tool failed", "intent", string(d.Intent), "error", err.Error())
		return core.TurnOutput{Intent: d.Intent, Slots: d.Slots, Action: core.ActionExecute, Text: toolErrorMessage, State: st}
	}

	summary := res.Summary
	if summary == "" {
		summary = fmt.Sprintf("Ho trovato %d risultati.", res.ItemCount)
	}
	text, more := o.twoPhase.Wrap(rec, d.Intent, res.Rendering, summary, res.ItemCount)

	st.RecordToolRun(d.Intent, d.Slots)
	st.ResponseContext = summary
	return core.TurnOutput{
		Intent:         d.Intent,
		Slots:          d.Slots,
		Action:         core.ActionExecute,
		Text:           text,
		State:          st,
		HasMoreDetails: more,
	}
}

// resolveDetailReply consumes a confirm or decline aimed at a stored
// two-phase envelope.
func (o *Orchestrator) resolveDetailReply(intent core.Intent, st *core.DialogueState, rec *core.SessionRecord) (core.TurnOutput, bool) {
	switch intent {
	case core.IntentConfirm:
		full, ok := o.twoPhase.ConfirmDetails(rec)
		if !ok {
			return core.TurnOutput{}, false
		}
		fallback.Reset(rec)
		return core.TurnOutput{Intent: core.IntentConfirm, Action: core.ActionExecute, Text: full, State: st}, true
	case core.IntentDecline:
		ack, ok := o.twoPhase.DeclineDetails(rec)
		if !ok {
			return core.TurnOutput{}, false
		}
		fallback.Reset(rec)
		return core.TurnOutput{Intent: core.IntentDecline, Action: core.ActionExecute, Text: ack, State: st}, true
	}
	return core.TurnOutput{}, false
}

// resolveFallbackSelection matches a reply against the options shown by the
// previous fallback turn. A category pick renders that category's intents; an
// intent pick either executes or asks for its missing slots.
func (o *Orchestrator) resolveFallbackSelection(ctx context.Context, in core.TurnInput, st *core.DialogueState, rec *core.SessionRecord) (core.TurnOutput, bool) {
	if len(rec.FallbackOptions) == 0 {
		return core.TurnOutput{}, false
	}
	picked, ok := fallback.ParseSelection(in.Utterance, rec.FallbackOptions)
	if !ok {
		return core.TurnOutput{}, false
	}
	rec.FallbackOptions = nil
	rec.ConsecutiveFallbacks = 0

	if picked.Category != "" {
		return core.TurnOutput{
			Intent: core.IntentMenuSelection,
			Action: core.ActionAsk,
			Text:   categoryOverview(picked.Category),
			State:  st,
		}, true
	}

	spec, specOK := core.LookupIntent(picked.Intent)
	if specOK {
		if missing := spec.MissingSlots(st.Slots); len(missing) > 0 {
			st.ConfirmedIntent = picked.Intent
			st.MissingSlots = missing
			return core.TurnOutput{
				Intent: picked.Intent,
				Action: core.ActionAsk,
				Text:   dialog.PromptForSlots(missing),
				State:  st,
			}, true
		}
	}
	d := core.Decision{Kind: core.DecisionExecute, Intent: picked.Intent, Slots: st.Slots.Clone()}
	out := o.act(ctx, in, d, st, rec)
	return out, true
}

// conversational serves the intents that need no tool.
func (o *Orchestrator) conversational(intent core.Intent) (string, bool) {
	switch intent {
	case core.IntentGreeting:
		return greetingText, true
	case core.IntentFarewell:
		return farewellText, true
	case core.IntentHelp:
		return fallback.HelpText(), true
	case core.IntentConfirm, core.IntentDecline:
		return nothingToConfirm, true
	case core.IntentMenuSelection:
		return noActiveMenu, true
	}
	return "", false
}

func categoryOverview(category string) string {
	text := category + ":\n"
	for _, spec := range core.IntentsInCategory(category) {
		text += fmt.Sprintf("- %s: %s\n", spec.Label, spec.Description)
	}
	return text + "Cosa ti interessa?"
}

func (o *Orchestrator) loadRecord(ctx context.Context, id string) *core.SessionRecord {
	rec, err := o.sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, core.ErrSessionNotFound) {
			o.logger.Warn("session load failed", "error", err.Error())
		}
		return core.NewSessionRecord(id)
	}
	return rec
}

func (o *Orchestrator) saveRecord(ctx context.Context, rec *core.SessionRecord) {
	rec.Updated = o.now().UTC()
	if err := o.sessions.Put(ctx, rec); err != nil {
		o.logger.Warn("session save failed", "error", err.Error())
	}
}

// sessionLock is one entry of the per-session lock map. The refcount tracks
// turns holding or waiting on the lock so the entry can be dropped once the
// last one releases it, keeping the map bounded by concurrent sessions.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lockSession serializes turns of the same session. Overlapping turns for
// distinct sessions proceed in parallel.
func (o *Orchestrator) lockSession(id string) func() {
	o.mu.Lock()
	if o.locks == nil {
		o.locks = make(map[string]*sessionLock)
	}
	l, ok := o.locks[id]
	if !ok {
		l = &sessionLock{}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, id)
		}
		o.mu.Unlock()
	}
}
