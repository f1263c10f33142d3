// Package classifier implements the hybrid intent router: a first-success
// pipeline of gibberish short-circuit, pending-slot fast path, high-precision
// heuristic rules, classification cache and model-backed classification with
// few-shot retrieval. The pipeline always produces a candidate; a failed or
// malformed model call degrades to the reserved unrecognized intent and never
// surfaces as an error.
package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/dvitale/gias/cache"
	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
	"github.com/dvitale/gias/logging"
	"github.com/dvitale/gias/model"
	"github.com/dvitale/gias/slots"
)

// Candidate source markers, recorded for logs and tests.
const (
	SourceGibberish   = "gibberish"
	SourcePendingSlot = "pending_slot"
	SourceHeuristic   = "heuristic"
	SourceCache       = "cache"
	SourceModel       = "model"
	SourceModelError  = "model_error"
)

// heuristicConfidence is assigned to every heuristic rule hit.
const heuristicConfidence = 0.99

// Input carries one turn into the router. State and Workflow are already
// prepared/validated by the caller; DetailPending reports whether a two-phase
// envelope is active for the session, which gates the short confirm/decline
// heuristics and keys the cache.
type Input struct {
	Utterance     string
	State         *core.DialogueState
	Workflow      *core.WorkflowContext
	DetailPending bool
}

// Router is the hybrid classification pipeline. Construct once at wiring
// time; safe for concurrent use.
type Router struct {
	cache     *cache.Cache
	model     model.Model
	retriever core.Retriever
	logger    *logging.DialogLogger

	fewShotTopK     int
	fewShotMinScore float64
	fewShotPerLabel int
}

// Options configures a Router.
type Options struct {
	// Retriever serves few-shot examples; nil disables retrieval.
	Retriever core.Retriever
	// Logger receives diagnostics; nil means silent.
	Logger logging.Logger
	// FewShotTopK caps the retrieved examples (default 6).
	FewShotTopK int
	// FewShotMinScore drops weak neighbors (default 0.05).
	FewShotMinScore float64
	// FewShotPerLabel keeps the example block diverse (default 2).
	FewShotPerLabel int
}

// New constructs a Router around a classification cache and a model.
func New(c *cache.Cache, m model.Model, optFns ...func(o *Options)) *Router {
	opts := Options{FewShotTopK: 6, FewShotMinScore: 0.05, FewShotPerLabel: 2}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{
		cache:           c,
		model:           m,
		retriever:       opts.Retriever,
		logger:          logging.NewDialogLogger(opts.Logger),
		fewShotTopK:     opts.FewShotTopK,
		fewShotMinScore: opts.FewShotMinScore,
		fewShotPerLabel: opts.FewShotPerLabel,
	}
}

// ModelID returns the identifier of the configured model, for threshold
// lookup. Empty when no model is wired.
func (r *Router) ModelID() string {
	if r.model == nil {
		return ""
	}
	return r.model.Info().Name
}

// Classify runs the pipeline and returns exactly one candidate.
func (r *Router) Classify(ctx context.Context, in Input) core.IntentCandidate {
	norm := util.Normalize(in.Utterance)
	preParsed := slots.Extract(in.Utterance)

	// 1. Gibberish short-circuit: nothing domain-shaped, nothing trivial and
	// no pending-slot continuation means no model call at all.
	if isGibberish(norm, in, preParsed) {
		return core.Unrecognized(preParsed, SourceGibberish)
	}

	// 2. Pending-slot fast path: the previous turn asked for a named slot;
	// bind this message to it without reclassifying.
	if cand, ok := r.bindPendingSlot(in, preParsed); ok {
		return cand
	}

	// 3. Ordered heuristic rules. The required-slot check applies here too:
	// "dimmi del piano" is confidently plan_detail yet still incomplete.
	if cand, ok := matchHeuristics(norm, in, preParsed); ok {
		return enforceRequiredSlots(cand)
	}

	// 4. Cache lookup.
	key := cacheKey(norm, in.DetailPending)
	if cand, ok := r.cache.Get(key); ok {
		cand.Source = SourceCache
		return cand
	}

	// 5-8. Model classification, validation, post-correction, required slots.
	cand := r.classifyWithModel(ctx, in, norm, preParsed)
	cand = applyPostCorrections(cand, in.Utterance, preParsed)
	cand = enforceRequiredSlots(cand)

	// 9. Cache successful results; unrecognized is never stored.
	if cand.Source == SourceModel {
		r.cache.Set(key, cand)
	}
	return cand
}

func cacheKey(norm string, detailPending bool) string {
	flag := "plain"
	if detailPending {
		flag = "detail"
	}
	return util.HashKey(norm, flag)
}

// bindPendingSlot implements the fast path for turns answering a slot
// question. The reply is bound to the first missing slot: identifier slots
// only bind when the extractor confirms the shape, the location slot accepts
// an address-shaped extraction or a bare place name, free-text slots take the
// raw message.
func (r *Router) bindPendingSlot(in Input, preParsed core.Slots) (core.IntentCandidate, bool) {
	st := in.State
	if st == nil || st.ConfirmedIntent == "" || len(st.MissingSlots) == 0 {
		return core.IntentCandidate{}, false
	}
	name := st.MissingSlots[0]
	value := bindValue(name, in.Utterance, preParsed)
	if value == "" {
		return core.IntentCandidate{}, false
	}
	bound := st.Slots.Clone().Merge(preParsed)
	bound.Set(name, value)
	return core.IntentCandidate{
		Intent:     st.ConfirmedIntent,
		Confidence: heuristicConfidence,
		Slots:      bound,
		Source:     SourcePendingSlot,
	}, true
}

func bindValue(slotName, utterance string, preParsed core.Slots) string {
	switch slotName {
	case core.SlotLocation:
		if v := slots.Location(utterance); v != "" {
			return v
		}
		return slots.BareLocation(utterance)
	case core.SlotPlanCode, core.SlotOrgUnit, core.SlotRegistrationNumber, core.SlotRadiusKM, core.SlotLimit:
		return preParsed.Get(slotName)
	default:
		if v := preParsed.Get(slotName); v != "" {
			return v
		}
		trimmed := strings.TrimSpace(utterance)
		if trimmed == "" || len(trimmed) > 80 {
			return ""
		}
		return util.Normalize(trimmed)
	}
}

// classifyWithModel runs step 5 (model call) and step 6 (validation).
func (r *Router) classifyWithModel(ctx context.Context, in Input, norm string, preParsed core.Slots) core.IntentCandidate {
	if r.model == nil {
		return core.Unrecognized(preParsed, SourceModelError)
	}

	var fewShot []core.Example
	if r.retriever != nil {
		fewShot = r.retriever.Retrieve(ctx, norm, r.fewShotTopK, r.fewShotMinScore, r.fewShotPerLabel)
	}

	req := model.Request{
		System:     systemPrompt(),
		User:       userPrompt(in, preParsed),
		FewShot:    fewShot,
		Structured: true,
	}

	start := time.Now()
	payload, err := r.model.Complete(ctx, req)
	r.logger.LogModelCall(r.ModelID(), time.Since(start), err)
	if err != nil {
		return core.Unrecognized(preParsed, SourceModelError)
	}

	cand, ok := parsePayload(payload)
	if !ok {
		r.logger.Debug("malformed model payload", "payload", payload)
		return core.Unrecognized(preParsed, SourceModelError)
	}
	cand.Slots = mergeSlots(preParsed, cand.Slots)
	cand.Source = SourceModel
	return cand
}

// identifierSlots are high-precision extractions where the deterministic
// parser wins over the model on conflict; for free-text slots the model wins.
var identifierSlots = map[string]bool{
	core.SlotPlanCode:           true,
	core.SlotOrgUnit:            true,
	core.SlotRegistrationNumber: true,
	core.SlotRadiusKM:           true,
	core.SlotLimit:              true,
	core.SlotDateFrom:           true,
	core.SlotDateTo:             true,
}

func mergeSlots(preParsed, fromModel core.Slots) core.Slots {
	merged := fromModel.Clone()
	if merged == nil {
		merged = core.NewSlots()
	}
	for k, v := range preParsed {
		if v == "" {
			continue
		}
		if identifierSlots[k] || merged.Get(k) == "" {
			merged[k] = v
		}
	}
	return merged
}

// enforceRequiredSlots implements step 8: an intent whose required slot
// groups are unmet is forced into needs-more-info with cleared slots.
func enforceRequiredSlots(cand core.IntentCandidate) core.IntentCandidate {
	spec, ok := core.LookupIntent(cand.Intent)
	if !ok {
		return cand
	}
	if len(spec.MissingSlots(cand.Slots)) > 0 {
		cand.NeedsMoreInfo = true
		cand.Slots = core.NewSlots()
	}
	return cand
}
