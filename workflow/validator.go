// Package workflow guards the trust boundary around carried-over
// continuation structures. A WorkflowContext and its PendingQuestion arrive
// from the caller every turn and may be stale, truncated or forged; the
// Validator revalidates them from scratch regardless of how trustworthy the
// accompanying dialogue state looks. Rejection is always "treat as absent":
// the session survives, only the invalid structure is discarded.
package workflow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/logging"
)

// workflowIntents is the fixed whitelist of intents allowed to carry a
// multi-turn continuation. Anything else declared as a workflow type is
// rejected outright.
var workflowIntents = map[core.Intent]struct{}{
	core.IntentPriorityRanking: {},
	core.IntentRiskPriority:    {},
	core.IntentPlanSearch:      {},
}

// WorkflowCapable reports whether an intent may own a continuation.
func WorkflowCapable(intent core.Intent) bool {
	_, ok := workflowIntents[intent]
	return ok
}

const (
	// LimitMin and LimitMax bound any numeric result-limit filter.
	LimitMin = 1
	LimitMax = 500

	// maxFreeTextLen bounds free-text filter values after sanitization.
	maxFreeTextLen = 80
)

var (
	reFreeText = regexp.MustCompile(`^[\p{L}\d' .,-]+$`)
	reDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validator revalidates continuation structures and sanitizes filter merges.
// Construct once; safe for concurrent use.
type Validator struct {
	municipalities map[string]struct{}
	orgUnits       map[string]struct{}
	logger         *logging.DialogLogger
	now            func() time.Time
}

// Options configures a Validator. Municipalities and OrgUnits are the
// enumerated-value whitelists for filter sanitization; an empty whitelist
// rejects every value for that key.
type Options struct {
	Municipalities []string
	OrgUnits       []string
	Logger         logging.Logger
}

// New constructs a Validator.
func New(optFns ...func(o *Options)) *Validator {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	v := &Validator{
		municipalities: make(map[string]struct{}, len(opts.Municipalities)),
		orgUnits:       make(map[string]struct{}, len(opts.OrgUnits)),
		logger:         logging.NewDialogLogger(opts.Logger),
		now:            time.Now,
	}
	for _, m := range opts.Municipalities {
		v.municipalities[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}
	for _, u := range opts.OrgUnits {
		v.orgUnits[strings.ToUpper(strings.TrimSpace(u))] = struct{}{}
	}
	return v
}

// Validate checks a carried-over continuation and returns a sanitized copy,
// or nil when the structure must be treated as absent. Checks run in order:
// age from the structure's own creation time, declared type against the
// workflow whitelist, stage against the closed stage set, presence of a
// freshness token. Slots and filters in the copy pass through the same
// sanitization as a filter merge; only the whitelisted fields survive.
func (v *Validator) Validate(wf *core.WorkflowContext) *core.WorkflowContext {
	if wf == nil {
		return nil
	}
	now := v.now()
	switch {
	case wf.Expired(now):
		v.logger.Debug("workflow rejected", "reason", "expired", "type", string(wf.Type))
		return nil
	case !WorkflowCapable(wf.Type):
		v.logger.Warn("workflow rejected", "reason", "type not workflow-capable", "type", string(wf.Type))
		return nil
	case !core.ValidStage(wf.Stage):
		v.logger.Warn("workflow rejected", "reason", "unknown stage", "stage", string(wf.Stage))
		return nil
	case wf.Token == "":
		v.logger.Warn("workflow rejected", "reason", "missing token", "type", string(wf.Type))
		return nil
	}
	if wf.StrategyID != "" && !ValidStrategy(wf.Type, wf.StrategyID) {
		v.logger.Warn("workflow rejected", "reason", "unknown strategy", "strategy", wf.StrategyID)
		return nil
	}
	out := &core.WorkflowContext{
		Type:       wf.Type,
		Stage:      wf.Stage,
		Token:      wf.Token,
		StrategyID: wf.StrategyID,
		Slots:      v.SanitizeFilters(wf.Slots),
		Filters:    v.SanitizeFilters(wf.Filters),
		Created:    wf.Created,
	}
	return out
}

// HonorPending decides whether a PendingQuestion carried alongside a
// continuation may be answered this turn. It is honored only when its token
// exactly matches the workflow's current token and its kind is in the closed
// question set; any mismatch discards the pending question as a forgery and
// the raw text is classified as if no question were open.
func (v *Validator) HonorPending(p *core.PendingQuestion, wf *core.WorkflowContext) bool {
	if p == nil || wf == nil {
		return false
	}
	if !core.ValidQuestionKind(p.Kind) {
		v.logger.Warn("pending question rejected", "reason", "unknown kind", "kind", string(p.Kind))
		return false
	}
	if !wf.Token.Matches(p.Token) {
		v.logger.Warn("pending question rejected", "reason", "token mismatch")
		return false
	}
	return true
}

// ValidStrategy checks a requested strategy id against the strategies
// actually configured for the workflow's declared intent.
func ValidStrategy(intent core.Intent, strategyID string) bool {
	spec, ok := core.LookupIntent(intent)
	if !ok {
		return false
	}
	for _, id := range spec.Strategies {
		if id == strategyID {
			return true
		}
	}
	return false
}

// SanitizeFilters applies per-key validation to a filter or slot map and
// returns only the surviving entries. Invalid keys are dropped individually,
// never defaulted: enumerated values must appear in their whitelist, numeric
// limits clamp into [LimitMin, LimitMax], free text is restricted to a
// conservative character class and length, categories to the closed NC set,
// dates to a strict calendar shape.
func (v *Validator) SanitizeFilters(in core.Slots) core.Slots {
	out := core.NewSlots()
	for key, raw := range in {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		switch key {
		case core.SlotMunicipality:
			if _, ok := v.municipalities[strings.ToUpper(value)]; ok {
				out.Set(key, strings.ToUpper(value))
			}
		case core.SlotOrgUnit:
			if _, ok := v.orgUnits[strings.ToUpper(value)]; ok {
				out.Set(key, strings.ToUpper(value))
			}
		case core.SlotLimit:
			if n, err := strconv.Atoi(value); err == nil {
				out.Set(key, strconv.Itoa(clampLimit(n)))
			}
		case core.SlotRadiusKM:
			if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 500 {
				out.Set(key, strconv.Itoa(n))
			}
		case core.SlotNCCategory:
			if core.ValidNCCategory(value) {
				out.Set(key, strings.ToLower(value))
			}
		case core.SlotDateFrom, core.SlotDateTo:
			if validDate(value) {
				out.Set(key, value)
			}
		case core.SlotTopic, core.SlotLocation:
			if s, ok := sanitizeFreeText(value); ok {
				out.Set(key, s)
			}
		case core.SlotPlanCode, core.SlotRegistrationNumber:
			if s, ok := sanitizeFreeText(value); ok {
				out.Set(key, strings.ToUpper(s))
			}
		default:
			// Unknown key: dropped.
		}
	}
	return out
}

func clampLimit(n int) int {
	if n < LimitMin {
		return LimitMin
	}
	if n > LimitMax {
		return LimitMax
	}
	return n
}

// sanitizeFreeText limits by runes, not bytes, so accented Italian text gets
// the full length allowance.
func sanitizeFreeText(s string) (string, bool) {
	if utf8.RuneCountInString(s) > maxFreeTextLen || !reFreeText.MatchString(s) {
		return "", false
	}
	return s, true
}

// validDate requires the strict YYYY-MM-DD shape and a real calendar date.
func validDate(s string) bool {
	if !reDate.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
