package classifier

import (
	"regexp"
	"strings"

	"github.com/dvitale/gias/core"
)

// heuristicRule is one entry of the ordered high-precision rule table. The
// predicate sees the normalized utterance plus the turn input; the first rule
// whose predicate fires wins and yields its intent at heuristicConfidence.
type heuristicRule struct {
	name      string
	intent    core.Intent
	predicate func(norm string, in Input, pre core.Slots) bool
}

var (
	reGreeting   = regexp.MustCompile(`^(ciao|salve|buongiorno|buonasera|buondi|hey|hello)\b`)
	reFarewell   = regexp.MustCompile(`\b(arrivederci|a presto|addio|ci vediamo|alla prossima|bye)\b`)
	reHelp       = regexp.MustCompile(`^(aiuto|help)$|cosa (puoi|sai) fare|come funzioni`)
	reConfirm    = regexp.MustCompile(`^(si|ok|va bene|certo|d'accordo|volentieri|confermo)[.!]?$`)
	reDecline    = regexp.MustCompile(`^(no|no grazie|non ora|lascia stare)[.!]?$`)
	reMenuNumber = regexp.MustCompile(`^\d{1,2}$|^(opzione|scelta|numero) \d{1,2}$|^la (prima|seconda|terza|quarta)$`)
	reOverdue    = regexp.MustCompile(`scadut|in ritardo|fuori tempo`)
	reProximity  = regexp.MustCompile(`vicino|nei pressi|in zona|entro \d{1,3} km|nel raggio di`)
	reNeverInsp  = regexp.MustCompile(`mai (stat[ae] )?(ispezionat|controllat|verificat)`)
	rePriority   = regexp.MustCompile(`priorita|(quali|cosa|che) controll\w* (faccio |fare )?(per )?prim[ao]|da fare prima`)
	reRisk       = regexp.MustCompile(`rischio|rischios`)
	reActivity   = regexp.MustCompile(`attivita|tipolog`)
	reNC         = regexp.MustCompile(`non conformita|\bnc\b`)
	reHowTo      = regexp.MustCompile(`^come (si|posso|devo|funziona)\b|procedura per`)
	rePlanTalk   = regexp.MustCompile(`(dimmi|parlami|descrivi|dettagli|informazioni) d?e?l? ?piano|\bpiano\b`)
	rePlanSearch = regexp.MustCompile(`piani (su|sul|sulla|sui|riguardo|relativi|in materia)`)
)

// heuristicRules is the literal ordered rule list; precedence is the slice
// order and nothing else.
var heuristicRules = []heuristicRule{
	{name: "greeting", intent: core.IntentGreeting,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reGreeting.MatchString(norm) }},
	{name: "farewell", intent: core.IntentFarewell,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reFarewell.MatchString(norm) }},
	{name: "help", intent: core.IntentHelp,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reHelp.MatchString(norm) }},

	// Short confirm/decline only mean something while a two-phase envelope or
	// a pending question is active; otherwise a bare "si" stays ambiguous and
	// falls through to the model.
	{name: "confirm", intent: core.IntentConfirm,
		predicate: func(norm string, in Input, _ core.Slots) bool {
			return awaitingAnswer(in) && reConfirm.MatchString(norm)
		}},
	{name: "decline", intent: core.IntentDecline,
		predicate: func(norm string, in Input, _ core.Slots) bool {
			return awaitingAnswer(in) && reDecline.MatchString(norm)
		}},
	{name: "menu_selection", intent: core.IntentMenuSelection,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reMenuNumber.MatchString(norm) }},

	// Singular before plural: a plan code plus overdue wording asks about one
	// plan, not the overdue listing.
	{name: "plan_overdue_check", intent: core.IntentPlanOverdueCheck,
		predicate: func(norm string, _ Input, pre core.Slots) bool {
			return reOverdue.MatchString(norm) && pre.Get(core.SlotPlanCode) != ""
		}},
	{name: "overdue_plans", intent: core.IntentOverduePlans,
		predicate: func(norm string, _ Input, pre core.Slots) bool {
			return reOverdue.MatchString(norm) && strings.Contains(norm, "piani")
		}},

	{name: "nearby_org_units", intent: core.IntentNearbyOrgUnits,
		predicate: func(norm string, _ Input, _ core.Slots) bool {
			return reProximity.MatchString(norm) && strings.Contains(norm, "struttur") ||
				reProximity.MatchString(norm) && strings.Contains(norm, "uffic")
		}},
	{name: "never_inspected", intent: core.IntentNeverInspected,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reNeverInsp.MatchString(norm) }},

	// Activity risk before risk priority: "quali attività sono più
	// rischiose" mentions risk but ranks activity types.
	{name: "activity_risk", intent: core.IntentActivityRisk,
		predicate: func(norm string, _ Input, _ core.Slots) bool {
			return reActivity.MatchString(norm) && reRisk.MatchString(norm)
		}},
	{name: "risk_priority", intent: core.IntentRiskPriority,
		predicate: func(norm string, _ Input, _ core.Slots) bool {
			return rePriority.MatchString(norm) && reRisk.MatchString(norm) ||
				strings.Contains(norm, "piu a rischio")
		}},
	// Plain priority is guarded against risk wording by the rule above and
	// by its own negative check.
	{name: "priority_ranking", intent: core.IntentPriorityRanking,
		predicate: func(norm string, _ Input, _ core.Slots) bool {
			return rePriority.MatchString(norm) && !reRisk.MatchString(norm)
		}},

	{name: "nc_by_category", intent: core.IntentNCByCategory,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return reNC.MatchString(norm) }},

	// How-to phrasing loses against plan-description phrasing: "come si
	// articola il piano A1" is a plan question.
	{name: "procedure_info", intent: core.IntentProcedureInfo,
		predicate: func(norm string, _ Input, _ core.Slots) bool {
			return reHowTo.MatchString(norm) && !strings.Contains(norm, "piano")
		}},

	{name: "plan_search", intent: core.IntentPlanSearch,
		predicate: func(norm string, _ Input, _ core.Slots) bool { return rePlanSearch.MatchString(norm) }},
	{name: "plan_detail", intent: core.IntentPlanDetail,
		predicate: func(norm string, _ Input, pre core.Slots) bool {
			return rePlanTalk.MatchString(norm) && !rePlanSearch.MatchString(norm)
		}},
}

func awaitingAnswer(in Input) bool {
	return in.DetailPending || (in.State != nil && in.State.Pending != nil)
}

// matchHeuristics evaluates the rule table in a single pass; the first hit
// returns a candidate at heuristicConfidence carrying the pre-parsed slots.
func matchHeuristics(norm string, in Input, pre core.Slots) (core.IntentCandidate, bool) {
	for _, rule := range heuristicRules {
		if rule.predicate(norm, in, pre) {
			return core.IntentCandidate{
				Intent:     rule.intent,
				Confidence: heuristicConfidence,
				Slots:      pre.Clone(),
				Source:     SourceHeuristic + ":" + rule.name,
			}, true
		}
	}
	return core.IntentCandidate{}, false
}

// domainVocabulary tokens mark an utterance as plausibly in-domain for the
// gibberish short-circuit.
var domainVocabulary = []string{
	"piano", "piani", "controllo", "controlli", "scadut", "ritardo",
	"priorita", "rischio", "struttur", "ispezion", "attivita", "conformita",
	"nc", "procedura", "campion", "verifica", "azienda", "asl", "ufficio",
	"uffici", "zona", "km",
}

// isGibberish fires only when nothing at all anchors the message: no domain
// token, no pre-parsed identifier, no trivial pattern and no pending-slot
// continuation. It guarantees line noise never reaches the model.
func isGibberish(norm string, in Input, pre core.Slots) bool {
	if norm == "" {
		return true
	}
	if len(pre) > 0 {
		return false
	}
	if in.State != nil && in.State.ConfirmedIntent != "" && len(in.State.MissingSlots) > 0 {
		return false
	}
	for _, tok := range domainVocabulary {
		if strings.Contains(norm, tok) {
			return false
		}
	}
	trivial := []*regexp.Regexp{reGreeting, reFarewell, reHelp, reConfirm, reDecline, reMenuNumber}
	for _, re := range trivial {
		if re.MatchString(norm) {
			return false
		}
	}
	return true
}
