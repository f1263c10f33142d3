package classifier

import (
	"strings"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
	"github.com/dvitale/gias/slots"
)

// postCorrection is one fixed override for a known model confusion. Like the
// heuristics, corrections form a literal ordered list evaluated in a single
// pass so precedence stays auditable.
type postCorrection struct {
	name  string
	apply func(cand core.IntentCandidate, utterance string, pre core.Slots) core.IntentCandidate
}

var postCorrections = []postCorrection{
	// A generic topic search carrying a well-formed plan code is really a
	// plan-detail request.
	{name: "search_with_code_is_detail", apply: func(cand core.IntentCandidate, utterance string, pre core.Slots) core.IntentCandidate {
		if cand.Intent != core.IntentPlanSearch {
			return cand
		}
		code := pre.Get(core.SlotPlanCode)
		if code == "" {
			code = slots.PlanCode(utterance)
		}
		if code != "" {
			cand.Intent = core.IntentPlanDetail
			cand.Slots = cand.Slots.Merge(core.Slots{core.SlotPlanCode: code})
		}
		return cand
	}},
	// Priority phrasing co-occurring with risk wording belongs to the
	// risk-based ranking.
	{name: "priority_with_risk_is_risk", apply: func(cand core.IntentCandidate, utterance string, _ core.Slots) core.IntentCandidate {
		if cand.Intent == core.IntentPriorityRanking && strings.Contains(util.Normalize(utterance), "rischio") {
			cand.Intent = core.IntentRiskPriority
		}
		return cand
	}},
}

// applyPostCorrections runs the fixed override table over a model candidate.
// Heuristic and cached candidates skip corrections: their rules already
// encode the same precedence.
func applyPostCorrections(cand core.IntentCandidate, utterance string, pre core.Slots) core.IntentCandidate {
	if cand.Source != SourceModel {
		return cand
	}
	for _, pc := range postCorrections {
		cand = pc.apply(cand, utterance, pre)
	}
	return cand
}
