package fallback

import "github.com/dvitale/gias/core"

// keywordRule scores one intent in the keyword phase. Primary hits weigh
// heavily, context hits nudge, a single negative hit disqualifies the intent
// for this utterance regardless of positive score.
type keywordRule struct {
	intent   core.Intent
	primary  []string
	context  []string
	negative []string
}

const (
	primaryWeight  = 10
	contextWeight  = 5
	negativeWeight = -50

	// minKeywordScore is the floor below which an intent is not suggested.
	minKeywordScore = 15

	// maxSuggestions caps the intent suggestions ahead of the category menu.
	maxSuggestions = 4
)

// keywordRules holds normalized tokens (lowercase, accents stripped).
var keywordRules = []keywordRule{
	{
		intent:  core.IntentPlanDetail,
		primary: []string{"dettaglio", "dettagli", "descrivi", "descrizione"},
		context: []string{"piano", "codice", "scheda"},
	},
	{
		intent:  core.IntentPlanSearch,
		primary: []string{"cerca", "ricerca", "trova"},
		context: []string{"piani", "piano", "argomento", "materia"},
	},
	{
		intent:  core.IntentOverduePlans,
		primary: []string{"scaduti", "scadenze", "ritardo"},
		context: []string{"piani", "elenco", "lista"},
	},
	{
		intent:  core.IntentPlanOverdueCheck,
		primary: []string{"scaduto"},
		context: []string{"piano", "verifica"},
	},
	{
		intent:  core.IntentNearbyOrgUnits,
		primary: []string{"vicino", "vicine", "zona", "km"},
		context: []string{"strutture", "struttura", "uffici", "sede"},
	},
	{
		intent:  core.IntentNeverInspected,
		primary: []string{"ispezionate", "ispezionata", "controllate"},
		context: []string{"mai", "strutture"},
	},
	{
		intent:   core.IntentPriorityRanking,
		primary:  []string{"priorita", "prioritari"},
		context:  []string{"controlli", "ordina", "prima"},
		negative: []string{"rischio", "rischiose"},
	},
	{
		intent:  core.IntentRiskPriority,
		primary: []string{"rischio", "rischiose", "rischiosa"},
		context: []string{"priorita", "strutture", "piu"},
	},
	{
		intent:  core.IntentActivityRisk,
		primary: []string{"attivita"},
		context: []string{"rischio", "tipologie", "classifica"},
	},
	{
		intent:  core.IntentNCByCategory,
		primary: []string{"conformita", "nc"},
		context: []string{"categoria", "igiene", "etichettatura", "tracciabilita"},
	},
	{
		intent:  core.IntentProcedureInfo,
		primary: []string{"procedura", "procedure"},
		context: []string{"come", "registra", "verifica", "svolge"},
	},
}

// scoreKeywords runs the keyword phase over a tokenized utterance and returns
// the surviving suggestions sorted by the caller.
func scoreKeywords(tokens []string) []core.Suggestion {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	hit := func(words []string, weight int) (int, bool) {
		score, any := 0, false
		for _, w := range words {
			if _, ok := set[w]; ok {
				score += weight
				any = true
			}
		}
		return score, any
	}

	var out []core.Suggestion
	for _, r := range keywordRules {
		if _, neg := hit(r.negative, negativeWeight); neg {
			continue
		}
		p, _ := hit(r.primary, primaryWeight)
		c, _ := hit(r.context, contextWeight)
		score := p + c
		if score < minKeywordScore {
			continue
		}
		spec, _ := core.LookupIntent(r.intent)
		out = append(out, core.Suggestion{
			Intent:      r.intent,
			Score:       float64(score),
			Label:       spec.Label,
			Description: spec.Description,
		})
	}
	return out
}
