package dialog

import (
	"fmt"
	"strings"

	"github.com/dvitale/gias/core"
)

// slotPrompts is the fixed slot-to-question table used when a confirmed
// intent still misses required slots. One line per missing slot.
var slotPrompts = map[string]string{
	core.SlotPlanCode:           "Quale piano ti interessa? Indicami il codice (es. A1).",
	core.SlotTopic:              "Su quale argomento vuoi cercare?",
	core.SlotNCCategory:         "Quale categoria di non conformità? (es. igiene, etichettatura)",
	core.SlotLocation:           "In quale zona devo cercare? Indicami un comune.",
	core.SlotRadiusKM:           "Entro quanti chilometri devo cercare?",
	core.SlotOrgUnit:            "Quale unità organizzativa ti interessa?",
	core.SlotRegistrationNumber: "Qual è il numero di registrazione dell'azienda?",
	core.SlotMunicipality:       "In quale comune?",
}

// PromptForSlots renders one prompt line per missing slot, in order.
func PromptForSlots(missing []string) string {
	lines := make([]string, 0, len(missing))
	for _, name := range missing {
		if p, ok := slotPrompts[name]; ok {
			lines = append(lines, p)
		} else {
			lines = append(lines, fmt.Sprintf("Mi serve anche: %s.", name))
		}
	}
	return strings.Join(lines, "\n")
}

// strategyLabels maps strategy ids to the wording used in choice questions.
var strategyLabels = map[string]string{
	core.StrategyDeadline: "per scadenza più vicina",
	core.StrategyRisk:     "per rischio della struttura",
	core.StrategyCoverage: "per copertura dei controlli",
}

func strategyLabel(id string) string {
	if l, ok := strategyLabels[id]; ok {
		return l
	}
	return id
}

// strategyChoiceQuestion renders the numbered strategy menu for an intent.
func strategyChoiceQuestion(spec core.Spec) string {
	var b strings.Builder
	b.WriteString("Posso ordinare i controlli in più modi:\n")
	for i, id := range spec.Strategies {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strategyLabel(id))
	}
	b.WriteString("Quale preferisci?")
	return b.String()
}

// alternativeQuestion proposes the next strategy in rotation.
func alternativeQuestion(strategyID string) string {
	return fmt.Sprintf("Posso riprovare %s. Procedo?", strategyLabel(strategyID))
}

// disambiguationQuestion renders a numbered choice among the top candidates.
func disambiguationQuestion(cands []core.IntentCandidate) string {
	var b strings.Builder
	b.WriteString("Non sono sicuro di aver capito. Intendevi:\n")
	for i, c := range cands {
		label := string(c.Intent)
		if spec, ok := core.LookupIntent(c.Intent); ok {
			label = spec.Label
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	b.WriteString("Rispondi con il numero.")
	return b.String()
}
