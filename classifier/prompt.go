package classifier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/dvitale/gias/core"
)

// systemPrompt enumerates the closed vocabulary plus explicit rules for the
// intent pairs the model confuses most. Built once; the vocabulary is static.
var systemPrompt = sync.OnceValue(func() string {
	var b strings.Builder
	b.WriteString("Sei il classificatore di intenti dell'assistente GiAs per i piani di controllo.\n")
	b.WriteString("Classifica il messaggio dell'utente in uno di questi intenti:\n")
	for _, spec := range core.Intents() {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
	}
	fmt.Fprintf(&b, "- %s: il messaggio non corrisponde a nessun intento\n", core.IntentUnrecognized)
	b.WriteString("\nRegole:\n")
	b.WriteString("1. 'quali piani sono scaduti' (plurale) è overdue_plans; 'il piano X è scaduto' (singolare, con codice) è plan_overdue_check.\n")
	b.WriteString("2. Se la richiesta di priorità menziona il rischio usa risk_priority, altrimenti priority_ranking.\n")
	b.WriteString("3. 'come si fa...' è procedure_info, ma se chiede di descrivere un piano usa plan_detail.\n")
	b.WriteString("4. Una ricerca per argomento con un codice piano esplicito è plan_detail, non plan_search.\n")
	b.WriteString("\nRispondi con JSON: {\"intent\":string,\"slots\":object,\"needs_more_info\":bool,\"confidence\":number}.\n")
	b.WriteString("Gli slot ammessi sono: plan_code, org_unit, registration_number, topic, nc_category, location, radius_km, municipality, limit, date_from, date_to.\n")
	return b.String()
})

// userPrompt renders the utterance plus the deterministic slot hints and an
// optional short session-context line for anaphora resolution.
func userPrompt(in Input, preParsed core.Slots) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Messaggio: %s\n", in.Utterance)
	if len(preParsed) > 0 {
		b.WriteString("Slot pre-estratti:")
		for _, k := range preParsed.Keys() {
			fmt.Fprintf(&b, " %s=%s", k, preParsed.Get(k))
		}
		b.WriteString("\n")
	}
	if line := sessionContextLine(in.State); line != "" {
		fmt.Fprintf(&b, "Contesto: %s\n", line)
	}
	if in.Workflow != nil {
		fmt.Fprintf(&b, "Flusso attivo: %s (fase %s)\n", in.Workflow.Type, in.Workflow.Stage)
	}
	return b.String()
}

// sessionContextLine summarizes the prior turn in one line so the model can
// resolve anaphora ("e quello di ieri?"). Empty on cold sessions.
func sessionContextLine(st *core.DialogueState) string {
	if st == nil {
		return ""
	}
	var parts []string
	if st.LastToolIntent != "" {
		parts = append(parts, fmt.Sprintf("ultimo intent %s", st.LastToolIntent))
	} else if st.ConfirmedIntent != "" {
		parts = append(parts, fmt.Sprintf("intent corrente %s", st.ConfirmedIntent))
	}
	if len(st.Slots) > 0 {
		kv := make([]string, 0, len(st.Slots))
		for _, k := range st.Slots.Keys() {
			kv = append(kv, k+"="+st.Slots.Get(k))
		}
		parts = append(parts, "slot "+strings.Join(kv, " "))
	}
	if st.ResponseContext != "" {
		parts = append(parts, st.ResponseContext)
	}
	return strings.Join(parts, "; ")
}

// parsePayload decodes the model's JSON payload tolerantly: the intent must
// belong to the vocabulary, unknown slot keys are dropped, confidence is
// clamped to [0,1] and defaults to core.DefaultConfidence when missing or
// non-numeric. A payload with no usable intent reports !ok and the caller
// degrades to unrecognized.
func parsePayload(payload string) (core.IntentCandidate, bool) {
	if !gjson.Valid(payload) {
		return core.IntentCandidate{}, false
	}
	intent := core.Intent(gjson.Get(payload, "intent").String())
	if intent == "" || !core.ValidIntent(intent) {
		return core.IntentCandidate{}, false
	}

	cand := core.IntentCandidate{Intent: intent, Slots: core.NewSlots()}

	if conf := gjson.Get(payload, "confidence"); conf.Type == gjson.Number {
		cand.Confidence = core.ClampConfidence(conf.Float())
	} else {
		cand.Confidence = core.DefaultConfidence
	}

	cand.NeedsMoreInfo = gjson.Get(payload, "needs_more_info").Bool()

	gjson.Get(payload, "slots").ForEach(func(key, value gjson.Result) bool {
		if core.KnownSlot(key.String()) && value.String() != "" {
			cand.Slots.Set(key.String(), strings.TrimSpace(value.String()))
		}
		return true
	})
	return cand, true
}
