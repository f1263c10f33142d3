package core

import "fmt"

// Intent is one member of the closed vocabulary naming what the user wants
// done. Anything outside the vocabulary is mapped to IntentUnrecognized by the
// classifier; the value never travels as an error.
type Intent string

// The closed intent vocabulary. Conversational intents carry no domain
// payload; domain intents map to a tool in the registry.
const (
	IntentGreeting      Intent = "greeting"
	IntentFarewell      Intent = "farewell"
	IntentHelp          Intent = "help"
	IntentConfirm       Intent = "confirm"
	IntentDecline       Intent = "decline"
	IntentMenuSelection Intent = "menu_selection"

	IntentPlanDetail       Intent = "plan_detail"
	IntentPlanSearch       Intent = "plan_search"
	IntentOverduePlans     Intent = "overdue_plans"
	IntentPlanOverdueCheck Intent = "plan_overdue_check"
	IntentNearbyOrgUnits   Intent = "nearby_org_units"
	IntentNeverInspected   Intent = "never_inspected"
	IntentPriorityRanking  Intent = "priority_ranking"
	IntentRiskPriority     Intent = "risk_priority"
	IntentActivityRisk     Intent = "activity_risk"
	IntentNCByCategory     Intent = "nc_by_category"
	IntentProcedureInfo    Intent = "procedure_info"

	// IntentUnrecognized is the reserved intent returned when no rule, cache
	// entry or model call confidently resolves the utterance. Results carrying
	// it are never cached so the next attempt gets a fresh classification.
	IntentUnrecognized Intent = "unrecognized"
)

// Canonical slot names. Keys outside this set are dropped during validation.
const (
	SlotPlanCode           = "plan_code"
	SlotOrgUnit            = "org_unit"
	SlotRegistrationNumber = "registration_number"
	SlotTopic              = "topic"
	SlotNCCategory         = "nc_category"
	SlotLocation           = "location"
	SlotRadiusKM           = "radius_km"
	SlotMunicipality       = "municipality"
	SlotLimit              = "limit"
	SlotDateFrom           = "date_from"
	SlotDateTo             = "date_to"
	SlotStrategy           = "strategy"
)

// Spec describes the static contract of one intent: which slots it needs,
// whether it can execute without any, which follow-up strategies it offers and
// how it presents itself in prompts and fallback menus.
//
// RequiredSlots is a list of groups; every group must be satisfied, and a
// group is satisfied when at least one of its slot names carries a non-empty
// value. A single-element group is therefore a plain mandatory slot.
type Spec struct {
	Name           Intent
	Label          string
	Description    string
	Category       string
	Examples       []string
	RequiredSlots  [][]string
	SelfSufficient bool
	Conversational bool
	Strategies     []string
	DetailLimit    int // two-phase threshold; 0 means the package default
}

// Fallback/help menu categories.
const (
	CategoryPlans     = "Piani di controllo"
	CategoryDeadlines = "Scadenze"
	CategoryPriority  = "Priorità e rischio"
	CategoryNC        = "Non conformità"
	CategoryTerritory = "Ricerca territoriale"
	CategoryProcedure = "Procedure"
	CategoryGeneral   = "Assistenza"
)

// registry is the single source of truth for the vocabulary. Order matters
// only for menu rendering; lookup is by name.
var registry = []Spec{
	{Name: IntentGreeting, Label: "Saluto", Description: "Saluta l'assistente", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"ciao", "buongiorno"}},
	{Name: IntentFarewell, Label: "Congedo", Description: "Chiudi la conversazione", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"arrivederci", "grazie, a presto"}},
	{Name: IntentHelp, Label: "Aiuto", Description: "Mostra cosa può fare l'assistente", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"aiuto", "cosa puoi fare?"}},
	{Name: IntentConfirm, Label: "Conferma", Description: "Conferma la proposta corrente", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"sì", "va bene"}},
	{Name: IntentDecline, Label: "Rifiuto", Description: "Rifiuta la proposta corrente", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"no", "no grazie"}},
	{Name: IntentMenuSelection, Label: "Scelta da menu", Description: "Seleziona un'opzione numerata", Category: CategoryGeneral, Conversational: true, SelfSufficient: true,
		Examples: []string{"opzione 2", "la prima"}},

	{Name: IntentPlanDetail, Label: "Dettaglio piano", Description: "Descrive un piano di controllo a partire dal codice", Category: CategoryPlans,
		RequiredSlots: [][]string{{SlotPlanCode}},
		Examples:      []string{"dimmi del piano A1", "dettagli del piano PRC-2024-007"}},
	{Name: IntentPlanSearch, Label: "Ricerca piani", Description: "Cerca piani di controllo per argomento o categoria", Category: CategoryPlans,
		RequiredSlots: [][]string{{SlotTopic, SlotNCCategory}},
		Examples:      []string{"piani sul benessere animale", "quali piani riguardano i fitosanitari?"}},
	{Name: IntentOverduePlans, Label: "Piani scaduti", Description: "Elenca i piani di controllo scaduti", Category: CategoryDeadlines, SelfSufficient: true,
		Examples: []string{"quali piani sono scaduti?", "elenco dei piani in ritardo"}},
	{Name: IntentPlanOverdueCheck, Label: "Verifica scadenza", Description: "Verifica se un singolo piano è scaduto", Category: CategoryDeadlines,
		RequiredSlots: [][]string{{SlotPlanCode}},
		Examples:      []string{"il piano A1 è scaduto?", "è in ritardo il piano B3?"}},
	{Name: IntentNearbyOrgUnits, Label: "Strutture vicine", Description: "Trova unità organizzative vicine a un luogo", Category: CategoryTerritory,
		RequiredSlots: [][]string{{SlotLocation}},
		Examples:      []string{"strutture entro 20 km da Cuneo", "uffici vicino a Torino"}},
	{Name: IntentNeverInspected, Label: "Mai ispezionate", Description: "Elenca le strutture mai ispezionate", Category: CategoryTerritory, SelfSufficient: true,
		Examples: []string{"quali strutture non sono mai state ispezionate?"}},
	{Name: IntentPriorityRanking, Label: "Priorità controlli", Description: "Ordina i controlli da fare per priorità", Category: CategoryPriority, SelfSufficient: true,
		Strategies: []string{StrategyDeadline, StrategyRisk, StrategyCoverage},
		Examples:   []string{"quali controlli faccio prima?", "ordina i piani per priorità"}},
	{Name: IntentRiskPriority, Label: "Priorità per rischio", Description: "Priorità calcolata sul rischio delle strutture", Category: CategoryPriority, SelfSufficient: true,
		Examples: []string{"priorità in base al rischio", "quali strutture sono più a rischio?"}},
	{Name: IntentActivityRisk, Label: "Rischio attività", Description: "Classifica le tipologie di attività per rischio", Category: CategoryPriority, SelfSufficient: true,
		Examples: []string{"quali attività sono più rischiose?"}},
	{Name: IntentNCByCategory, Label: "Non conformità", Description: "Non conformità rilevate per categoria", Category: CategoryNC,
		RequiredSlots: [][]string{{SlotNCCategory}},
		Examples:      []string{"non conformità su etichettatura", "quante NC per igiene?"}},
	{Name: IntentProcedureInfo, Label: "Procedure", Description: "Spiega come si svolge una procedura di controllo", Category: CategoryProcedure,
		RequiredSlots: [][]string{{SlotTopic}},
		Examples:      []string{"come si registra un campionamento?", "come funziona la verifica documentale?"}},
}

// Strategy identifiers for multi-strategy intents.
const (
	StrategyDeadline = "deadline"
	StrategyRisk     = "risk"
	StrategyCoverage = "coverage"
)

var registryByName = func() map[Intent]Spec {
	m := make(map[Intent]Spec, len(registry))
	for _, s := range registry {
		m[s.Name] = s
	}
	return m
}()

// LookupIntent returns the Spec for an intent, if it belongs to the vocabulary.
// IntentUnrecognized is reserved and deliberately has no Spec.
func LookupIntent(name Intent) (Spec, bool) {
	s, ok := registryByName[name]
	return s, ok
}

// ValidIntent reports whether name belongs to the vocabulary (the reserved
// unrecognized intent included).
func ValidIntent(name Intent) bool {
	if name == IntentUnrecognized {
		return true
	}
	_, ok := registryByName[name]
	return ok
}

// Intents returns the registry in declaration order.
func Intents() []Spec {
	out := make([]Spec, len(registry))
	copy(out, registry)
	return out
}

// DomainIntents returns the non-conversational members of the vocabulary,
// i.e. those that must be backed by a tool.
func DomainIntents() []Spec {
	out := make([]Spec, 0, len(registry))
	for _, s := range registry {
		if !s.Conversational {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct fallback/help categories in menu order.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range registry {
		if s.Category == CategoryGeneral || seen[s.Category] {
			continue
		}
		seen[s.Category] = true
		out = append(out, s.Category)
	}
	return out
}

// IntentsInCategory returns the domain intents filed under a category.
func IntentsInCategory(category string) []Spec {
	var out []Spec
	for _, s := range registry {
		if s.Category == category && !s.Conversational {
			out = append(out, s)
		}
	}
	return out
}

// MissingSlots returns, for every unsatisfied required group, the group's
// slot names joined in declaration order. A nil return means the intent can
// execute with the provided slots.
func (s Spec) MissingSlots(slots Slots) []string {
	var missing []string
	for _, group := range s.RequiredSlots {
		satisfied := false
		for _, name := range group {
			if slots.Get(name) != "" {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, group[0])
		}
	}
	return missing
}

// KnownSlot reports whether key is a canonical slot name.
func KnownSlot(key string) bool {
	switch key {
	case SlotPlanCode, SlotOrgUnit, SlotRegistrationNumber, SlotTopic,
		SlotNCCategory, SlotLocation, SlotRadiusKM, SlotMunicipality,
		SlotLimit, SlotDateFrom, SlotDateTo, SlotStrategy:
		return true
	}
	return false
}

// NextStrategy returns the strategy after current in the intent's circular
// strategy list. An unknown or empty current yields the first strategy.
func (s Spec) NextStrategy(current string) (string, error) {
	if len(s.Strategies) == 0 {
		return "", fmt.Errorf("intent %s has no strategies", s.Name)
	}
	for i, id := range s.Strategies {
		if id == current {
			return s.Strategies[(i+1)%len(s.Strategies)], nil
		}
	}
	return s.Strategies[0], nil
}
