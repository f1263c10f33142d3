// Package slots implements the deterministic parameter extractor: a pure
// function from raw text to a normalized slot map, built on high-precision
// pattern rules for the domain identifiers (plan codes, org-unit codes,
// registration numbers, topics, non-conformity categories, location plus
// radius phrases). It runs standalone to seed heuristics and cache context,
// and again as a hint fed into the model step of the classifier.
package slots

import (
	"regexp"
	"strings"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
)

var (
	// Plan codes: a short letter prefix plus digits (A1, B12) or the long
	// dashed form (PRC-2024-007). Requires either the dashed shape or a
	// "piano"/"plan" cue nearby to stay high precision.
	rePlanCodeLong  = regexp.MustCompile(`(?i)\b([A-Z]{2,4}-\d{2,4}-\d{1,4})\b`)
	rePlanCodeCued  = regexp.MustCompile(`(?i)\bpian[oi]\s+(?:di\s+controllo\s+)?([A-Z]{1,3}\d{1,4})\b`)
	rePlanCodeBare  = regexp.MustCompile(`(?i)^\s*([A-Z]{1,3}\d{1,4})\s*$`)
	reOrgUnit       = regexp.MustCompile(`(?i)\b((?:ASL|UO|UOC)[ -]?[A-Z]{0,3}\d{1,3})\b`)
	reRegistration  = regexp.MustCompile(`\b(\d{11}|[A-Za-z]{6}\d{2}[A-Za-z]\d{2}[A-Za-z]\d{3}[A-Za-z])\b`)
	reTopic         = regexp.MustCompile(`(?i)\bpiani\s+(?:su[lraio]{0,3}|riguardo(?:\s+a)?|relativi\s+a|in\s+materia\s+di|about)\s+(?:il\s+|la\s+|lo\s+|gli\s+|le\s+|i\s+)?([a-zàèéìòù' ]{3,40}?)(?:[.,?!]|$)`)
	reProcedure     = regexp.MustCompile(`(?i)\bcome\s+(?:si\s+|posso\s+|devo\s+)?([a-zàèéìòù' ]{3,40}?)(?:[.,?!]|$)`)
	reRadius        = regexp.MustCompile(`(?i)\b(?:entro|nel raggio di)\s+(\d{1,3})\s*km\b`)
	reNearLocation  = regexp.MustCompile(`(?i)\b(?:km da|vicino a|nei pressi di|in zona|presso)\s+([A-Zàèéìòù][a-zA-Zàèéìòù' ]{1,30}?)(?:[.,?!]|$)`)
	reLimit         = regexp.MustCompile(`(?i)\b(?:prim[ei]|massimo|al massimo|top)\s+(\d{1,3})\b`)
	reDate          = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	reBareLocation  = regexp.MustCompile(`^[A-Zàèéìòù][a-zA-Zàèéìòù' ]*$`)
)

// Extract runs every pattern rule against text and returns the slot map.
// Identifier values are uppercased and trimmed; free-text values are
// normalized lowercase. The result is never nil.
func Extract(text string) core.Slots {
	out := core.NewSlots()
	if strings.TrimSpace(text) == "" {
		return out
	}

	out.Set(core.SlotPlanCode, planCode(text))
	if m := reOrgUnit.FindStringSubmatch(text); m != nil {
		out.Set(core.SlotOrgUnit, normalizeCode(m[1]))
	}
	if m := reRegistration.FindStringSubmatch(text); m != nil {
		out.Set(core.SlotRegistrationNumber, strings.ToUpper(m[1]))
	}
	if m := reTopic.FindStringSubmatch(text); m != nil {
		out.Set(core.SlotTopic, util.Normalize(m[1]))
	} else if topic := ProcedureTopic(text); topic != "" {
		out.Set(core.SlotTopic, topic)
	}
	out.Set(core.SlotNCCategory, ncCategory(text))
	if m := reRadius.FindStringSubmatch(text); m != nil {
		out.Set(core.SlotRadiusKM, m[1])
	}
	out.Set(core.SlotLocation, Location(text))
	if m := reLimit.FindStringSubmatch(text); m != nil {
		out.Set(core.SlotLimit, m[1])
	}
	if dates := reDate.FindAllStringSubmatch(text, 2); len(dates) > 0 {
		out.Set(core.SlotDateFrom, dates[0][1])
		if len(dates) > 1 {
			out.Set(core.SlotDateTo, dates[1][1])
		}
	}
	return out
}

// PlanCode extracts only the plan code, if any. Used by the post-correction
// rules of the classifier.
func PlanCode(text string) string { return planCode(text) }

func planCode(text string) string {
	if m := rePlanCodeLong.FindStringSubmatch(text); m != nil {
		return normalizeCode(m[1])
	}
	if m := rePlanCodeCued.FindStringSubmatch(text); m != nil {
		return normalizeCode(m[1])
	}
	if m := rePlanCodeBare.FindStringSubmatch(text); m != nil {
		return normalizeCode(m[1])
	}
	return ""
}

// Location extracts an address-shaped phrase ("vicino a Cuneo", "da Torino")
// or, for a bare reply to a location question, the trimmed text itself when
// it looks like a place name. Used by the pending-slot fast path.
func Location(text string) string {
	if m := reNearLocation.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// BareLocation accepts a short capitalized reply as a place name, for turns
// that answer a pending location question with just "Cuneo".
func BareLocation(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > 40 {
		return ""
	}
	if reBareLocation.MatchString(trimmed) {
		return trimmed
	}
	return ""
}

// ProcedureTopic pulls the action phrase out of a "come si ..." question.
func ProcedureTopic(text string) string {
	if m := reProcedure.FindStringSubmatch(text); m != nil {
		return util.Normalize(m[1])
	}
	return ""
}

func ncCategory(text string) string {
	norm := util.Normalize(text)
	for _, cat := range core.NCCategories {
		if strings.Contains(norm, cat) {
			return cat
		}
	}
	return ""
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
