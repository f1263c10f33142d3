package testutil

import (
	"fmt"
	"strings"

	"github.com/dvitale/gias/core"
)

// Candidate returns an IntentCandidate with the given confidence and
// alternating key/value slot pairs.
func Candidate(intent core.Intent, confidence float64, kv ...string) core.IntentCandidate {
	slots := core.NewSlots()
	for i := 0; i+1 < len(kv); i += 2 {
		slots.Set(kv[i], kv[i+1])
	}
	return core.IntentCandidate{Intent: intent, Confidence: confidence, Slots: slots}
}

// ModelPayload renders the JSON payload a classification model would return.
func ModelPayload(intent core.Intent, confidence float64, kv ...string) string {
	var pairs []string
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%q:%q", kv[i], kv[i+1]))
	}
	return fmt.Sprintf(`{"intent":%q,"confidence":%g,"slots":{%s}}`,
		intent, confidence, strings.Join(pairs, ","))
}
