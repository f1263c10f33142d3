package core

// MetadataSessionID is the one metadata key every turn must carry.
const MetadataSessionID = "session_id"

// TurnInput is everything the caller supplies for one conversational turn.
// DialogueState and Workflow are the opaque structures echoed back from the
// previous TurnOutput; both may be nil on a cold session.
type TurnInput struct {
	Utterance string            `json:"utterance"`
	Metadata  map[string]string `json:"metadata"`
	State     *DialogueState    `json:"state,omitempty"`
	Workflow  *WorkflowContext  `json:"workflow,omitempty"`
}

// SessionID returns the stable session identifier from the metadata map.
func (t TurnInput) SessionID() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetadataSessionID]
}

// Action says what the turn resolved to from the caller's perspective.
type Action string

const (
	ActionExecute  Action = "execute"
	ActionAsk      Action = "ask"
	ActionFallback Action = "fallback"
)

// TurnOutput is the whole result of one turn: the resolved intent, the text
// to show (tool rendering, question or fallback menu) and the state/workflow
// structures the caller must echo back next turn.
type TurnOutput struct {
	Intent         Intent           `json:"intent"`
	Slots          Slots            `json:"slots,omitempty"`
	Action         Action           `json:"action"`
	Text           string           `json:"text"`
	State          *DialogueState   `json:"state"`
	Workflow       *WorkflowContext `json:"workflow,omitempty"`
	HasMoreDetails bool             `json:"has_more_details"`
}

// DecisionKind is the dialogue manager's verdict for a turn.
type DecisionKind int

const (
	// DecisionExecute runs the tool mapped to Intent with Slots.
	DecisionExecute DecisionKind = iota
	// DecisionAsk returns Question to the user and waits.
	DecisionAsk
	// DecisionFallback hands the turn to the fallback engine.
	DecisionFallback
)

// Decision is the dialogue manager's output: one verdict plus the material
// needed to act on it. Rule names the manager rule that fired, for logs and
// rule-by-rule tests.
type Decision struct {
	Kind     DecisionKind
	Intent   Intent
	Slots    Slots
	Question string
	Rule     string
}
