package core

import "github.com/google/uuid"

// Token is a server-issued freshness value (nonce). It must be echoed back
// unmodified to prove a continuation is not forged or stale. Both pending
// questions and workflow contexts carry the same token type and are compared
// with the same function, so there is exactly one notion of freshness in the
// codebase.
type Token string

// NewToken issues a fresh random token.
func NewToken() Token { return Token(uuid.NewString()) }

// Matches reports whether the echoed token equals the expected one. Empty
// tokens never match anything, including each other.
func (t Token) Matches(other Token) bool {
	return t != "" && t == other
}

// QuestionKind enumerates the replay-protected question types a turn may ask.
type QuestionKind string

const (
	QuestionStrategyChoice     QuestionKind = "strategy_choice"
	QuestionParamCollection    QuestionKind = "param_collection"
	QuestionOppureConfirmation QuestionKind = "oppure_confirmation"
)

// ValidQuestionKind reports membership in the closed kind set.
func ValidQuestionKind(k QuestionKind) bool {
	switch k {
	case QuestionStrategyChoice, QuestionParamCollection, QuestionOppureConfirmation:
		return true
	}
	return false
}

// PendingQuestion records a question the manager asked whose answer must be
// replay-protected. It is consumed on the next turn: the echoed token must
// exactly match the workflow's current token or the answer is discarded as a
// forgery.
type PendingQuestion struct {
	Kind       QuestionKind `json:"kind"`
	Token      Token        `json:"token"`
	StrategyID string       `json:"strategy_id,omitempty"`
	ParamName  string       `json:"param_name,omitempty"`
}
