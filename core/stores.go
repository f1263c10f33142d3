package core

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired
// sessions.
var ErrSessionNotFound = errors.New("session not found")

// DetailEnvelope is the two-phase response state: the full rendering held
// back when a tool returned more items than the intent's threshold. Read-only
// once created; cleared on decline or overwritten by the next detail-producing
// tool call, never stacked.
type DetailEnvelope struct {
	FullRendering string    `json:"full_rendering"`
	Intent        Intent    `json:"intent"`
	ItemCount     int       `json:"item_count"`
	Created       time.Time `json:"created"`
}

// Suggestion is one fallback proposal: either a domain intent or a category
// menu entry, scored for ordering. Ephemeral per turn except when kept in the
// session record so the next turn can parse a selection against it.
type Suggestion struct {
	Intent      Intent  `json:"intent,omitempty"`
	Category    string  `json:"category,omitempty"`
	Score       float64 `json:"score"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
}

// SessionRecord is the server-side per-session mutable state: everything that
// must survive between turns but is never echoed through the caller. All
// mutation happens through the owning store under its lock; the record itself
// is a plain value snapshot.
type SessionRecord struct {
	ID                   string          `json:"id"`
	PendingDetail        *DetailEnvelope `json:"pending_detail,omitempty"`
	ConsecutiveFallbacks int             `json:"consecutive_fallbacks"`
	FallbackOptions      []Suggestion    `json:"fallback_options,omitempty"`
	Updated              time.Time       `json:"updated"`
}

// NewSessionRecord returns an empty record for the given session id.
func NewSessionRecord(id string) *SessionRecord {
	return &SessionRecord{ID: id, Updated: time.Now().UTC()}
}

// Clone returns an independent copy of the record.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.PendingDetail != nil {
		d := *r.PendingDetail
		out.PendingDetail = &d
	}
	out.FallbackOptions = append([]Suggestion(nil), r.FallbackOptions...)
	return &out
}

// SessionStore persists SessionRecords keyed by session id. Implementations
// must be safe for concurrent use by overlapping turns; Get returns a copy so
// concurrent readers never observe a half-written record.
type SessionStore interface {
	// Get returns a copy of the record or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*SessionRecord, error)
	// Put stores a copy of the record, refreshing its TTL.
	Put(ctx context.Context, rec *SessionRecord) error
	// Delete removes the record; deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error
}

// Example is one labeled few-shot retrieval result.
type Example struct {
	Text  string  `json:"text"`
	Label Intent  `json:"label"`
	Score float64 `json:"score"`
}

// Retriever serves nearest-neighbor labeled examples for few-shot prompting.
// Results arrive in descending score order, at most maxPerLabel per label.
// An unavailable backend returns an empty slice, never an error the caller
// has to branch on; classification quality degrades, the turn does not fail.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, minScore float64, maxPerLabel int) []Example
}
