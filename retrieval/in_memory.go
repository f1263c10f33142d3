package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
)

// InMemoryIndex is a process-local core.Retriever over a curated set of
// labeled utterances.
//
// Scoring: Jaccard-style token overlap between the normalized query and each
// stored text. Results come back in descending score order, capped at topK
// and at maxPerLabel entries per label so the few-shot block stays diverse.
//
// Concurrency: protected by RWMutex; Add may run while turns retrieve.
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries []indexed
}

type indexed struct {
	text   string
	label  core.Intent
	tokens map[string]bool
}

// NewInMemoryIndex builds an index, optionally pre-seeded from the intent
// registry's example utterances.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// NewSeededIndex builds an index seeded with every example utterance declared
// in the intent registry.
func NewSeededIndex() *InMemoryIndex {
	idx := NewInMemoryIndex()
	for _, spec := range core.Intents() {
		for _, ex := range spec.Examples {
			idx.Add(ex, spec.Name)
		}
	}
	return idx
}

// Add stores one labeled example.
func (idx *InMemoryIndex) Add(text string, label core.Intent) {
	tokens := map[string]bool{}
	for _, t := range util.Tokens(text) {
		tokens[t] = true
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, indexed{text: text, label: label, tokens: tokens})
}

// Len returns the number of stored examples.
func (idx *InMemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Retrieve implements core.Retriever.
func (idx *InMemoryIndex) Retrieve(ctx context.Context, query string, topK int, minScore float64, maxPerLabel int) []core.Example {
	if topK <= 0 || ctx.Err() != nil {
		return nil
	}
	queryTokens := map[string]bool{}
	for _, t := range util.Tokens(query) {
		queryTokens[t] = true
	}
	if len(queryTokens) == 0 {
		return nil
	}

	idx.mu.RLock()
	scored := make([]core.Example, 0, len(idx.entries))
	for _, e := range idx.entries {
		s := overlap(queryTokens, e.tokens)
		if s >= minScore && s > 0 {
			scored = append(scored, core.Example{Text: e.text, Label: e.label, Score: s})
		}
	}
	idx.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	perLabel := map[core.Intent]int{}
	out := make([]core.Example, 0, topK)
	for _, ex := range scored {
		if maxPerLabel > 0 && perLabel[ex.Label] >= maxPerLabel {
			continue
		}
		perLabel[ex.Label]++
		out = append(out, ex)
		if len(out) == topK {
			break
		}
	}
	return out
}

func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range a {
		if b[t] {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}

var _ core.Retriever = (*InMemoryIndex)(nil)
