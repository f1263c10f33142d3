package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dvitale/gias/core"
)

// Registry maps every domain intent to exactly one handler. Populated at
// startup and read-only afterwards; Validate fails fast on any uncovered
// intent so a missing handler is a boot error, not a runtime surprise.
type Registry struct {
	byIntent map[core.Intent]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byIntent: make(map[core.Intent]Tool)}
}

// Register binds one or more intents to a tool. Registering an intent twice
// replaces the previous binding.
func (r *Registry) Register(t Tool, intents ...core.Intent) *Registry {
	for _, intent := range intents {
		r.byIntent[intent] = t
	}
	return r
}

// Lookup returns the handler for an intent.
func (r *Registry) Lookup(intent core.Intent) (Tool, bool) {
	t, ok := r.byIntent[intent]
	return t, ok
}

// Call dispatches one classified turn to the registered handler.
func (r *Registry) Call(ctx context.Context, intent core.Intent, slots core.Slots, metadata map[string]string) (*Result, error) {
	t, ok := r.byIntent[intent]
	if !ok {
		return nil, NewToolError(string(intent), "no handler registered", "UNMAPPED_INTENT")
	}
	return t.Call(ctx, intent, slots, metadata)
}

// Validate reports every domain intent without a handler, sorted for stable
// error output. A nil return means the mapping is exhaustive.
func (r *Registry) Validate() error {
	var missing []string
	for _, spec := range core.DomainIntents() {
		if _, ok := r.byIntent[spec.Name]; !ok {
			missing = append(missing, string(spec.Name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("registry incomplete, unmapped intents: %s", strings.Join(missing, ", "))
}
