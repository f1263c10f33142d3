// Package fallback builds the suggestion menu shown when the dialogue
// manager gives up on a turn. Three phases: deterministic keyword scoring,
// an optional model ranking when keywords found little, and a category menu
// always appended so the user can reorient. A consecutive-fallback counter
// in the session record prevents loops: past the limit the engine stops
// suggesting and shows the full category-grouped help instead.
package fallback

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/internal/util"
	"github.com/dvitale/gias/logging"
	"github.com/dvitale/gias/model"
)

// MaxConsecutive is the number of fallback turns tolerated before the engine
// bypasses suggestions and emits the full help.
const MaxConsecutive = 3

// DefaultModelTimeout bounds the phase-2 model call. On expiry phase 2 is
// discarded entirely; the menu falls back to phase 1 + categories.
const DefaultModelTimeout = 3 * time.Second

// Result is one fallback turn's outcome. Options holds everything the user
// may select next turn (intent suggestions first, then category entries).
type Result struct {
	Text    string
	Options []core.Suggestion
	Help    bool
}

// Engine runs the three-phase pipeline. Construct once; safe for concurrent
// use. The phase-1 cache is keyed by normalized utterance and never expires;
// keyword scoring is deterministic so entries stay valid for the process
// lifetime.
type Engine struct {
	model        model.Model
	cache        *gocache.Cache
	logger       *logging.DialogLogger
	modelTimeout time.Duration
}

// Options configures an Engine. A nil Model disables phase 2.
type Options struct {
	Model        model.Model
	Logger       logging.Logger
	ModelTimeout time.Duration
}

// New constructs an Engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{ModelTimeout: DefaultModelTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		model:        opts.Model,
		cache:        gocache.New(gocache.NoExpiration, 0),
		logger:       logging.NewDialogLogger(opts.Logger),
		modelTimeout: opts.ModelTimeout,
	}
}

// Run executes one fallback turn: bumps the consecutive counter, short-
// circuits to the grouped help past the limit, otherwise builds the
// suggestion menu and parks the selectable options on the session record.
func (e *Engine) Run(ctx context.Context, rec *core.SessionRecord, utterance string) Result {
	rec.ConsecutiveFallbacks++
	if rec.ConsecutiveFallbacks > MaxConsecutive {
		rec.ConsecutiveFallbacks = 0
		rec.FallbackOptions = nil
		return Result{Text: HelpText(), Help: true}
	}

	suggestions := e.keywordPhase(utterance)
	if len(suggestions) <= 1 && e.model != nil {
		suggestions = mergeSuggestions(suggestions, e.semanticPhase(ctx, utterance))
	}
	sort.SliceStable(suggestions, func(i, j int) bool { return suggestions[i].Score > suggestions[j].Score })
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	options := append(append([]core.Suggestion(nil), suggestions...), categoryOptions()...)
	rec.FallbackOptions = options
	return Result{Text: renderMenu(suggestions, options[len(suggestions):]), Options: options}
}

// Reset clears the loop-prevention state. Called whenever a turn resolves to
// a confirmed non-fallback intent.
func Reset(rec *core.SessionRecord) {
	if rec == nil {
		return
	}
	rec.ConsecutiveFallbacks = 0
	rec.FallbackOptions = nil
}

// keywordPhase scores the utterance against the keyword table, cached by
// normalized text.
func (e *Engine) keywordPhase(utterance string) []core.Suggestion {
	key := util.Normalize(utterance)
	if cached, ok := e.cache.Get(key); ok {
		return append([]core.Suggestion(nil), cached.([]core.Suggestion)...)
	}
	suggestions := scoreKeywords(util.Tokens(key))
	e.cache.Set(key, append([]core.Suggestion(nil), suggestions...), gocache.NoExpiration)
	return suggestions
}

// semanticPhase asks the model to rank the three closest intents. Any error,
// timeout or unparsable payload discards the phase entirely.
func (e *Engine) semanticPhase(ctx context.Context, utterance string) []core.Suggestion {
	ctx, cancel := context.WithTimeout(ctx, e.modelTimeout)
	defer cancel()

	done := e.logger.StartTimer("fallback_semantic")
	raw, err := e.model.Complete(ctx, model.Request{
		System:     semanticSystemPrompt(),
		User:       fmt.Sprintf("Messaggio: %q", utterance),
		Structured: true,
	})
	done()
	if err != nil {
		e.logger.Debug("fallback semantic phase discarded", "error", err.Error())
		return nil
	}
	return parseRanking(raw)
}

// parseRanking extracts up to three {intent, confidence} pairs and scales
// confidence to the 0-100 keyword scale so the two phases merge comparably.
func parseRanking(raw string) []core.Suggestion {
	if !gjson.Valid(raw) {
		return nil
	}
	var out []core.Suggestion
	gjson.Get(raw, "intents").ForEach(func(_, item gjson.Result) bool {
		name := core.Intent(item.Get("intent").String())
		spec, ok := core.LookupIntent(name)
		if !ok {
			return true
		}
		conf := core.ClampConfidence(item.Get("confidence").Float())
		out = append(out, core.Suggestion{
			Intent:      name,
			Score:       conf * 100,
			Label:       spec.Label,
			Description: spec.Description,
		})
		return len(out) < 3
	})
	return out
}

func mergeSuggestions(a, b []core.Suggestion) []core.Suggestion {
	seen := make(map[core.Intent]struct{}, len(a))
	for _, s := range a {
		seen[s.Intent] = struct{}{}
	}
	out := append([]core.Suggestion(nil), a...)
	for _, s := range b {
		if _, dup := seen[s.Intent]; dup {
			continue
		}
		seen[s.Intent] = struct{}{}
		out = append(out, s)
	}
	return out
}

// categoryOptions returns one selectable entry per menu category.
func categoryOptions() []core.Suggestion {
	cats := core.Categories()
	out := make([]core.Suggestion, 0, len(cats))
	for _, c := range cats {
		out = append(out, core.Suggestion{Category: c, Label: c})
	}
	return out
}

// ParseSelection resolves a reply against the options shown last turn:
// a bare index, "opzione N"/"scelta N"/"numero N", or a case-insensitive
// label substring.
func ParseSelection(utterance string, options []core.Suggestion) (core.Suggestion, bool) {
	norm := util.Normalize(utterance)
	if norm == "" || len(options) == 0 {
		return core.Suggestion{}, false
	}

	idx := 0
	fields := strings.Fields(norm)
	switch {
	case len(fields) == 1:
		idx, _ = strconv.Atoi(fields[0])
	case len(fields) == 2 && (fields[0] == "opzione" || fields[0] == "scelta" || fields[0] == "numero"):
		idx, _ = strconv.Atoi(fields[1])
	}
	if idx >= 1 && idx <= len(options) {
		return options[idx-1], true
	}

	for _, opt := range options {
		if label := util.Normalize(opt.Label); label != "" && strings.Contains(norm, label) {
			return opt, true
		}
	}
	return core.Suggestion{}, false
}

// renderMenu builds the user-facing text: scored suggestions first, then the
// category entries, numbered continuously so ParseSelection indexes line up.
func renderMenu(suggestions, categories []core.Suggestion) string {
	var b strings.Builder
	if len(suggestions) > 0 {
		b.WriteString("Non ho capito bene la richiesta. Forse cercavi una di queste:\n")
	} else {
		b.WriteString("Non ho capito la richiesta. Posso aiutarti con questi argomenti:\n")
	}
	n := 1
	for _, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s — %s\n", n, s.Label, s.Description)
		n++
	}
	if len(suggestions) > 0 {
		b.WriteString("Oppure scegli un argomento:\n")
	}
	for _, c := range categories {
		fmt.Fprintf(&b, "%d. %s\n", n, c.Label)
		n++
	}
	b.WriteString("Rispondi con un numero o riformula la domanda.")
	return b.String()
}

// HelpText is the category-grouped overview, shown after too many
// consecutive fallbacks and for the explicit help intent.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Ecco tutto quello che posso fare:\n")
	for _, cat := range core.Categories() {
		fmt.Fprintf(&b, "\n%s\n", cat)
		for _, spec := range core.IntentsInCategory(cat) {
			fmt.Fprintf(&b, "- %s: %s\n", spec.Label, spec.Description)
			if len(spec.Examples) > 0 {
				fmt.Fprintf(&b, "  Esempio: %q\n", spec.Examples[0])
			}
		}
	}
	return b.String()
}

// semanticSystemPrompt enumerates the vocabulary for the phase-2 ranking.
func semanticSystemPrompt() string {
	var b strings.Builder
	b.WriteString("Sei un classificatore. Scegli i 3 intenti più vicini al messaggio dell'utente.\n")
	b.WriteString("Intenti disponibili:\n")
	for _, spec := range core.DomainIntents() {
		fmt.Fprintf(&b, "- %s: %s (%s)", spec.Name, spec.Label, spec.Description)
		for i, ex := range spec.Examples {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&b, " es. %q", ex)
		}
		b.WriteString("\n")
	}
	b.WriteString("Rispondi solo JSON: {\"intents\":[{\"intent\":\"...\",\"confidence\":0.0}]}")
	return b.String()
}
