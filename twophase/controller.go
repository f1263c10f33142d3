// Package twophase implements the summarize-then-detail response controller.
// When a tool returns more items than the intent's threshold, the full
// rendering is parked in the session record and the user gets a summary plus
// a fixed prompt suffix; a later confirmation releases the stored rendering
// verbatim, a decline clears it with a short acknowledgement. The stored
// detail is overwritten by the next detail-producing call, never stacked.
package twophase

import (
	"time"

	"github.com/dvitale/gias/core"
)

// DefaultThreshold is the item count above which a result is summarized.
const DefaultThreshold = 5

// promptSuffix is appended to every summarized rendering.
const promptSuffix = "\n\nVuoi vedere l'elenco completo? (sì/no)"

// declineAck is returned when the user declines the stored detail.
const declineAck = "Va bene, dimmi pure se posso aiutarti con altro."

// Controller applies the two-phase policy. Construct once; safe for
// concurrent use (all mutable state lives in the SessionRecord the caller
// holds under its store's lock).
type Controller struct {
	defaultThreshold int
	perIntent        map[core.Intent]int
	now              func() time.Time
}

// Options configures a Controller. PerIntent overrides the threshold for
// individual intents; zero or negative overrides are ignored.
type Options struct {
	DefaultThreshold int
	PerIntent        map[core.Intent]int
}

// New constructs a Controller.
func New(optFns ...func(o *Options)) *Controller {
	opts := Options{DefaultThreshold: DefaultThreshold}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = DefaultThreshold
	}
	c := &Controller{
		defaultThreshold: opts.DefaultThreshold,
		perIntent:        make(map[core.Intent]int, len(opts.PerIntent)),
		now:              time.Now,
	}
	for intent, t := range opts.PerIntent {
		if t > 0 {
			c.perIntent[intent] = t
		}
	}
	return c
}

// Threshold returns the effective item threshold for an intent: an explicit
// override first, then the intent's registry DetailLimit, then the default.
func (c *Controller) Threshold(intent core.Intent) int {
	if t, ok := c.perIntent[intent]; ok {
		return t
	}
	if spec, ok := core.LookupIntent(intent); ok && spec.DetailLimit > 0 {
		return spec.DetailLimit
	}
	return c.defaultThreshold
}

// Wrap applies the policy to one tool result. Exactly threshold items pass
// through untouched; one more switches to the summary and parks the full
// rendering on the record, replacing any previous pending detail. Returns the
// text to show and whether a detail is now pending.
func (c *Controller) Wrap(rec *core.SessionRecord, intent core.Intent, full, summary string, itemCount int) (string, bool) {
	if itemCount <= c.Threshold(intent) {
		rec.PendingDetail = nil
		return full, false
	}
	rec.PendingDetail = &core.DetailEnvelope{
		FullRendering: full,
		Intent:        intent,
		ItemCount:     itemCount,
		Created:       c.now().UTC(),
	}
	return summary + promptSuffix, true
}

// ConfirmDetails releases the stored rendering verbatim and clears it.
// Returns false when nothing is pending.
func (c *Controller) ConfirmDetails(rec *core.SessionRecord) (string, bool) {
	if rec == nil || rec.PendingDetail == nil {
		return "", false
	}
	full := rec.PendingDetail.FullRendering
	rec.PendingDetail = nil
	return full, true
}

// DeclineDetails clears the stored rendering and returns the acknowledgement.
// Returns false when nothing is pending.
func (c *Controller) DeclineDetails(rec *core.SessionRecord) (string, bool) {
	if rec == nil || rec.PendingDetail == nil {
		return "", false
	}
	rec.PendingDetail = nil
	return declineAck, true
}

// Pending reports whether the record carries a stored detail.
func (c *Controller) Pending(rec *core.SessionRecord) bool {
	return rec != nil && rec.PendingDetail != nil
}
