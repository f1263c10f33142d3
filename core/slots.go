package core

import "sort"

// Slots is a normalized string parameter map extracted from an utterance or
// remembered across turns. Values are trimmed; identifier-like values (plan
// codes, org units) are uppercased by the extractor before they get here.
type Slots map[string]string

// NewSlots returns an empty, non-nil slot map.
func NewSlots() Slots { return Slots{} }

// Get returns the value for key or "" when absent. Safe on a nil map.
func (s Slots) Get(key string) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// Set stores a non-empty value. Empty values are ignored so callers can pipe
// possibly-absent extractions through without guarding every assignment.
func (s Slots) Set(key, value string) {
	if value == "" {
		return
	}
	s[key] = value
}

// Merge applies the additive memory rule: every non-empty value in other
// overwrites, an empty or absent one never erases a remembered value. The
// receiver is returned for chaining; a nil receiver with a non-empty other
// yields a fresh map.
func (s Slots) Merge(other Slots) Slots {
	if len(other) == 0 {
		return s
	}
	if s == nil {
		s = NewSlots()
	}
	for k, v := range other {
		if v != "" {
			s[k] = v
		}
	}
	return s
}

// Clone returns an independent copy. A nil receiver clones to nil.
func (s Slots) Clone() Slots {
	if s == nil {
		return nil
	}
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the slot names in sorted order, for deterministic prompts and
// log lines.
func (s Slots) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both maps hold the same entries. Nil and empty
// compare equal.
func (s Slots) Equal(other Slots) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}
