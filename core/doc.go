// Package core defines the shared domain contracts of the GiAs dialogue
// orchestration layer: the closed intent vocabulary, slot maps, the
// TTL-bounded DialogueState carried across turns, freshness tokens, workflow
// continuation structures and the turn input/output envelopes. Concrete
// services (classification cache, session stores, retrieval indexes, model
// providers) live in sibling packages and depend on the interfaces declared
// here; keeping the contracts centralized prevents dependency cycles between
// the classifier, the dialogue manager and the storage backends.
package core
