// Package session houses concrete implementations of core.SessionStore, the
// server-side per-session state that is never echoed through the caller
// (pending two-phase detail, consecutive-fallback counter, in-flight fallback
// options). The interface itself lives in the core package to keep domain
// contracts centralized.
//
// Two backends are provided: an in-memory store built on patrickmn/go-cache
// (TTL expiry with background purge, suited to a single process) and a Redis
// store under session/redis for deployments where turns of one session may
// land on different processes. Only the wiring layer decides which one to
// instantiate.
package session
