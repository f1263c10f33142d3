// Package gias provides a high-level façade over the conversational
// orchestration core: hybrid intent classification, dialogue-state tracking,
// the rule-based decision engine, workflow-continuation validation, the
// two-phase response controller and the fallback engine. Most applications
// interact with this package by:
//  1. Registering a tool for every domain intent in a tool.Registry
//  2. Creating an Assistant via New() (optionally overriding the model,
//     session store, cache, thresholds and logger)
//  3. Calling Turn() once per user message, echoing back the returned
//     dialogue state and workflow context on the next call
//
// All defaults are safe for local development and testing; production
// deployments typically supply a real model client, a Redis-backed session
// store and a structured logger.
package gias

import (
	"context"

	"github.com/dvitale/gias/core"
	"github.com/dvitale/gias/orchestrator"
	"github.com/dvitale/gias/tool"
)

// Version is the library version.
const Version = "0.1.0"

// Options re-exports the orchestrator configuration for façade users.
type Options = orchestrator.Options

// Assistant is the high-level entry point aggregating the whole pipeline.
type Assistant struct {
	orch *orchestrator.Orchestrator
}

// New creates an Assistant around a tool registry with optional overrides.
// It fails when the registry leaves any domain intent without a handler.
func New(registry *tool.Registry, optFns ...func(o *Options)) (*Assistant, error) {
	orch, err := orchestrator.New(registry, optFns...)
	if err != nil {
		return nil, err
	}
	return &Assistant{orch: orch}, nil
}

// Turn processes one conversational turn. The returned state and workflow
// must be echoed back verbatim on the next turn of the same session.
func (a *Assistant) Turn(ctx context.Context, in core.TurnInput) core.TurnOutput {
	return a.orch.Turn(ctx, in)
}
