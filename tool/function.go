package tool

import (
	"context"

	"github.com/dvitale/gias/core"
)

// FuncTool adapts a plain Go function to the Tool interface.
//
// Errors returned by the wrapped function are normalized so callers always
// receive *ToolError: a *ToolError passes through with its code preserved,
// anything else is wrapped under EXECUTION_ERROR.
//
// A FuncTool has no internal mutable state after construction and is safe
// for concurrent use.
type FuncTool struct {
	name string
	fn   func(ctx context.Context, intent core.Intent, slots core.Slots, metadata map[string]string) (*Result, error)
}

// NewFuncTool constructs a FuncTool.
func NewFuncTool(name string, fn func(ctx context.Context, intent core.Intent, slots core.Slots, metadata map[string]string) (*Result, error)) *FuncTool {
	return &FuncTool{name: name, fn: fn}
}

// Name implements Tool.
func (t *FuncTool) Name() string { return t.name }

// Call implements Tool.
func (t *FuncTool) Call(ctx context.Context, intent core.Intent, slots core.Slots, metadata map[string]string) (*Result, error) {
	res, err := t.fn(ctx, intent, slots, metadata)
	if err != nil {
		if te, ok := err.(*ToolError); ok {
			return nil, te
		}
		return nil, NewToolError(t.name, err.Error(), "EXECUTION_ERROR")
	}
	if res == nil {
		return nil, NewToolError(t.name, "nil result", "EXECUTION_ERROR")
	}
	return res, nil
}

var _ Tool = (*FuncTool)(nil)
