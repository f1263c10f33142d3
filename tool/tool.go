// Package tool defines the collaborator contract for the domain handlers
// that actually answer a request, plus the registry that maps every intent
// to exactly one handler. The orchestration core is agnostic to how a result
// is computed; it only dispatches after the decision engine says EXECUTE and
// passes the rendering through the two-phase controller.
package tool

import (
	"context"
	"fmt"

	"github.com/dvitale/gias/core"
)

// Tool answers one or more intents.
//
// Tool implementations should:
//   - Be pure with respect to the conversation: all inputs arrive in the call
//   - Return a Summary when a large ItemCount makes one meaningful
//   - Be safe for concurrent use across overlapping sessions
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Call executes the tool for one classified turn. Slots are already
	// merged and sanitized; metadata is the caller's per-turn map.
	Call(ctx context.Context, intent core.Intent, slots core.Slots, metadata map[string]string) (*Result, error)
}

// Result is one tool answer. Rendering is the full user-facing text;
// Summary is the short form shown when ItemCount trips the two-phase
// threshold (empty means Rendering doubles as its own summary).
type Result struct {
	Rendering string `json:"rendering"`
	Summary   string `json:"summary,omitempty"`
	ItemCount int    `json:"item_count,omitempty"`
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
