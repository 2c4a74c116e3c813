// Package tools binds the statistics engine and chart builders to named,
// schema-described tools and dispatches calls to them.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/framescope/internal/charts"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

// Func runs one tool. Returned errors become "Tool execution failed" results.
type Func func(ctx context.Context, c Call) (domain.ToolResult, error)

// Tool pairs a schema with its implementation.
type Tool struct {
	Schema domain.ToolSchema
	Run    Func
}

// Registry is the immutable set of tools available to capability sets.
type Registry struct {
	tools map[string]Tool
	order []string
	store ports.CaptureStore
}

// NewRegistry builds the registry with every built-in tool reading from store.
func NewRegistry(store ports.CaptureStore) *Registry {
	r := &Registry{tools: make(map[string]Tool), store: store}
	for _, t := range r.builtins() {
		r.tools[t.Schema.Name] = t
		r.order = append(r.order, t.Schema.Name)
	}
	return r
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Schema returns the schema of a registered tool.
func (r *Registry) Schema(name string) (domain.ToolSchema, bool) {
	t, ok := r.tools[name]
	return t.Schema, ok
}

// Schemas returns the schemas of the named tools in the given order.
// It panics on an unknown name: callers pass compile-time constants.
func (r *Registry) Schemas(names ...string) []domain.ToolSchema {
	out := make([]domain.ToolSchema, 0, len(names))
	for _, n := range names {
		t, ok := r.tools[n]
		if !ok {
			panic(fmt.Sprintf("tools: unknown tool %q", n))
		}
		out = append(out, t.Schema)
	}
	return out
}

// Dispatch executes a tool. The file_id key is removed from a copy of input
// and passed as Call.FileID. It never returns a Go error: unknown tools,
// failures and panics all come back as error results.
func (r *Registry) Dispatch(ctx context.Context, name string, input map[string]any, sessionID string) domain.ToolResult {
	tool, ok := r.tools[name]
	if !ok {
		return domain.Failure("Unknown tool: %s", name)
	}
	return Run(ctx, tool.Run, NewCall(input, sessionID))
}

// NewCall copies input into a Call, moving file_id out of the arguments.
func NewCall(input map[string]any, sessionID string) Call {
	call := Call{SessionID: sessionID, Args: make(map[string]any, len(input))}
	for k, v := range input {
		if k == "file_id" {
			if s, ok := v.(string); ok {
				call.FileID = s
			} else if v != nil {
				call.FileID = fmt.Sprint(v)
			}
			continue
		}
		call.Args[k] = v
	}
	return call
}

// Run executes fn, converting errors and panics into error results.
func Run(ctx context.Context, fn Func, c Call) (res domain.ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			res = domain.Failure("Tool execution failed: %v", p)
		}
	}()

	out, err := fn(ctx, c)
	if err != nil {
		return domain.Failure("Tool execution failed: %v", err)
	}
	return out
}

func (r *Registry) table(ctx context.Context, c Call) (*domain.Table, error) {
	if c.FileID == "" {
		return nil, errors.New("file_id is required")
	}
	t, err := r.store.Table(ctx, c.SessionID, c.FileID)
	if errors.Is(err, ports.ErrFileNotFound) || errors.Is(err, ports.ErrSessionNotFound) {
		return nil, fmt.Errorf("File '%s' not found in session '%s'", c.FileID, c.SessionID)
	}
	return t, err
}

// result converts an engine return into a tool result. Expected data
// problems become {"error": ...}; anything else is a tool failure.
func result[T any](v T, err error) (domain.ToolResult, error) {
	if err != nil {
		var de *stats.DataError
		if errors.As(err, &de) {
			return domain.Failure("%s", de.Message), nil
		}
		return domain.ToolResult{}, err
	}
	return domain.Plain(v), nil
}

func chartResult(fig *charts.Figure, err error) (domain.ToolResult, error) {
	if err != nil {
		var ce *charts.Error
		if errors.As(err, &ce) {
			return domain.ChartFailure(ce.Message), nil
		}
		return domain.ToolResult{}, err
	}
	return domain.ChartPayload(fig), nil
}

// CompareFiles is the compare_files tool: FPS statistics for two or more
// captures of the session plus the delta between the first two.
func (r *Registry) CompareFiles(ctx context.Context, c Call) (domain.ToolResult, error) {
	ids, err := c.Strings("file_ids")
	if err != nil {
		return domain.ToolResult{}, err
	}
	labels, err := c.Strings("labels")
	if err != nil {
		return domain.ToolResult{}, err
	}
	if len(ids) < 2 {
		return domain.Failure("Need at least 2 files to compare"), nil
	}

	inputs := make([]stats.CompareInput, len(ids))
	for i, id := range ids {
		t, err := r.table(ctx, Call{SessionID: c.SessionID, FileID: id})
		if err != nil {
			return domain.Failure("Failed to analyze file %s: %v", id, err), nil
		}
		inputs[i] = stats.CompareInput{FileID: id, Table: t}
		if i < len(labels) {
			inputs[i].Label = labels[i]
		}
	}
	return result(stats.Compare(ctx, inputs))
}
