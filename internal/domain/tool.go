package domain

import (
	"encoding/json"
	"fmt"
)

// ToolSchema declares a callable tool. The session id is never a property:
// it is injected at the dispatch boundary.
type ToolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is the JSON-schema object describing a tool's input.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property is one typed input property.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// ObjectSchema builds an object schema. Required is never nil so it always
// encodes as a list.
func ObjectSchema(props map[string]Property, required ...string) InputSchema {
	if required == nil {
		required = []string{}
	}
	return InputSchema{Type: "object", Properties: props, Required: required}
}

type ResultKind string

const (
	ResultPlain ResultKind = "result"
	ResultChart ResultKind = "chart"
	ResultError ResultKind = "error"
)

// ToolResult is the success/error variant returned by every tool.
type ToolResult struct {
	Kind    ResultKind
	Value   any
	Chart   any
	Message string

	chartFailure bool
}

// Plain wraps a successful result.
func Plain(v any) ToolResult {
	return ToolResult{Kind: ResultPlain, Value: v}
}

// ChartPayload wraps a rendered chart description.
func ChartPayload(payload any) ToolResult {
	return ToolResult{Kind: ResultChart, Chart: payload}
}

// Failure is an error-shaped result, encoded as {"error": msg}.
func Failure(format string, args ...any) ToolResult {
	return ToolResult{Kind: ResultError, Message: fmt.Sprintf(format, args...)}
}

// ChartFailure is a chart renderer error, encoded as {"type":"error","message":msg}.
func ChartFailure(msg string) ToolResult {
	return ToolResult{Kind: ResultError, Message: msg, chartFailure: true}
}

func (r ToolResult) IsError() bool { return r.Kind == ResultError }
func (r ToolResult) IsChart() bool { return r.Kind == ResultChart }

func (r ToolResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultChart:
		return json.Marshal(map[string]any{"type": "chart", "payload": r.Chart})
	case ResultError:
		if r.chartFailure {
			return json.Marshal(map[string]string{"type": "error", "message": r.Message})
		}
		return json.Marshal(map[string]string{"error": r.Message})
	default:
		return json.Marshal(r.Value)
	}
}
