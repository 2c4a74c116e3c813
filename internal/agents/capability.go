// Package agents defines the specialist capability sets a conversation turn
// can run with, and routes user messages to one of them.
package agents

import (
	"context"
	"maps"
	"sync"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

// CapabilitySet is a role prompt plus the tools the reasoner may call under it.
type CapabilitySet interface {
	Name() string
	Description() string
	SystemPrompt() string
	Tools() []domain.ToolSchema
	Execute(ctx context.Context, name string, input map[string]any, sessionID string) domain.ToolResult
}

// Set is a CapabilitySet backed by the tool registry. Tools listed in direct
// run through their own function instead of the registry.
type Set struct {
	name        string
	description string
	prompt      string
	schemas     []domain.ToolSchema
	registry    *tools.Registry
	direct      map[string]tools.Func
}

func (s *Set) Name() string               { return s.name }
func (s *Set) Description() string        { return s.description }
func (s *Set) SystemPrompt() string       { return s.prompt }
func (s *Set) Tools() []domain.ToolSchema { return append([]domain.ToolSchema(nil), s.schemas...) }

func (s *Set) Execute(ctx context.Context, name string, input map[string]any, sessionID string) domain.ToolResult {
	if fn, ok := s.direct[name]; ok {
		return tools.Run(ctx, fn, tools.NewCall(input, sessionID))
	}
	return s.registry.Dispatch(ctx, name, input, sessionID)
}

// WithTool returns a copy of the set that also offers schema, run by fn.
func (s *Set) WithTool(schema domain.ToolSchema, fn tools.Func) *Set {
	out := *s
	out.schemas = append(s.Tools(), schema)
	out.direct = make(map[string]tools.Func, len(s.direct)+1)
	maps.Copy(out.direct, s.direct)
	out.direct[schema.Name] = fn
	return &out
}

// Info is the public description of a capability set.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog holds capability sets by name, listed in registration order.
type Catalog struct {
	mu    sync.RWMutex
	sets  map[string]CapabilitySet
	order []string
}

// NewCatalog returns a catalog with the performance, visualization and
// comparison sets.
func NewCatalog(reg *tools.Registry) *Catalog {
	c := &Catalog{sets: make(map[string]CapabilitySet)}
	c.Register(Performance(reg))
	c.Register(Visualization(reg))
	c.Register(Comparison(reg))
	return c
}

// Register adds a set, replacing any set with the same name.
func (c *Catalog) Register(set CapabilitySet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sets[set.Name()]; !ok {
		c.order = append(c.order, set.Name())
	}
	c.sets[set.Name()] = set
}

func (c *Catalog) Get(name string) (CapabilitySet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sets[name]
	return s, ok
}

func (c *Catalog) List() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		s := c.sets[name]
		out = append(out, Info{Name: s.Name(), Description: s.Description()})
	}
	return out
}
