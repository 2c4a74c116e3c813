package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// ErrUnrecognizedFormat is returned when no registered parser accepts a header.
var ErrUnrecognizedFormat = errors.New("unrecognized file format")

// LogParser turns one profiling tool's log format into a capture table.
type LogParser interface {
	Name() string
	CanParse(header []string) bool
	Parse(r io.Reader) (*domain.Table, error)
	// ColumnMapping maps standard column names to source-specific names.
	ColumnMapping() map[string]string
}

// Registry holds parsers in registration order; the first match wins.
type Registry struct {
	mu      sync.RWMutex
	parsers []LogParser
}

// NewRegistry creates a registry seeded with the given parsers.
func NewRegistry(parsers ...LogParser) *Registry {
	return &Registry{parsers: parsers}
}

// Default is the process-wide registry holding the PresentMon parser.
var Default = NewRegistry(PresentMon{})

// Register appends a parser; it is tried after existing ones.
func (r *Registry) Register(p LogParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
}

// Names returns the source names of the registered parsers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}

// Detect picks a parser by inspecting the first line of content.
func (r *Registry) Detect(content []byte) (LogParser, error) {
	first, _, _ := bytes.Cut(content, []byte("\n"))
	line := strings.TrimSpace(strings.TrimPrefix(string(first), "\ufeff"))
	if line == "" {
		return nil, ErrUnrecognizedFormat
	}

	fields := strings.Split(line, ",")
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = strings.Trim(strings.TrimSpace(f), `"`)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.parsers {
		if p.CanParse(header) {
			return p, nil
		}
	}
	return nil, ErrUnrecognizedFormat
}

// AvailableStandardColumns lists the standard names whose source column has data.
func AvailableStandardColumns(p LogParser, t *domain.Table) []string {
	var out []string
	for std, src := range p.ColumnMapping() {
		if t.Presence(src) == domain.Present {
			out = append(out, std)
		}
	}
	return out
}
