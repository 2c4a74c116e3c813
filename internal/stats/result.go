package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

type DataErrorKind int

const (
	// Unavailable means a required column is missing or empty.
	Unavailable DataErrorKind = iota
	// Insufficient means there are too few samples for the statistic.
	Insufficient
	// InvalidInput means a parameter is out of range.
	InvalidInput
)

// DataError is an expected analysis failure. Tool bindings render it as
// {"error": "..."} so the reasoner can read and explain it.
type DataError struct {
	Kind    DataErrorKind
	Message string
}

func (e *DataError) Error() string { return e.Message }

func unavailable(format string, args ...any) error {
	return &DataError{Kind: Unavailable, Message: fmt.Sprintf(format, args...)}
}

func insufficient(format string, args ...any) error {
	return &DataError{Kind: Insufficient, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &DataError{Kind: InvalidInput, Message: fmt.Sprintf(format, args...)}
}

func missingColumns(t *domain.Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return unavailable("Missing columns: %s", strings.Join(missing, ", "))
}

// Sentinel marks a metric whose column cannot feed a statistic.
type Sentinel string

const (
	// AllNA: the column is declared but every value is missing.
	AllNA Sentinel = "all_na"
	// NotAvailable: the column is not declared.
	NotAvailable Sentinel = "not_available"
)

// Metric is either a numeric summary or a sentinel.
type Metric[T any] struct {
	Value    *T
	Sentinel Sentinel
}

func available[T any](v T) Metric[T] { return Metric[T]{Value: &v} }

func sentinel[T any](s Sentinel) Metric[T] { return Metric[T]{Sentinel: s} }

// Available reports whether the metric carries a value.
func (m Metric[T]) Available() bool { return m.Value != nil }

func (m Metric[T]) MarshalJSON() ([]byte, error) {
	if m.Value == nil {
		s := m.Sentinel
		if s == "" {
			s = NotAvailable
		}
		return json.Marshal(string(s))
	}
	return json.Marshal(m.Value)
}

// columnValues returns the non-missing values of a column, or the sentinel
// explaining why there are none.
func columnValues(t *domain.Table, col string) ([]float64, Sentinel) {
	if !t.Has(col) {
		return nil, NotAvailable
	}
	vals := dropNA(t.Floats(col))
	if len(vals) == 0 {
		return nil, AllNA
	}
	return vals, ""
}
