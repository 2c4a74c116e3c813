package domain

import (
	"math"
	"time"
)

// ColumnKind is the homogeneous value type of a capture column.
type ColumnKind int

const (
	KindNumeric ColumnKind = iota
	KindText
)

// Presence describes whether a column can feed a statistic.
type Presence int

const (
	// Undeclared means the header never named the column.
	Undeclared Presence = iota
	// DeclaredEmpty means the header named the column but every value is missing.
	DeclaredEmpty
	// Present means the column has at least one non-missing value.
	Present
)

// Column holds one capture column. Numeric columns store missing values as NaN,
// text columns store them as "".
type Column struct {
	Name string
	Kind ColumnKind
	Num  []float64
	Text []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == KindText {
		return len(c.Text)
	}
	return len(c.Num)
}

// Missing reports whether row i has no value.
func (c *Column) Missing(i int) bool {
	if c.Kind == KindText {
		return c.Text[i] == ""
	}
	return math.IsNaN(c.Num[i])
}

// Empty reports whether every value is missing.
func (c *Column) Empty() bool {
	for i := 0; i < c.Len(); i++ {
		if !c.Missing(i) {
			return false
		}
	}
	return true
}

// Table is an immutable, columnar, ordered per-frame data set.
// Nothing outside NewTable writes to its columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns of equal length. The column order is kept.
func NewTable(columns []*Column) *Table {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c.Name] = i
		if c.Len() > t.rows {
			t.rows = c.Len()
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// ColumnNames returns column names in header order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column and whether it was declared.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the column was declared, regardless of content.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Presence classifies a column as undeclared, declared-but-empty or present.
func (t *Table) Presence(name string) Presence {
	c, ok := t.Column(name)
	if !ok {
		return Undeclared
	}
	if c.Empty() {
		return DeclaredEmpty
	}
	return Present
}

// Floats returns the raw numeric series for a column, NaN for missing values.
// Text columns and undeclared columns return nil.
func (t *Table) Floats(name string) []float64 {
	c, ok := t.Column(name)
	if !ok || c.Kind != KindNumeric {
		return nil
	}
	return c.Num
}

// Strings returns the raw text series for a column.
func (t *Table) Strings(name string) []string {
	c, ok := t.Column(name)
	if !ok || c.Kind != KindText {
		return nil
	}
	return c.Text
}

// Filter returns a new table holding the rows where keep is true.
func (t *Table) Filter(keep []bool) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindText {
			nc.Text = make([]string, 0, len(c.Text))
			for r, v := range c.Text {
				if r < len(keep) && keep[r] {
					nc.Text = append(nc.Text, v)
				}
			}
		} else {
			nc.Num = make([]float64, 0, len(c.Num))
			for r, v := range c.Num {
				if r < len(keep) && keep[r] {
					nc.Num = append(nc.Num, v)
				}
			}
		}
		cols[i] = nc
	}
	return NewTable(cols)
}

// TimeWindow bounds a capture by CPUStartTime seconds. A nil bound is unbounded.
type TimeWindow struct {
	Start *float64 `json:"start_sec,omitempty"`
	End   *float64 `json:"end_sec,omitempty"`
}

// IsZero reports whether neither bound is set.
func (w TimeWindow) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// Contains reports whether ts falls inside the inclusive bounds.
// NaN never matches a set bound.
func (w TimeWindow) Contains(ts float64) bool {
	if w.Start != nil && !(ts >= *w.Start) {
		return false
	}
	if w.End != nil && !(ts <= *w.End) {
		return false
	}
	return true
}

// FileInfo describes an ingested capture.
type FileInfo struct {
	FileID           string         `json:"file_id"`
	OriginalName     string         `json:"name"`
	SourceTool       string         `json:"source_tool"`
	Application      string         `json:"application"`
	GameName         string         `json:"game_name"`
	RowCount         int            `json:"rows"`
	DurationSeconds  float64        `json:"duration_seconds"`
	AvailableColumns []string       `json:"available_columns"`
	NAColumns        []string       `json:"na_columns"`
	UploadedAt       time.Time      `json:"uploaded_at"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
