package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

var signatureColumns = []string{"Application", "ProcessID", "SwapChainAddress", "PresentRuntime", "FrameTime"}

// naValues are the cell values read as missing.
var naValues = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
}

// PresentMon parses PresentMon CSV captures.
type PresentMon struct{}

func (PresentMon) Name() string { return "PresentMon" }

// CanParse reports whether the header carries every PresentMon signature column.
func (PresentMon) CanParse(header []string) bool {
	set := make(map[string]bool, len(header))
	for _, h := range header {
		set[h] = true
	}
	for _, c := range signatureColumns {
		if !set[c] {
			return false
		}
	}
	return true
}

func (PresentMon) ColumnMapping() map[string]string {
	m := make(map[string]string, len(StandardColumns))
	for k, v := range StandardColumns {
		m[k] = v
	}
	return m
}

// Parse reads a capture into a columnar table. Known numeric columns are
// coerced (unparseable cells become missing); unknown columns are numeric only
// when every non-missing value parses as a number.
func (PresentMon) Parse(r io.Reader) (*domain.Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = cleanHeader(header)

	raw := make([][]string, len(header))
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		for i := range header {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			raw[i] = append(raw[i], v)
		}
	}

	cols := make([]*domain.Column, len(header))
	for i, name := range header {
		cols[i] = buildColumn(name, raw[i])
	}
	return domain.NewTable(cols), nil
}

func buildColumn(name string, values []string) *domain.Column {
	def, known := Lookup(name)
	if known && !def.Numeric() {
		return textColumn(name, values)
	}

	nums := make([]float64, len(values))
	for i, v := range values {
		if naValues[v] {
			nums[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			if !known {
				return textColumn(name, values)
			}
			f = math.NaN()
		}
		nums[i] = f
	}
	return &domain.Column{Name: name, Kind: domain.KindNumeric, Num: nums}
}

func textColumn(name string, values []string) *domain.Column {
	text := make([]string, len(values))
	for i, v := range values {
		if !naValues[v] {
			text[i] = v
		}
	}
	return &domain.Column{Name: name, Kind: domain.KindText, Text: text}
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
