// Package charts builds Plotly-compatible figures from capture tables and
// renders them to PNG.
package charts

import (
	"bytes"
	"math"
	"strconv"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

const (
	DefaultDownsample = 2000
	DefaultBins       = 50
	rollingWindow     = 30
)

// Dark theme.
const (
	darkBG    = "#09090b"
	darkPaper = "#09090b"
	darkGrid  = "#27272a"
	darkText  = "#e4e4e7"
)

var accent = []string{"#3b82f6", "#ef4444", "#22c55e", "#f97316", "#8b5cf6", "#ec4899"}

// Error is a chart that could not be built from the data. It is reported to
// the model as {"type":"error","message":...}.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func chartError(msg string) error { return &Error{Message: msg} }

// Series is a numeric series whose missing values encode as JSON null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteString("null")
			continue
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

type Marker struct {
	Color  string `json:"color,omitempty"`
	Size   int    `json:"size,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Trace is one Plotly trace. X holds a Series for numeric axes and a
// []string for categorical ones.
type Trace struct {
	Type          string   `json:"type"`
	Name          string   `json:"name,omitempty"`
	X             any      `json:"x,omitempty"`
	Y             Series   `json:"y,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	Line          *Line    `json:"line,omitempty"`
	Marker        *Marker  `json:"marker,omitempty"`
	Fill          string   `json:"fill,omitempty"`
	FillColor     string   `json:"fillcolor,omitempty"`
	Opacity       *float64 `json:"opacity,omitempty"`
	HoverTemplate string   `json:"hovertemplate,omitempty"`
	YAxis         string   `json:"yaxis,omitempty"`
	NBinsX        int      `json:"nbinsx,omitempty"`
}

func (t Trace) xValues() Series {
	s, _ := t.X.(Series)
	return s
}

func (t Trace) xLabels() []string {
	s, _ := t.X.([]string)
	return s
}

type Title struct {
	Text string `json:"text"`
}

type Font struct {
	Color  string `json:"color,omitempty"`
	Family string `json:"family,omitempty"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type Axis struct {
	Title      *Title    `json:"title,omitempty"`
	GridColor  string    `json:"gridcolor,omitempty"`
	ZeroLine   bool      `json:"zeroline"`
	Range      []float64 `json:"range,omitempty"`
	Overlaying string    `json:"overlaying,omitempty"`
	Side       string    `json:"side,omitempty"`
}

type Legend struct {
	BGColor string `json:"bgcolor"`
}

// Shape is a layout shape; only vertical reference lines are produced.
type Shape struct {
	Type string  `json:"type"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	Line Line    `json:"line"`
}

type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	ShowArrow bool    `json:"showarrow"`
	YAnchor   string  `json:"yanchor,omitempty"`
	Font      Font    `json:"font"`
}

type Layout struct {
	Title        Title        `json:"title"`
	Template     string       `json:"template"`
	PaperBGColor string       `json:"paper_bgcolor"`
	PlotBGColor  string       `json:"plot_bgcolor"`
	Font         Font         `json:"font"`
	Margin       Margin       `json:"margin"`
	Height       int          `json:"height"`
	XAxis        Axis         `json:"xaxis"`
	YAxis        Axis         `json:"yaxis"`
	YAxis2       *Axis        `json:"yaxis2,omitempty"`
	Legend       Legend       `json:"legend"`
	BarMode      string       `json:"barmode,omitempty"`
	Shapes       []Shape      `json:"shapes,omitempty"`
	Annotations  []Annotation `json:"annotations,omitempty"`
}

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

func baseLayout(title, xTitle, yTitle string) Layout {
	l := Layout{
		Title:        Title{Text: title},
		Template:     "plotly_dark",
		PaperBGColor: darkPaper,
		PlotBGColor:  darkBG,
		Font:         Font{Color: darkText, Family: "Inter, system-ui, sans-serif"},
		Margin:       Margin{L: 60, R: 20, T: 50, B: 50},
		Height:       400,
		XAxis:        Axis{GridColor: darkGrid},
		YAxis:        Axis{GridColor: darkGrid},
		Legend:       Legend{BGColor: "rgba(0,0,0,0)"},
	}
	if xTitle != "" {
		l.XAxis.Title = &Title{Text: xTitle}
	}
	if yTitle != "" {
		l.YAxis.Title = &Title{Text: yTitle}
	}
	return l
}

// addVLine draws a dashed vertical marker with a label at the top of the plot.
func (f *Figure) addVLine(x float64, color, label string) {
	f.Layout.Shapes = append(f.Layout.Shapes, Shape{
		Type: "line", X0: x, X1: x, Y0: 0, Y1: 1,
		XRef: "x", YRef: "paper",
		Line: Line{Color: color, Dash: "dash"},
	})
	f.Layout.Annotations = append(f.Layout.Annotations, Annotation{
		Text: label, X: x, Y: 1, XRef: "x", YRef: "paper",
		YAnchor: "bottom", Font: Font{Color: color},
	})
}

func opacity(v float64) *float64 { return &v }

// downsample keeps every Nth row so at most about max rows remain.
// A non-positive max uses DefaultDownsample.
func downsample(n, max int) []int {
	if max <= 0 {
		max = DefaultDownsample
	}
	step := 1
	if n > max {
		step = n / max
	}
	idx := make([]int, 0, n/step+1)
	for i := 0; i < n; i += step {
		idx = append(idx, i)
	}
	return idx
}

func pick(vals []float64, idx []int) Series {
	out := make(Series, len(idx))
	for i, j := range idx {
		if j < len(vals) {
			out[i] = vals[j]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// hasData reports whether a numeric column exists and holds at least one value.
func hasData(t *domain.Table, col string) bool {
	return t.Presence(col) == domain.Present && t.Floats(col) != nil
}
