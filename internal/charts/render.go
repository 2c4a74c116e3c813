package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 500
)

var errNothingToRender = errors.New("figure has no plottable data")

func color(hex string) drawing.Color {
	if !strings.HasPrefix(hex, "#") {
		return drawing.ColorTransparent
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func dashArray(dash string) []float64 {
	switch dash {
	case "dot":
		return []float64{2, 3}
	case "dash":
		return []float64{6, 4}
	default:
		return nil
	}
}

func darkStyle() chart.Style {
	return chart.Style{FontColor: color(darkText), StrokeColor: color(darkGrid)}
}

// RenderPNG draws a figure as a PNG image. Scatter traces become line or
// point series, histograms are binned into filled step series and bar traces
// become a bar chart.
func RenderPNG(fig *Figure, w io.Writer, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	for _, tr := range fig.Data {
		if tr.Type == "bar" {
			return renderBars(fig, w, width, height)
		}
	}

	ch := chart.Chart{
		Title:      fig.Layout.Title.Text,
		TitleStyle: chart.Style{FontColor: color(darkText)},
		Width:      width,
		Height:     height,
		Background: chart.Style{FillColor: color(darkPaper), Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Canvas:     chart.Style{FillColor: color(darkBG)},
		XAxis:      chart.XAxis{Name: axisTitle(fig.Layout.XAxis), NameStyle: darkStyle(), Style: darkStyle()},
		YAxis:      chart.YAxis{Name: axisTitle(fig.Layout.YAxis), NameStyle: darkStyle(), Style: darkStyle()},
	}
	if fig.Layout.YAxis2 != nil {
		ch.YAxisSecondary = chart.YAxis{Name: axisTitle(*fig.Layout.YAxis2), NameStyle: darkStyle(), Style: darkStyle()}
	}

	var xr, yr, y2r bounds
	for _, tr := range fig.Data {
		var xs, ys []float64
		switch tr.Type {
		case "histogram":
			xs, ys = histogramSteps(tr.xValues(), tr.NBinsX)
		default:
			xs, ys = finitePairs(tr.xValues(), tr.Y)
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}

		s := chart.ContinuousSeries{Name: tr.Name, XValues: xs, YValues: ys, Style: traceStyle(tr)}
		xr.add(xs...)
		if tr.YAxis == "y2" {
			s.YAxis = chart.YAxisSecondary
			y2r.add(ys...)
		} else {
			yr.add(ys...)
		}
		ch.Series = append(ch.Series, s)
	}
	if len(ch.Series) == 0 {
		return errNothingToRender
	}

	for _, sh := range fig.Layout.Shapes {
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			XValues: []float64{sh.X0, sh.X1},
			YValues: []float64{yr.lo, yr.hi},
			Style:   chart.Style{StrokeColor: color(sh.Line.Color), StrokeWidth: 1.5, StrokeDashArray: dashArray(sh.Line.Dash)},
		})
	}
	for _, a := range fig.Layout.Annotations {
		ch.Series = append(ch.Series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{XValue: a.X, YValue: yr.hi, Label: a.Text}},
		})
	}

	ch.XAxis.Range = xr.axisRange(nil)
	ch.YAxis.Range = yr.axisRange(fig.Layout.YAxis.Range)
	if y2r.set {
		ch.YAxisSecondary.Range = y2r.axisRange(nil)
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func renderBars(fig *Figure, w io.Writer, width, height int) error {
	var bars []chart.Value
	for _, tr := range fig.Data {
		labels := tr.xLabels()
		for i, v := range tr.Y {
			if i >= len(labels) || math.IsNaN(v) {
				continue
			}
			c := accent[0]
			if tr.Marker != nil {
				c = tr.Marker.Color
			}
			bars = append(bars, chart.Value{
				Label: tr.Name + " " + labels[i],
				Value: v,
				Style: chart.Style{FillColor: color(c), StrokeColor: color(c)},
			})
		}
	}
	if len(bars) == 0 {
		return errNothingToRender
	}

	barWidth := max(8, (width-160)/(len(bars)*2))
	bc := chart.BarChart{
		Title:      fig.Layout.Title.Text,
		TitleStyle: chart.Style{FontColor: color(darkText)},
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		Background: chart.Style{FillColor: color(darkPaper), Padding: chart.Box{Top: 40}},
		Canvas:     chart.Style{FillColor: color(darkBG)},
		XAxis:      darkStyle(),
		YAxis:      chart.YAxis{Style: darkStyle()},
		Bars:       bars,
	}

	var yr bounds
	yr.add(0)
	for _, b := range bars {
		yr.add(b.Value)
	}
	bc.YAxis.Range = yr.axisRange(nil)

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func axisTitle(a Axis) string {
	if a.Title == nil {
		return ""
	}
	return a.Title.Text
}

func traceStyle(tr Trace) chart.Style {
	st := chart.Style{}
	if tr.Line != nil {
		st.StrokeColor = color(tr.Line.Color)
		st.StrokeWidth = tr.Line.Width
		st.StrokeDashArray = dashArray(tr.Line.Dash)
	}
	if tr.FillColor != "" && tr.Line != nil {
		st.FillColor = color(tr.Line.Color).WithAlpha(40)
	}
	switch {
	case tr.Mode == "markers":
		c := color(accent[1])
		if tr.Marker != nil {
			c = color(tr.Marker.Color)
		}
		st.StrokeWidth = chart.Disabled
		st.DotWidth = 4
		st.DotColor = c
	case tr.Type == "histogram":
		c := color(accent[0])
		if tr.Marker != nil {
			c = color(tr.Marker.Color)
		}
		st.StrokeColor = c
		st.StrokeWidth = 1
		st.FillColor = c.WithAlpha(160)
	}
	return st
}

// finitePairs drops points where either coordinate is missing.
func finitePairs(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

// histogramSteps bins values into equal-width buckets and returns the outline
// of the bars as a step series.
func histogramSteps(vals []float64, bins int) ([]float64, []float64) {
	if bins <= 0 {
		bins = DefaultBins
	}
	var b bounds
	for _, v := range vals {
		if isFinite(v) {
			b.add(v)
		}
	}
	if !b.set {
		return nil, nil
	}
	width := (b.hi - b.lo) / float64(bins)
	if width == 0 {
		return []float64{b.lo - 0.5, b.lo - 0.5, b.lo + 0.5, b.lo + 0.5}, []float64{0, float64(b.n), float64(b.n), 0}
	}

	counts := make([]int, bins)
	for _, v := range vals {
		if !isFinite(v) {
			continue
		}
		i := int((v - b.lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	xs := make([]float64, 0, bins*2+2)
	ys := make([]float64, 0, bins*2+2)
	xs, ys = append(xs, b.lo), append(ys, 0)
	for i, c := range counts {
		left := b.lo + float64(i)*width
		xs = append(xs, left, left+width)
		ys = append(ys, float64(c), float64(c))
	}
	xs, ys = append(xs, b.hi), append(ys, 0)
	return xs, ys
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

type bounds struct {
	lo, hi float64
	n      int
	set    bool
}

func (b *bounds) add(vals ...float64) {
	for _, v := range vals {
		if !b.set {
			b.lo, b.hi, b.set = v, v, true
		}
		b.lo = min(b.lo, v)
		b.hi = max(b.hi, v)
		b.n++
	}
}

// axisRange returns a fixed range, widening a degenerate one so the renderer
// never sees a zero-width axis.
func (b bounds) axisRange(fixed []float64) *chart.ContinuousRange {
	if len(fixed) == 2 {
		return &chart.ContinuousRange{Min: fixed[0], Max: fixed[1]}
	}
	lo, hi := b.lo, b.hi
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
