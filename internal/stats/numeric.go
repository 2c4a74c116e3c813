// Package stats folds capture tables into frame-timing statistics.
//
// Every function is pure: tables are never mutated, missing values are dropped
// before aggregation, and expected data problems come back as *DataError.
package stats

import (
	"math"
	"sort"
)

// Column names used by the engine.
const (
	ColFrameTime    = "FrameTime"
	ColCPUStartTime = "CPUStartTime"
	ColCPUBusy      = "CPUBusy"
	ColGPUBusy      = "GPUBusy"
	ColCPUWait      = "CPUWait"
	ColGPUWait      = "GPUWait"
	ColApplication  = "Application"
	ColPresentMode  = "PresentMode"
	ColFrameType    = "FrameType"
)

// dropNA returns the non-missing values of a series.
func dropNA(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stdDev is the population standard deviation.
func stdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

func minMax(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func sorted(vals []float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	sort.Float64s(out)
	return out
}

// percentileSorted computes the linear-interpolation percentile p (0-100) of an
// ascending series: the value below which p percent of observations fall.
func percentileSorted(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return s[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}

// Percentile computes the linear-interpolation percentile of the non-missing values.
func Percentile(series []float64, p float64) float64 {
	return percentileSorted(sorted(dropNA(series)), p)
}

func median(s []float64) float64 { return percentileSorted(s, 50) }

// RollingMean is a trailing mean over window samples that skips missing
// values. Positions whose window holds no value are NaN.
//
// Each window is summed afresh as offsets from its first value, so a run of
// equal values yields exactly that value.
func RollingMean(vals []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(vals))
	for i := range vals {
		ref, sum, n := math.NaN(), 0.0, 0
		for _, v := range vals[max(0, i-window+1) : i+1] {
			if math.IsNaN(v) {
				continue
			}
			if n == 0 {
				ref = v
			}
			sum += v - ref
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = ref + sum/float64(n)
	}
	return out
}

// round rounds half away from zero to the given number of decimals.
// NaN and infinities become 0 so results always encode as JSON.
func round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// toFPS converts frame durations in milliseconds to frames per second.
func toFPS(frameTimes []float64) []float64 {
	fps := make([]float64, len(frameTimes))
	for i, ft := range frameTimes {
		fps[i] = 1000.0 / ft
	}
	return fps
}

// truncate cuts both series to the shorter length.
func truncate(a, b []float64) ([]float64, []float64) {
	n := min(len(a), len(b))
	return a[:n], b[:n]
}
