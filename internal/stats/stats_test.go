package stats

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

func numCol(name string, vals ...float64) *domain.Column {
	return &domain.Column{Name: name, Kind: domain.KindNumeric, Num: vals}
}

func textCol(name string, vals ...string) *domain.Column {
	return &domain.Column{Name: name, Kind: domain.KindText, Text: vals}
}

func table(cols ...*domain.Column) *domain.Table { return domain.NewTable(cols) }

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// timeline returns start times spaced by each frame's duration.
func timeline(ft []float64) []float64 {
	ts := make([]float64, len(ft))
	var cur float64
	for i, v := range ft {
		ts[i] = cur
		cur += v / 1000
	}
	return ts
}

func captureOf(ft []float64) *domain.Table {
	return table(numCol(ColCPUStartTime, timeline(ft)...), numCol(ColFrameTime, ft...))
}

func noisyFrameTimes(n int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	ft := make([]float64, n)
	for i := range ft {
		ft[i] = 10 + r.Float64()*5
		if r.IntN(50) == 0 {
			ft[i] = 40 + r.Float64()*40
		}
	}
	return ft
}

func requireDataError(t *testing.T, err error, want string) {
	t.Helper()
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %v", err)
	}
	if de.Message != want {
		t.Errorf("error message: expected %q, got %q", want, de.Message)
	}
}

func assertFloatNear(t *testing.T, name string, expected, actual, tol float64) {
	t.Helper()
	if math.Abs(expected-actual) > tol {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

func TestPercentile(t *testing.T) {
	vals := []float64{4, math.NaN(), 1, 3, 2}

	assertFloatNear(t, "p0", 1, Percentile(vals, 0), 1e-12)
	assertFloatNear(t, "p25", 1.75, Percentile(vals, 25), 1e-12)
	assertFloatNear(t, "p50", 2.5, Percentile(vals, 50), 1e-12)
	assertFloatNear(t, "p100", 4, Percentile(vals, 100), 1e-12)

	if !math.IsNaN(Percentile(nil, 50)) {
		t.Error("expected NaN for empty series")
	}

	noisy := noisyFrameTimes(500, 7)
	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		v := Percentile(noisy, p)
		if v < prev {
			t.Fatalf("percentile not monotonic at p=%v: %v < %v", p, v, prev)
		}
		prev = v
	}
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{2, 4, 6, 8}, 2)
	if diff := cmp.Diff([]float64{2, 3, 5, 7}, got); diff != "" {
		t.Errorf("RollingMean mismatch (-want +got):\n%s", diff)
	}

	nan := math.NaN()
	got = RollingMean([]float64{nan, 4, nan, 8}, 2)
	if !math.IsNaN(got[0]) {
		t.Errorf("expected NaN for an all-missing window, got %v", got[0])
	}
	if diff := cmp.Diff([]float64{4, 4, 8}, got[1:]); diff != "" {
		t.Errorf("RollingMean with gaps mismatch (-want +got):\n%s", diff)
	}
}

func TestFPS_ConstantFrameTime(t *testing.T) {
	ft := repeat(16.67, 1000)
	s, err := FPS(captureOf(ft), domain.TimeWindow{})
	if err != nil {
		t.Fatalf("FPS failed: %v", err)
	}

	assertEqual(t, "frame_count", 1000, s.FrameCount)
	assertEqual(t, "average fps", 60.0, s.FPS.Average)
	assertEqual(t, "1% low", 60.0, s.FPS.P1)
	assertEqual(t, "average frame time", 16.67, s.FrameTimeMs.Average)
	assertFloatNear(t, "duration", 16.65, s.DurationSeconds, 0.01)

	st, err := Stutters(captureOf(ft), DefaultStutterThreshold, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("Stutters failed: %v", err)
	}
	assertEqual(t, "stutter_count", 0, st.StutterCount)
	assertEqual(t, "threshold", DefaultStutterThreshold, st.ThresholdMultiplier)
}

func TestFPS_Ordering(t *testing.T) {
	s, err := FPS(captureOf(noisyFrameTimes(2000, 42)), domain.TimeWindow{})
	if err != nil {
		t.Fatalf("FPS failed: %v", err)
	}

	fps := []float64{s.FPS.Min, s.FPS.P01, s.FPS.P1, s.FPS.P5, s.FPS.Median, s.FPS.Max}
	for i := 1; i < len(fps); i++ {
		if fps[i] < fps[i-1] {
			t.Errorf("fps ordering broken at %d: %v", i, fps)
		}
	}
	if s.FPS.Average < s.FPS.P1 || s.FPS.Average > s.FPS.Max {
		t.Errorf("average %v outside [p1, max]", s.FPS.Average)
	}

	ft := []float64{s.FrameTimeMs.Min, s.FrameTimeMs.Median, s.FrameTimeMs.P95, s.FrameTimeMs.P99, s.FrameTimeMs.P999, s.FrameTimeMs.Max}
	for i := 1; i < len(ft); i++ {
		if ft[i] < ft[i-1] {
			t.Errorf("frame time ordering broken at %d: %v", i, ft)
		}
	}
}

func TestFPS_Errors(t *testing.T) {
	_, err := FPS(table(numCol(ColCPUStartTime, 0, 1)), domain.TimeWindow{})
	requireDataError(t, err, "No FrameTime data available")

	_, err = FPS(table(numCol(ColFrameTime, math.NaN(), math.NaN())), domain.TimeWindow{})
	requireDataError(t, err, "All FrameTime values are NA")
}

func TestFPS_Window(t *testing.T) {
	ft := repeat(10, 100)
	tbl := captureOf(ft)
	start, end := 0.2, 0.5

	s, err := FPS(tbl, domain.TimeWindow{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("FPS failed: %v", err)
	}
	if s.FrameCount < 29 || s.FrameCount > 32 {
		t.Errorf("expected about 31 frames in window, got %d", s.FrameCount)
	}
	assertEqual(t, "source table untouched", 100, tbl.Len())

	empty := 100.0
	_, err = FPS(tbl, domain.TimeWindow{Start: &empty})
	requireDataError(t, err, "No FrameTime data available")
}

func TestWindow_NoTimestamps(t *testing.T) {
	tbl := table(numCol(ColFrameTime, 1, 2, 3))
	start := 5.0
	if got := Window(tbl, domain.TimeWindow{Start: &start}); got != tbl {
		t.Error("expected table without CPUStartTime to pass through unchanged")
	}
}

func TestStutters_SingleSpike(t *testing.T) {
	ft := repeat(10, 1000)
	ft[500] = 100

	r, err := Stutters(captureOf(ft), 2, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("Stutters failed: %v", err)
	}

	assertEqual(t, "stutter_count", 1, r.StutterCount)
	assertEqual(t, "total_frames", 1000, r.TotalFrames)
	assertEqual(t, "stutter_percentage", 0.1, r.StutterPercentage)
	if len(r.WorstStutters) != 1 {
		t.Fatalf("expected 1 worst stutter, got %d", len(r.WorstStutters))
	}
	s := r.WorstStutters[0]
	assertEqual(t, "frame_index", 500, s.FrameIndex)
	assertEqual(t, "frametime_ms", 100.0, s.FrameTime)
	if s.Severity < 8 {
		t.Errorf("expected severity around 8.7x, got %v", s.Severity)
	}
	if s.TimeSec == nil {
		t.Fatal("expected time_sec from CPUStartTime")
	}
	assertFloatNear(t, "time_sec", 5.0, *s.TimeSec, 0.01)
}

func TestStutters_WorstOrderAndCap(t *testing.T) {
	ft := repeat(10, 2000)
	for i := range 15 {
		ft[100+i*120] = 50 + float64(i)
	}

	r, err := Stutters(table(numCol(ColFrameTime, ft...)), 2, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("Stutters failed: %v", err)
	}
	assertEqual(t, "stutter_count", 15, r.StutterCount)
	assertEqual(t, "worst capped", 10, len(r.WorstStutters))
	assertEqual(t, "worst first", 64.0, r.WorstStutters[0].FrameTime)
	for i := 1; i < len(r.WorstStutters); i++ {
		if r.WorstStutters[i].FrameTime > r.WorstStutters[i-1].FrameTime {
			t.Errorf("worst stutters not sorted descending at %d", i)
		}
	}
	if r.WorstStutters[0].TimeSec != nil {
		t.Error("expected no time_sec without CPUStartTime")
	}
}

func TestStutters_ThresholdMonotonic(t *testing.T) {
	tbl := captureOf(noisyFrameTimes(3000, 3))
	prev := math.MaxInt
	for _, th := range []float64{1.2, 1.5, 2, 2.5, 3, 5} {
		r, err := Stutters(tbl, th, domain.TimeWindow{})
		if err != nil {
			t.Fatalf("Stutters(%v) failed: %v", th, err)
		}
		if r.StutterCount > prev {
			t.Errorf("threshold %v: count %d exceeds count %d at lower threshold", th, r.StutterCount, prev)
		}
		prev = r.StutterCount
	}
}

func TestStutters_ConstantCapture(t *testing.T) {
	for _, ft := range []float64{16.67, 33.3, 8.33, 6.94, 16.6} {
		tbl := captureOf(repeat(ft, 1000))
		for _, th := range []float64{1.0, 1.5, 2.0} {
			r, err := Stutters(tbl, th, domain.TimeWindow{})
			if err != nil {
				t.Fatalf("Stutters(%v ms, %v) failed: %v", ft, th, err)
			}
			if r.StutterCount != 0 {
				t.Errorf("%v ms at threshold %v: expected 0 stutters, got %d", ft, th, r.StutterCount)
			}
		}
	}
}

func TestRollingMean_ConstantRun(t *testing.T) {
	for _, v := range []float64{16.67, 33.3, 8.33} {
		for i, got := range RollingMean(repeat(v, 500), StutterWindow) {
			if got != v {
				t.Fatalf("RollingMean(%v)[%d] = %v, want exactly %v", v, i, got, v)
			}
		}
	}
}

func TestStutters_Errors(t *testing.T) {
	_, err := Stutters(table(numCol(ColCPUStartTime, 1)), 2, domain.TimeWindow{})
	requireDataError(t, err, "No FrameTime data available")

	_, err = Stutters(captureOf(repeat(10, 9)), 2, domain.TimeWindow{})
	requireDataError(t, err, "Not enough frames for stutter analysis")

	for _, th := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err = Stutters(captureOf(repeat(10, 100)), th, domain.TimeWindow{})
		requireDataError(t, err, "threshold_multiplier must be positive")
	}
}

func TestBound(t *testing.T) {
	tests := []struct {
		name string
		cpu  []float64
		gpu  []float64
		want BoundReport
	}{
		{
			name: "cpu heavy",
			cpu:  []float64{6, 6, 1},
			gpu:  []float64{5, 5, 5},
			want: BoundReport{
				OverallBottleneck: CPUBound, CPUBoundFrames: 2, GPUBoundFrames: 1,
				CPUBoundPercentage: 66.7, GPUBoundPercentage: 33.3,
				AvgCPUBusyMs: 4.33, AvgGPUBusyMs: 5,
			},
		},
		{
			name: "tie counts as gpu bound overall",
			cpu:  []float64{5, 5, 6, 3},
			gpu:  []float64{5, 6, 5, 4},
			want: BoundReport{
				OverallBottleneck: GPUBound, CPUBoundFrames: 2, GPUBoundFrames: 2,
				CPUBoundPercentage: 50, GPUBoundPercentage: 50,
				AvgCPUBusyMs: 4.75, AvgGPUBusyMs: 5,
			},
		},
		{
			name: "unequal lengths truncate",
			cpu:  []float64{9, math.NaN(), 9, 9},
			gpu:  []float64{1, 1},
			want: BoundReport{
				OverallBottleneck: CPUBound, CPUBoundFrames: 2, GPUBoundFrames: 0,
				CPUBoundPercentage: 100, GPUBoundPercentage: 0,
				AvgCPUBusyMs: 9, AvgGPUBusyMs: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bound(table(numCol(ColCPUBusy, tt.cpu...), numCol(ColGPUBusy, tt.gpu...)))
			if err != nil {
				t.Fatalf("Bound failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("Bound mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBound_PercentagesSumTo100(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	for range 50 {
		n := 1 + r.IntN(400)
		cpu, gpu := make([]float64, n), make([]float64, n)
		for i := range n {
			cpu[i], gpu[i] = r.Float64()*10, r.Float64()*10
		}
		got, err := Bound(table(numCol(ColCPUBusy, cpu...), numCol(ColGPUBusy, gpu...)))
		if err != nil {
			t.Fatal(err)
		}
		assertFloatNear(t, "percentage sum", 100, got.CPUBoundPercentage+got.GPUBoundPercentage, 1e-9)
		assertEqual(t, "frame sum", n, got.CPUBoundFrames+got.GPUBoundFrames)
	}
}

func TestBound_Errors(t *testing.T) {
	_, err := Bound(table(numCol(ColCPUBusy, 1)))
	requireDataError(t, err, "Missing columns: GPUBusy")

	_, err = Bound(table(numCol(ColFrameTime, 1)))
	requireDataError(t, err, "Missing columns: CPUBusy, GPUBusy")

	_, err = Bound(table(numCol(ColCPUBusy, math.NaN()), numCol(ColGPUBusy, 1)))
	requireDataError(t, err, "No CPUBusy/GPUBusy data available")
}

func TestBound_WaitColumns(t *testing.T) {
	got, err := Bound(table(
		numCol(ColCPUBusy, 4, 6),
		numCol(ColGPUBusy, 5, 5),
		numCol(ColCPUWait, 1, 2),
		numCol(ColGPUWait, math.NaN(), math.NaN()),
	))
	if err != nil {
		t.Fatal(err)
	}
	if got.AvgCPUWaitMs == nil || *got.AvgCPUWaitMs != 1.5 {
		t.Errorf("expected avg_cpu_wait_ms 1.5, got %v", got.AvgCPUWaitMs)
	}
	if got.AvgGPUWaitMs != nil {
		t.Errorf("expected no avg_gpu_wait_ms for all-missing column, got %v", *got.AvgGPUWaitMs)
	}
}

func TestBusy(t *testing.T) {
	tbl := table(
		numCol(ColFrameTime, 10, 10, 10),
		numCol(ColCPUBusy, 6, 6, 1),
		numCol(ColGPUBusy, 5, 5, 5),
		numCol(ColCPUWait, 1, 2, 3),
	)
	r, err := Busy(tbl, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("Busy failed: %v", err)
	}

	if !r.CPUBusy.Available() || !r.GPUBusy.Available() {
		t.Fatal("expected both busy summaries")
	}
	assertEqual(t, "cpu max", 6.0, r.CPUBusy.Value.Max)
	assertEqual(t, "gpu std", 0.0, r.GPUBusy.Value.StdDev)
	if r.CPUWait == nil || r.CPUWait.Average != 2 {
		t.Errorf("expected cpu wait average 2, got %+v", r.CPUWait)
	}
	if r.GPUWait != nil {
		t.Error("expected no gpu wait summary")
	}

	b := r.Bottleneck
	if b == nil {
		t.Fatal("expected bottleneck summary")
	}
	assertEqual(t, "overall", CPUBound, b.Overall)
	assertEqual(t, "cpu pct", 66.7, b.CPUBoundPercentage)
	assertEqual(t, "gpu pct", 33.3, b.GPUBoundPercentage)
	assertEqual(t, "avg diff", -0.667, b.AvgCPUMinusGPUMs)
	assertEqual(t, "interpretation", "CPU is on average 0.67ms faster than GPU per frame", b.Interpretation)
	assertEqual(t, "frames analyzed", 3, b.TotalFramesAnalyzed)

	if r.Overhead == nil {
		t.Fatal("expected frame overhead")
	}
	assertEqual(t, "overhead", 4.333, r.Overhead.Average)
}

func TestBusy_Sentinels(t *testing.T) {
	tbl := table(numCol(ColCPUBusy, math.NaN(), math.NaN()))
	r, err := Busy(tbl, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("Busy failed: %v", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"cpu_busy_ms":"all_na","gpu_busy_ms":"not_available"}`
	assertEqual(t, "json", want, string(data))

	_, err = Busy(table(numCol(ColFrameTime, 1)), domain.TimeWindow{})
	requireDataError(t, err, "Missing columns: CPUBusy, GPUBusy")
}

func TestLatency(t *testing.T) {
	tbl := table(
		numCol("DisplayLatency", 20, 30, 40),
		numCol("ClickToPhotonLatency", math.NaN()),
	)
	r := Latency(tbl)

	if !r.DisplayLatency.Available() {
		t.Fatal("expected display latency summary")
	}
	assertEqual(t, "display median", 30.0, r.DisplayLatency.Value.Median)
	assertEqual(t, "instrumented", NotAvailable, r.InstrumentedLatency.Sentinel)
	assertEqual(t, "click to photon", AllNA, r.ClickToPhoton.Sentinel)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"input_to_photon_ms":"not_available"`) {
		t.Errorf("unexpected json: %s", data)
	}
}

func TestThrottling(t *testing.T) {
	tbl := table(
		numCol("GPUPowerLimited", 1, 0, 0, 1),
		numCol("GPUTemperatureLimited", 0, 0, 0, 0),
		numCol("GPUVoltageLimited", math.NaN(), math.NaN()),
	)
	r := Throttling(tbl)

	assertEqual(t, "flags", 2, len(r.Flags))
	assertEqual(t, "any", true, r.AnyThrottlingDetected)
	assertEqual(t, "power label", "Power Limited", r.Flags[0].Label)
	assertEqual(t, "power pct", 50.0, r.Flags[0].Percentage)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["Temperature Limited"]; !ok {
		t.Errorf("expected Temperature Limited key in %s", data)
	}
	if _, ok := decoded["Voltage Limited"]; ok {
		t.Error("expected all-missing flag to be omitted")
	}

	none := Throttling(table(numCol(ColFrameTime, 1)))
	data, _ = json.Marshal(none)
	assertEqual(t, "empty report", `{"any_throttling_detected":false}`, string(data))
}

func TestSegments(t *testing.T) {
	ft := noisyFrameTimes(3000, 5)
	r, err := Segments(captureOf(ft), 5)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if r.SegmentCount == 0 || r.SegmentCount != len(r.Segments) {
		t.Fatalf("unexpected segment count %d (%d segments)", r.SegmentCount, len(r.Segments))
	}

	var frames int
	for i, s := range r.Segments {
		if s.FrameCount == 0 {
			t.Errorf("segment %d is empty", i)
		}
		if s.MinFPS > s.AvgFPS {
			t.Errorf("segment %d: min fps %v above average %v", i, s.MinFPS, s.AvgFPS)
		}
		if i > 0 {
			assertFloatNear(t, "contiguous", r.Segments[i-1].EndSec, s.StartSec, 1e-9)
		}
		frames += s.FrameCount
	}
	assertEqual(t, "covered frames", len(ft), frames)
}

func TestSegments_SkipsEmptyBuckets(t *testing.T) {
	tbl := table(
		numCol(ColCPUStartTime, 0, 1, 25, 26, 40),
		numCol(ColFrameTime, 10, 10, 20, 20, 10),
	)
	r, err := Segments(tbl, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []Segment{
		{StartSec: 0, EndSec: 10, FrameCount: 2, AvgFPS: 100, MinFPS: 100, AvgFrameTimeMs: 10, MaxFrameTimeMs: 10},
		{StartSec: 20, EndSec: 30, FrameCount: 2, AvgFPS: 50, MinFPS: 50, AvgFrameTimeMs: 20, MaxFrameTimeMs: 20},
	}
	if diff := cmp.Diff(want, r.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestSegments_SmallSegmentsSinglePass(t *testing.T) {
	ft := repeat(1, 100_000)
	started := time.Now()
	r, err := Segments(captureOf(ft), 0.002)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Errorf("Segments took %v on %d frames", elapsed, len(ft))
	}

	var frames int
	for _, s := range r.Segments {
		frames += s.FrameCount
	}
	if frames < len(ft)-1 {
		t.Errorf("expected segments to cover %d frames, got %d", len(ft), frames)
	}
	if r.SegmentCount < 49_000 {
		t.Errorf("expected about 50000 segments, got %d", r.SegmentCount)
	}
}

func TestSegments_Errors(t *testing.T) {
	_, err := Segments(table(numCol(ColFrameTime, 1)), 10)
	requireDataError(t, err, "Missing CPUStartTime or FrameTime columns")

	_, err = Segments(captureOf(repeat(10, 10)), 0)
	requireDataError(t, err, "segment_seconds must be positive")
}

func TestCompare(t *testing.T) {
	a := captureOf(repeat(16.67, 300))
	b := captureOf(noisyFrameTimes(300, 9))

	ab, err := Compare(context.Background(), []CompareInput{
		{FileID: "aaaa", Label: "before", Table: a},
		{FileID: "bbbb", Table: b},
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	assertEqual(t, "file_count", 2, ab.FileCount)
	assertEqual(t, "label", "before", ab.Files[0].Label)
	assertEqual(t, "label fallback", "bbbb", ab.Files[1].Label)

	ba, err := Compare(context.Background(), []CompareInput{
		{FileID: "bbbb", Table: b},
		{FileID: "aaaa", Table: a},
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	assertEqual(t, "avg fps antisymmetric", ab.Delta.AvgFPSDelta, -ba.Delta.AvgFPSDelta)
	assertEqual(t, "p1 antisymmetric", ab.Delta.P1FPSDelta, -ba.Delta.P1FPSDelta)
	assertEqual(t, "frame time antisymmetric", ab.Delta.AvgFrameTimeDeltaMs, -ba.Delta.AvgFrameTimeDeltaMs)
}

func TestCompare_Errors(t *testing.T) {
	good := captureOf(repeat(10, 20))

	_, err := Compare(context.Background(), []CompareInput{{FileID: "a", Table: good}})
	requireDataError(t, err, "Need at least 2 files to compare")

	_, err = Compare(context.Background(), []CompareInput{
		{FileID: "a", Table: good},
		{FileID: "b", Table: table(numCol(ColCPUBusy, 1))},
		{FileID: "c", Table: table(numCol(ColFrameTime, math.NaN()))},
	})
	requireDataError(t, err, "Failed to analyze file b: No FrameTime data available")
}

func TestProfileTable(t *testing.T) {
	tbl := table(
		textCol(ColApplication, "game.exe", "game.exe"),
		textCol(ColPresentMode, "Hardware: Independent Flip", "Composed: Flip"),
		numCol(ColCPUStartTime, 0, 1.5),
		numCol(ColFrameTime, 10, 30),
		numCol("GPUPower", math.NaN(), math.NaN()),
	)
	info := &domain.FileInfo{FileID: "f1", OriginalName: "run.csv", SourceTool: "PresentMon", Application: "other"}

	p := ProfileTable(tbl, info)

	assertEqual(t, "filename", "run.csv", p.Filename)
	assertEqual(t, "application from data", "game.exe", p.Application)
	assertEqual(t, "total columns", 5, p.TotalColumns)
	assertEqual(t, "available", 4, p.AvailableColumns)
	if diff := cmp.Diff([]string{"GPUPower"}, p.NAColumnNames); diff != "" {
		t.Errorf("na columns mismatch (-want +got):\n%s", diff)
	}
	assertEqual(t, "avg fps", 50.0, *p.AvgFPS)
	assertEqual(t, "avg frame time", 20.0, *p.AvgFrameTimeMs)
	assertEqual(t, "duration", 1.5, *p.DurationSeconds)
	assertEqual(t, "present modes", 2, len(p.PresentModes))

	anon := ProfileTable(table(numCol(ColFrameTime, 5)), nil)
	assertEqual(t, "unknown filename", "unknown", anon.Filename)
	if anon.DurationSeconds != nil {
		t.Error("expected no duration without CPUStartTime")
	}
}
