package stats

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// CompareInput is one capture taking part in a comparison.
type CompareInput struct {
	FileID string
	Label  string
	Table  *domain.Table
}

type FileComparison struct {
	FileID string `json:"file_id"`
	Label  string `json:"label"`
	FPSStats
}

// CompareDelta holds second-minus-first differences of the rounded averages.
type CompareDelta struct {
	AvgFPSDelta         float64 `json:"avg_fps_delta"`
	AvgFPSDeltaPct      float64 `json:"avg_fps_delta_pct"`
	P1FPSDelta          float64 `json:"p1_fps_delta"`
	AvgFrameTimeDeltaMs float64 `json:"avg_frametime_delta_ms"`
}

type CompareReport struct {
	FileCount int              `json:"file_count"`
	Files     []FileComparison `json:"files"`
	Delta     CompareDelta     `json:"delta"`
}

// compareConcurrency bounds how many captures are summarized at once.
const compareConcurrency = 4

// Compare computes FPS statistics for every input and the delta between the
// first two. The first failing input, in input order, aborts the comparison.
func Compare(ctx context.Context, inputs []CompareInput) (*CompareReport, error) {
	if len(inputs) < 2 {
		return nil, invalid("Need at least 2 files to compare")
	}

	results := make([]*FPSStats, len(inputs))
	errs := make([]error, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(compareConcurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = FPS(in.Table, domain.TimeWindow{})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]FileComparison, len(inputs))
	for i, in := range inputs {
		if errs[i] != nil {
			var de *DataError
			if errors.As(errs[i], &de) {
				return nil, &DataError{Kind: de.Kind, Message: "Failed to analyze file " + in.FileID + ": " + de.Message}
			}
			return nil, errs[i]
		}
		label := in.Label
		if label == "" {
			label = in.FileID
		}
		files[i] = FileComparison{FileID: in.FileID, Label: label, FPSStats: *results[i]}
	}

	a, b := files[0].FPSStats, files[1].FPSStats
	delta := CompareDelta{
		AvgFPSDelta:         round(b.FPS.Average-a.FPS.Average, 1),
		P1FPSDelta:          round(b.FPS.P1-a.FPS.P1, 1),
		AvgFrameTimeDeltaMs: round(b.FrameTimeMs.Average-a.FrameTimeMs.Average, 2),
	}
	if a.FPS.Average != 0 {
		delta.AvgFPSDeltaPct = round((b.FPS.Average-a.FPS.Average)/a.FPS.Average*100, 1)
	}

	return &CompareReport{FileCount: len(files), Files: files, Delta: delta}, nil
}
