package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/charts"
)

// loadCaptures ingests local capture files into a fresh session.
func loadCaptures(app *AppContext, paths []string) (string, []*capture.UploadResult, error) {
	sessionID := app.Store.Create()
	results := make([]*capture.UploadResult, 0, len(paths))
	for _, path := range paths {
		res, err := loadCapture(app.Ingestor, sessionID, path)
		if err != nil {
			return "", nil, err
		}
		results = append(results, res)
	}
	return sessionID, results, nil
}

func loadCapture(ing *capture.Ingestor, sessionID, path string) (*capture.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	res, err := ing.Ingest(sessionID, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return res, nil
}

// writePNG renders a figure to path, creating parent directories.
func writePNG(fig *charts.Figure, path string, width, height int) error {
	var buf bytes.Buffer
	if err := charts.RenderPNG(fig, &buf, width, height); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
