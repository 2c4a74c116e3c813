package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/emiliopalmerini/framescope/internal/charts"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

// handleChartPNG renders a chart tool's figure as a PNG. The path ends in
// "<tool>.png"; other query parameters become tool arguments, except width
// and height which size the image.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "chart"), ".png")
	if !ok {
		writeError(w, http.StatusNotFound, "Charts are served as .png")
		return
	}

	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))
	kv := make(map[string]string, len(q))
	for k := range q {
		if k != "width" && k != "height" {
			kv[k] = q.Get(k)
		}
	}

	call := tools.Call{
		SessionID: chi.URLParam(r, "id"),
		FileID:    chi.URLParam(r, "fileID"),
		Args:      tools.ParseArgs(kv),
	}
	if _, err := s.deps.Store.FileInfo(r.Context(), call.SessionID, call.FileID); err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) || errors.Is(err, ports.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fig, err := s.deps.Registry.Figure(r.Context(), name, call)
	if err != nil {
		var ce *charts.Error
		switch {
		case errors.As(err, &ce):
			writeError(w, http.StatusUnprocessableEntity, ce.Message)
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderPNG(fig, &buf, width, height); err != nil {
		s.logger.Error("failed to render chart", "chart", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
