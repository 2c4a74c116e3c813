package web

import (
	"net/http"

	"github.com/emiliopalmerini/framescope/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := templates.IndexData{
		Mode:             s.cfg.Mode,
		SupportedFormats: s.deps.Parsers.Names(),
		SessionCount:     len(s.deps.Store.List()),
	}
	for _, a := range s.deps.Catalog.List() {
		data.Agents = append(data.Agents, templates.Agent{Name: a.Name, Description: a.Description})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(data).Render(r.Context(), w); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}
