package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/util"
)

type healthResponse struct {
	Status           string   `json:"status"`
	Mode             string   `json:"mode"`
	SupportedFormats []string `json:"supported_formats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		Mode:             s.cfg.Mode,
		SupportedFormats: s.deps.Parsers.Names(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.List())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Store.List())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.deps.Store.Create()
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.deps.Store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Store.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Store.History(chi.URLParam(r, "id"), 0)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleUpload streams the multipart "file" part into the ingestor, which
// enforces the size limit while reading.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Expected a multipart upload with a file field")
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Missing file field")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "Malformed multipart upload")
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		res, err := s.deps.Ingestor.Ingest(sessionID, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			var ie *capture.IngestError
			if errors.As(err, &ie) {
				status := http.StatusBadRequest
				if ie.TooLarge() {
					status = http.StatusRequestEntityTooLarge
				}
				writeError(w, status, ie.Message)
				return
			}
			s.logger.Error("upload failed", "session", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to read upload")
			return
		}

		s.logger.Info("file uploaded", "session", sessionID, "file", res.FileID, "rows", res.Rows)
		writeJSON(w, http.StatusOK, res)
		return
	}
}

type usageResponse struct {
	Period       string                   `json:"period"`
	Since        string                   `json:"since"`
	Aggregate    *domain.AggregateUsage   `json:"aggregate"`
	Normalized   domain.NormalizedUsage   `json:"normalized"`
	ByCapability []domain.CapabilityUsage `json:"by_capability"`
	TopTools     []domain.ToolUsageStats  `json:"top_tools"`
}

// handleUsage reports ledger aggregates for ?period=today|week|month|all.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Turns == nil {
		writeError(w, http.StatusServiceUnavailable, "Usage ledger is disabled")
		return
	}

	period, err := util.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := usageResponse{Period: string(period), Since: period.Since(time.Now())}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		resp.Aggregate, err = s.deps.Turns.GetAggregate(ctx, resp.Since)
		return err
	})
	g.Go(func() error {
		var err error
		resp.ByCapability, err = s.deps.Turns.GetAggregateByCapability(ctx, resp.Since)
		return err
	})
	g.Go(func() error {
		var err error
		resp.TopTools, err = s.deps.Turns.GetTopTools(ctx, resp.Since, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load usage", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load usage")
		return
	}

	resp.Normalized = resp.Aggregate.ComputeNormalized()
	writeJSON(w, http.StatusOK, resp)
}
