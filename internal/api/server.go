package api

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/val3riia/languagemirror-bot/adapters/excel"
	"github.com/val3riia/languagemirror-bot/internal/report"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// Server is the admin HTTP surface: health, feedback inspection and
// report export. When the bot runs in webhook mode the Telegram
// webhook endpoint is mounted here as well.
type Server struct {
	feedback ports.FeedbackRepository
	reports  *report.Generator
	writer   *excel.ReportWriter
	webhook  http.Handler
	router   chi.Router
}

// NewServer builds the admin router. webhook may be nil in polling mode.
func NewServer(feedback ports.FeedbackRepository, reports *report.Generator, writer *excel.ReportWriter, webhook http.Handler) *Server {
	s := &Server{
		feedback: feedback,
		reports:  reports,
		writer:   writer,
		webhook:  webhook,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/feedback", func(r chi.Router) {
		r.Get("/", s.handleListFeedback)
		r.Post("/", s.handleAddFeedback)
		r.Get("/report", s.handleExportReport)
	})
	r.Get("/admin/report", s.handleHTMLReport)
	if webhook != nil {
		r.Post("/telegram/webhook", webhook.ServeHTTP)
	}

	s.router = r
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListFeedback returns feedback records as JSON. Optional from
// and to query parameters (RFC 3339) bound the time range.
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.feedback.List(r.Context(), from, to)
	if err != nil {
		log.Printf("[AdminAPI] Failed to list feedback: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if records == nil {
		records = []*models.FeedbackRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(records),
		"feedback": records,
	})
}

type addFeedbackRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Rating     string `json:"rating"`
	Comment    string `json:"comment"`
}

// handleAddFeedback appends a record directly, bypassing the chat flow.
// Used by the admin tooling to backfill or test the report pipeline.
func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var req addFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rating := models.Rating(req.Rating)
	if err := rating.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := &models.FeedbackRecord{
		ID:         uuid.New(),
		TelegramID: req.TelegramID,
		Username:   req.Username,
		Rating:     rating,
		Comment:    req.Comment,
		Timestamp:  time.Now(),
	}
	if err := s.feedback.Append(r.Context(), rec); err != nil {
		log.Printf("[AdminAPI] Failed to append feedback: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store feedback")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleExportReport writes a fresh XLSX report and serves it as a
// download.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Export(r.Context(), from, to)
	if err != nil {
		log.Printf("[AdminAPI] Failed to build report: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	path, err := s.writer.Write(rep)
	if err != nil {
		log.Printf("[AdminAPI] Failed to write report file: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to write report file")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// handleHTMLReport renders the report summary as HTML for a browser.
func (s *Server) handleHTMLReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Export(r.Context(), from, to)
	if err != nil {
		log.Printf("[AdminAPI] Failed to build report: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(rep.SummaryHTML())
}

// parseRange reads optional from/to RFC 3339 query parameters.
func parseRange(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[AdminAPI] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
