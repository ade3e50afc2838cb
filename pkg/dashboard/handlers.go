package dashboard

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/internal/config"
	"github.com/younsl/n8n-model-tracker/pkg/models"
	pubjson "github.com/younsl/n8n-model-tracker/pkg/publisher/json"
	"github.com/younsl/n8n-model-tracker/pkg/version"
)

//go:embed templates/dashboard.html
var dashboardTemplate string

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"percent": func(r *models.ScanResult) string {
		return formatPercent(r.PreferredPercent())
	},
}).Parse(dashboardTemplate))

type tab struct {
	ID      string
	Title   string
	Caption string
	Empty   string
	Rows    []models.WorkflowInfo
}

type pageData struct {
	Snapshot
	Running  bool
	Failed   bool
	Defaults FetchRequest
	HasKey   bool
	MinBatch int
	MaxBatch int
	Tabs     []tab
	Version  string
	Error    string
}

type summaryResponse struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Fetched int             `json:"fetched"`
	Result  *pubjson.Report `json:"result"`
}

// Router returns the HTTP handler for the dashboard.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/fetch", s.handleFetch)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/api/summary", s.handleSummary)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "")
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	req, err := parseFetchRequest(r)
	if err != nil {
		s.renderPage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.StartFetch(req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrFetchInProgress) {
			status = http.StatusConflict
		}
		s.renderPage(w, status, err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Refresh()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	resp := summaryResponse{
		Status:  snap.Status,
		Message: snap.Message,
		Fetched: snap.Fetched,
	}
	if snap.Result != nil {
		report := pubjson.NewReport(snap.Result)
		resp.Result = &report
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) renderPage(w http.ResponseWriter, status int, formError string) {
	snap := s.Snapshot()
	defaults := s.Resolve(FetchRequest{})

	data := pageData{
		Snapshot: snap,
		Running:  snap.Status == StatusRunning,
		Failed:   snap.Status == StatusFailed,
		Defaults: FetchRequest{BaseURL: defaults.BaseURL, BatchSize: defaults.BatchSize},
		HasKey:   defaults.APIKey != "",
		MinBatch: config.MinBatchSize,
		MaxBatch: config.MaxBatchSize,
		Version:  version.Get().Version,
		Error:    formError,
	}
	if snap.Result != nil {
		data.Tabs = []tab{
			{
				ID:      "openrouter",
				Title:   "🚀 OpenRouter Workflows",
				Caption: "These workflows are correctly using the OpenRouter integration.",
				Empty:   "No workflows found for this category.",
				Rows:    snap.Result.Preferred,
			},
			{
				ID:      "other",
				Title:   "⚠️ Other Model Workflows",
				Caption: "These workflows are using other chat models (e.g., OpenAI, Gemini). Consider migrating to OpenRouter.",
				Empty:   "Great job! No workflows are using other models.",
				Rows:    snap.Result.Other,
			},
			{
				ID:    "all",
				Title: "📋 All Workflows",
				Empty: "No workflows found.",
				Rows:  snap.Result.All,
			},
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		logrus.WithError(err).Error("Failed to render dashboard")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}

// requestLogger logs each request through logrus instead of chi's
// stdlib-log middleware.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start).String(),
			"requestId": middleware.GetReqID(r.Context()),
		}).Debug("Handled dashboard request")
	})
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
