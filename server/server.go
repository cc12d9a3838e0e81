// Package server exposes the BI pipeline over HTTP: a small embedded
// UI, one analyze endpoint and per-result CSV/PDF export endpoints.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"trpc.group/trpc-go/trpc-agent-go/log"

	"github.com/dewdew978/GBI-BI-Agent/export"
	"github.com/dewdew978/GBI-BI-Agent/interpret"
	"github.com/dewdew978/GBI-BI-Agent/pipeline"
)

//go:embed static/index.html
var staticFS embed.FS

const (
	defaultUserID    = "user"
	maxQuestionBytes = 1 << 14
	resultStoreLimit = 64
)

// Analyzer answers one question per call. Satisfied by *pipeline.Pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, userID, question string) *pipeline.Analysis
}

// Server routes HTTP traffic to the pipeline and the exporters.
type Server struct {
	analyzer Analyzer
	router   *mux.Router
	store    *resultStore
}

// New builds the HTTP surface around an analyzer.
func New(analyzer Analyzer) *Server {
	s := &Server{
		analyzer: analyzer,
		router:   mux.NewRouter(),
		store:    newResultStore(resultStoreLimit),
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/api/results/{id}/csv", s.handleCSV).Methods(http.MethodGet)
	s.router.HandleFunc("/api/results/{id}/pdf", s.handlePDF).Methods(http.MethodGet)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Question string `json:"question"`
}

type analyzeResponse struct {
	ID           string           `json:"id"`
	Question     string           `json:"question"`
	SQL          string           `json:"sql"`
	Table        *interpret.Table `json:"table,omitempty"`
	Chart        *interpret.Chart `json:"chart,omitempty"`
	Insights     string           `json:"insights"`
	InsightsHTML string           `json:"insightsHtml"`
	Failed       bool             `json:"failed"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	body := http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	started := time.Now()
	analysis := s.analyzer.Analyze(r.Context(), defaultUserID, req.Question)
	log.Infof("analyze: question=%q failed=%t elapsed=%s", req.Question, analysis.Failed, time.Since(started))

	id := s.store.Put(analysis)
	writeJSON(w, http.StatusOK, analyzeResponse{
		ID:           id,
		Question:     analysis.Question,
		SQL:          analysis.SQL,
		Table:        analysis.Table,
		Chart:        analysis.Chart,
		Insights:     analysis.Insights,
		InsightsHTML: renderInsightsHTML(analysis.Insights),
		Failed:       analysis.Failed,
	})
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	analysis, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown result id"})
		return
	}
	if analysis.Table.Empty() {
		writeJSON(w, http.StatusConflict,
			map[string]string{"error": "No data to download. Please run a query first."})
		return
	}
	path, err := export.WriteCSV(analysis.Table)
	if err != nil {
		log.Errorf("server: csv export failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "csv export failed"})
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=query_results.csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	analysis, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown result id"})
		return
	}
	report, err := export.Report(analysis.Question, analysis.SQL, analysis.Table, analysis.Insights)
	if err != nil {
		log.Errorf("server: pdf export failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pdf export failed"})
		return
	}
	filename := fmt.Sprintf("bi_report_%s.pdf", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("server: write response: %v", err)
	}
}
