// Package api exposes the pipeline's observability surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridsink/meterflow/internal/store"
)

type Server struct {
	store *store.Store
	port  int
	state func() string // current pipeline run-state, for health reporting
}

func NewServer(st *store.Store, port int, state func() string) *Server {
	return &Server{store: st, port: port, state: state}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/health", s.handleRunHealth)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%d", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// HealthStatus reports the pipeline state and any recent stage failures.
type HealthStatus struct {
	Status         string         `json:"status"`
	PipelineState  string         `json:"pipeline_state"`
	RecentFailures []StageRunView `json:"recent_failures,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok", PipelineState: s.state()}

	failures, err := s.store.GetRecentFailures(5)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}
	if len(failures) > 0 {
		health.Status = "degraded"
		health.RecentFailures = toRunViews(failures)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("api: health: write response: %v", err)
	}
}

// StageRunView is the JSON shape of a stage run, with null columns as
// optional fields.
type StageRunView struct {
	ID         int64      `json:"id"`
	Stage      string     `json:"stage"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	RowsIn     *int64     `json:"rows_in,omitempty"`
	RowsOut    *int64     `json:"rows_out,omitempty"`
	Status     string     `json:"status"`
	Error      *string    `json:"error,omitempty"`
}

func toRunViews(runs []store.StageRun) []StageRunView {
	views := make([]StageRunView, 0, len(runs))
	for _, r := range runs {
		v := StageRunView{
			ID:        r.ID,
			Stage:     r.Stage,
			StartedAt: r.StartedAt,
			Status:    r.Status,
		}
		if r.FinishedAt.Valid {
			t := r.FinishedAt.Time
			v.FinishedAt = &t
		}
		if r.RowsIn.Valid {
			n := r.RowsIn.Int64
			v.RowsIn = &n
		}
		if r.RowsOut.Valid {
			n := r.RowsOut.Int64
			v.RowsOut = &n
		}
		if r.ErrorMessage.Valid {
			e := r.ErrorMessage.String
			v.Error = &e
		}
		views = append(views, v)
	}
	return views
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.GetRecentRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRunViews(runs))
}

func (s *Server) handleRunHealth(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			http.Error(w, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		days = n
	}

	health, err := s.store.GetRunHealth(days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
