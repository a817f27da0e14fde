package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dataplor/dataplor-cli/internal/clean"
	"github.com/dataplor/dataplor-cli/internal/cpg"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/report"
	"github.com/dataplor/dataplor-cli/internal/source"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		r := buildRouter(&apiServer{src: src})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// buildRouter assembles the API router around a source-backed handler
// set. Split out so handler tests can drive it without a listener.
func buildRouter(api *apiServer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", api.handleTables)
		r.Post("/analyze", api.handleAnalyze)
		r.Post("/clean", api.handleClean)
		r.Get("/report/{table}", api.handleReport)
		r.Get("/cpg/{analysis}", api.handleCPG)
	})
	return r
}

// rateLimit applies a process-wide token bucket to all API requests.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type apiServer struct {
	src source.Source
}

func (s *apiServer) handleTables(w http.ResponseWriter, r *http.Request) {
	metas, err := s.src.ListTables(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, metas)
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table  string `json:"table"`
		Sample int    `json:"sample"`
		Scorer string `json:"scorer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if req.Table == "" {
		respondError(w, http.StatusBadRequest, eris.New("table is required"))
		return
	}

	snap, err := s.src.LoadTable(r.Context(), req.Table, req.Sample)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	res, _, err := analyzeSnapshot(r.Context(), s.src, snap, req.Scorer)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (s *apiServer) handleClean(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table string               `json:"table"`
		Steps []model.CleaningStep `json:"steps"`
		Save  bool                 `json:"save"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if req.Table == "" || len(req.Steps) == 0 {
		respondError(w, http.StatusBadRequest, eris.New("table and steps are required"))
		return
	}

	snap, err := s.src.LoadTable(r.Context(), req.Table, 0)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}

	cleaned, changes := clean.NewExecutor().Apply(snap, req.Steps)
	res, _, err := analyzeSnapshot(r.Context(), nil, cleaned, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	saved := ""
	if req.Save {
		name := fmt.Sprintf("%s_cleaned_%s", req.Table, time.Now().Format("20060102_150405"))
		saved, err = s.src.SaveTable(r.Context(), cleaned, name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
	}

	respond(w, http.StatusOK, struct {
		Changes  []model.ChangeRecord `json:"changes"`
		Analysis *analysisResult      `json:"analysis"`
		SavedAs  string               `json:"saved_as,omitempty"`
	}{changes, res, saved})
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	snap, err := s.src.LoadTable(r.Context(), table, 0)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	res, _, err := analyzeSnapshot(r.Context(), s.src, snap, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, report.Compose(res.Profile, res.Issues, &res.Score))
}

func (s *apiServer) handleCPG(w http.ResponseWriter, r *http.Request) {
	analysis := chi.URLParam(r, "analysis")
	q := r.URL.Query()
	table := q.Get("table")
	if table == "" {
		respondError(w, http.StatusBadRequest, eris.New("table query parameter is required"))
		return
	}

	params := cpg.Params{
		City: q.Get("city"),
		Day:  q.Get("day"),
	}
	if v := q.Get("min_confidence"); v != "" {
		fmt.Sscanf(v, "%f", &params.MinConfidence)
	}
	if v := q.Get("min_locations"); v != "" {
		fmt.Sscanf(v, "%d", &params.MinLocations)
	}
	if v := q.Get("top"); v != "" {
		fmt.Sscanf(v, "%d", &params.TopN)
	}
	if v := q.Get("min_cluster_size"); v != "" {
		fmt.Sscanf(v, "%d", &params.MinClusterSize)
	}

	snap, err := cpg.New(s.src, cfg.CPG, cfg.Schema).Run(r.Context(), analysis, table, params)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respond(w, http.StatusOK, struct {
		Analysis string           `json:"analysis"`
		Rows     []map[string]any `json:"rows"`
	}{analysis, snapshotRows(snap)})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respond(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
