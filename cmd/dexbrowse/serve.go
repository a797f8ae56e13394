package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/browser"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/Sternrassler/dex-browser/pkg/metrics"
	"github.com/Sternrassler/dex-browser/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser state over HTTP",
	Long: `Run one browsing session behind a JSON API.

A frontend posts its viewport to /api/scroll and renders /api/state.
Prometheus metrics are exposed at /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Override listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile, currentOverrides())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ServeAddr = serveAddr
	}
	cfg.setupLogging()
	logger := logging.NewLogger("serve")

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, cleanup, err := newBrowser(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := b.Mount(ctx); err != nil {
		logger.Warn().Err(err).Msg("First page failed, next scroll to the bottom retries it")
	}
	defer b.Unmount()

	srv := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           newRouter(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ServeAddr).Str("base_url", cfg.BaseURL).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// api serves one browser over HTTP.
type api struct {
	b      *browser.Browser
	logger zerolog.Logger
}

func newRouter(b *browser.Browser) chi.Router {
	a := &api{b: b, logger: logging.NewLogger("http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", a.handleState)
		r.Get("/records", a.handleRecords)
		r.Post("/query", a.handleQuery)
		r.Get("/records/{id}", a.handleRecord)
		r.Post("/records/{id}/toggle", a.handleToggle)
		r.Post("/scroll", a.handleScroll)
		r.Post("/compare/mode", a.handleCompareMode)
		r.Post("/compare/select/{id}", a.handleCompareSelect)
		r.Get("/compare", a.handleCompare)
	})
	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (a *api) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.b.Snapshot())
}

// handleRecords lists the records matching q, or the session query when q
// is absent. It never changes the session query.
func (a *api) handleRecords(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		writeJSON(w, http.StatusOK, a.b.Search(q[0]))
		return
	}
	writeJSON(w, http.StatusOK, a.b.Records())
}

type queryRequest struct {
	Query *string `json:"query"`
}

// handleQuery replaces the session query and returns the matching records.
func (a *api) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == nil {
		writeError(w, http.StatusBadRequest, `expected {"query": string}`)
		return
	}
	a.b.SetQuery(*req.Query)
	writeJSON(w, http.StatusOK, a.b.Records())
}

func (a *api) handleRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, found := a.b.Record(id)
	if !found {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.b.ToggleDetails(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	rec, _ := a.b.Record(id)
	writeJSON(w, http.StatusOK, rec)
}

type scrollResponse struct {
	AtBottom bool `json:"at_bottom"`
	Busy     bool `json:"busy"`
	Total    int  `json:"total"`
}

func (a *api) handleScroll(w http.ResponseWriter, r *http.Request) {
	var v pagination.Viewport
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid viewport")
		return
	}
	atBottom := a.b.Scroll(v)
	snap := a.b.Snapshot()
	writeJSON(w, http.StatusAccepted, scrollResponse{
		AtBottom: atBottom,
		Busy:     snap.Busy,
		Total:    snap.Total,
	})
}

type compareModeRequest struct {
	Enabled *bool `json:"enabled"`
}

func (a *api) handleCompareMode(w http.ResponseWriter, r *http.Request) {
	var req compareModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `expected {"enabled": bool}`)
		return
	}
	a.b.SetCompareMode(*req.Enabled)
	a.handleCompare(w, r)
}

type selectResponse struct {
	Changed bool `json:"changed"`
	compareResponse
}

func (a *api) handleCompareSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	changed, err := a.b.Select(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Changed: changed, compareResponse: a.compareState()})
}

type compareResponse struct {
	Mode       bool                `json:"mode"`
	State      string              `json:"state"`
	Selected   []int               `json:"selected"`
	Comparison *browser.Comparison `json:"comparison,omitempty"`
}

func (a *api) compareState() compareResponse {
	snap := a.b.Snapshot()
	return compareResponse{
		Mode:       snap.CompareMode,
		State:      string(snap.CompareState),
		Selected:   snap.Selected,
		Comparison: snap.Comparison,
	}
}

func (a *api) handleCompare(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.compareState())
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
