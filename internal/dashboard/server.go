// Package dashboard serves the published figures and renders adjustment
// charts on demand for a selected asset or market.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/chart"
	"github.com/KaramelBytes/rentlens-cli/internal/manifest"
	"github.com/KaramelBytes/rentlens-cli/internal/table"
	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Options configures a Server.
type Options struct {
	Addr       string
	FiguresDir string
	// Featured markets have their pre-rendered charts shown on the page.
	Featured []string
	Renderer *chart.Renderer
}

// Server holds the prepared dataset for the lifetime of the process.
type Server struct {
	ds      *baseline.Dataset
	opt     Options
	tmpl    *template.Template
	markets []string
	assets  []string

	// mu serializes chart renders; the renderer writes shared files.
	mu sync.Mutex

	reg           *prometheus.Registry
	renders       *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
}

// New prepares a server over ds. The dataset must not be modified afterwards.
func New(ds *baseline.Dataset, opt Options) (*Server, error) {
	if opt.Renderer == nil {
		return nil, eris.New("dashboard: renderer is required")
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: parse template")
	}
	s := &Server{
		ds:      ds,
		opt:     opt,
		tmpl:    tmpl,
		markets: ds.Markets(),
		assets:  ds.Assets(),
		reg:     prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentlens_chart_renders_total",
			Help: "On-demand adjustment chart renders by mode and outcome.",
		}, []string{"mode", "outcome"}),
		renderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentlens_chart_render_seconds",
			Help:    "Time spent rendering one adjustment chart.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	s.reg.MustRegister(s.renders, s.renderSeconds)
	return s, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/adjustments", s.handleAdjustments)
	r.Handle("/figures/*", http.StripPrefix("/figures/", http.FileServer(http.Dir(s.opt.FiguresDir))))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/selections", s.handleSelections)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("dashboard listening", zap.String("addr", s.opt.Addr), zap.Int("records", len(s.ds.Records)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "dashboard: listen")
		}
		return nil
	case <-ctx.Done():
	}
	zap.L().Info("dashboard shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "dashboard: shutdown")
	}
	return nil
}

type figure struct {
	Name    string
	URL     string
	Caption string
	Missing bool
	// Failure is why the last figures run skipped this artifact.
	Failure string
}

type page struct {
	Run            *manifest.Manifest
	Trend          figure
	MarketTable    figure
	PropertyTable  figure
	Featured       []figure
	Markets        []string
	Assets         []string
	SelectedMarket string
	SelectedAsset  string
	Messages       []string
	Charts         []figure
}

func (s *Server) basePage() *page {
	// nil until a figures run has saved a manifest
	run, _ := manifest.Load(s.opt.FiguresDir)
	p := &page{
		Run:           run,
		Trend:         s.runFigure(run, manifest.KindTrend, "acc_over_time", chart.TrendFile, "Acceptance trend", "Rate of acceptance of recommendations over time"),
		MarketTable:   s.runFigure(run, manifest.KindTable, table.MarketName, table.MarketName+".png", "Market table", "Acceptance by market"),
		PropertyTable: s.runFigure(run, manifest.KindTable, table.PropertyName, table.PropertyName+".png", "Property table", ""),
		Markets:       s.markets,
		Assets:        s.assets,
	}
	for _, m := range s.opt.Featured {
		p.Featured = append(p.Featured, s.runFigure(run, manifest.KindChart, m, adjustmentsRel(m), m, "Adjustment trends in "+m))
	}
	return p
}

// runFigure resolves an artifact through the last run's manifest when there
// is one, falling back to the conventional path rel.
func (s *Server) runFigure(run *manifest.Manifest, kind, name, rel, title, caption string) figure {
	if run != nil {
		if a, ok := run.Artifact(kind, name); ok {
			rel = a.Path
		}
	}
	f := s.figure(rel, title, caption)
	if run != nil && f.Missing {
		f.Failure = run.Failures[name]
	}
	return f
}

// figure describes an artifact at rel (slash separated, relative to the
// figures directory).
func (s *Server) figure(rel, name, caption string) figure {
	f := figure{Name: name, Caption: caption, URL: figureURL(rel)}
	if _, err := os.Stat(filepath.Join(s.opt.FiguresDir, filepath.FromSlash(rel))); err != nil {
		f.Missing = true
	}
	return f
}

func adjustmentsRel(name string) string {
	return path.Join(chart.AdjustmentsDir, utils.SanitizeFileName(name)+".png")
}

func figureURL(rel string) string {
	return (&url.URL{Path: "/figures/" + rel}).EscapedPath()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, http.StatusOK, s.basePage())
}

func (s *Server) handleAdjustments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	p := s.basePage()
	p.SelectedAsset = r.PostForm.Get("asset")
	p.SelectedMarket = r.PostForm.Get("market")

	var sels []chart.Selection
	if p.SelectedAsset != "" {
		sels = append(sels, chart.Selection{Asset: p.SelectedAsset})
	}
	if p.SelectedMarket != "" {
		sels = append(sels, chart.Selection{Market: p.SelectedMarket})
	}
	if len(sels) == 0 {
		// let the renderer report the empty selection
		sels = append(sels, chart.Selection{})
	}

	status := http.StatusOK
	for _, sel := range sels {
		rel, err := s.render(sel)
		if err != nil {
			if status == http.StatusOK {
				status = statusFor(err)
			}
			p.Messages = append(p.Messages, messageFor(err))
			continue
		}
		name := sel.Asset + sel.Market
		f := s.figure(rel, name, "")
		f.URL += "?v=" + strconv.FormatInt(time.Now().UnixNano(), 36)
		p.Charts = append(p.Charts, f)
	}
	s.writePage(w, status, p)
}

// render draws one chart and returns its path relative to the figures dir.
func (s *Server) render(sel chart.Selection) (string, error) {
	mode := s.opt.Renderer.Mode().String()
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	_, err := s.opt.Renderer.RenderAdjustments(s.ds.Records, sel)
	s.renderSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.renders.WithLabelValues(mode, outcome).Inc()
	if err != nil {
		zap.L().Warn("chart render failed", zap.String("asset", sel.Asset), zap.String("market", sel.Market), zap.Error(err))
		return "", err
	}
	return adjustmentsRel(sel.Asset + sel.Market), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrNoRecords):
		return http.StatusNotFound
	case errors.Is(err, chart.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrMalformedFloorPlan):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, chart.ErrNoRecords):
		return "No records match that selection."
	case errors.Is(err, chart.ErrInvalidSelection):
		return "Select an asset or a market."
	case errors.Is(err, chart.ErrMalformedFloorPlan):
		return "This asset has floor plan labels that are not in BxB form; try the market chart instead."
	}
	return "Chart could not be rendered."
}

func (s *Server) writePage(w http.ResponseWriter, status int, p *page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, p); err != nil {
		zap.L().Error("render page", zap.Error(err))
	}
}

type selectionsResponse struct {
	Markets []string `json:"markets"`
	Assets  []string `json:"assets"`
}

func (s *Server) handleSelections(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, selectionsResponse{Markets: s.markets, Assets: s.assets})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"records": len(s.ds.Records),
		"markets": len(s.markets),
		"assets":  len(s.assets),
	})
}

// requestLogger logs each request with its status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
