// Package server exposes the dataset store over HTTP: the dashboard page, a
// small JSON API, CSV export, health and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/pauloqxm/voce-denuncia/config"
	"github.com/pauloqxm/voce-denuncia/metrics"
	"github.com/pauloqxm/voce-denuncia/services"
	"github.com/pauloqxm/voce-denuncia/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves one Store.
type Server struct {
	cfg    *config.Config
	store  *services.Store
	logger *utils.Logger
	pages  *template.Template
	router chi.Router
	http   *http.Server
}

// New builds the router. The store may be empty; handlers always read its
// current snapshot.
func New(cfg *config.Config, store *services.Store, logger *utils.Logger) (*Server, error) {
	pages, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		pages:  pages,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// One budget for both reload entry points.
	reloadLimit := httprate.LimitByIP(s.cfg.ReloadRateLimit, s.cfg.ReloadRateWindow)

	r.Get("/", s.handleDashboard)
	r.With(reloadLimit).Post("/reload", s.handleDashboardReload)
	r.Get("/export.csv", s.handleExportCSV)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/complaints", s.handleComplaints)
		r.Get("/options", s.handleOptions)
		r.Get("/warnings", s.handleWarnings)
		r.Get("/status", s.handleStatus)
		r.With(reloadLimit).Post("/reload", s.handleReload)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] Listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("[server] Listening on %s", l.Addr())
	return s.http.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
