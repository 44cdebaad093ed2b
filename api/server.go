// Package api exposes the analysis service over HTTP. Full results are held
// in memory by run id; only summaries go through the repository.
package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"plskit/app"
	"plskit/domain/pls"
	"plskit/internal"
)

// Server wires the analysis service into a chi router.
type Server struct {
	router     *chi.Mux
	svc        *app.AnalysisService
	defaultCfg pls.Config
	log        *internal.Logger

	mu      sync.RWMutex
	results map[string]*pls.Result
}

// NewServer creates the HTTP server around an analysis service. defaults is
// the base run configuration that request bodies overlay.
func NewServer(svc *app.AnalysisService, defaults pls.Config, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	s := &Server{
		router:     chi.NewRouter(),
		svc:        svc,
		defaultCfg: defaults,
		log:        log,
		results:    make(map[string]*pls.Result),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses/behavioral", s.handleBehavioral)
		r.Post("/analyses/meancentered", s.handleMeanCentered)
		r.Get("/analyses", s.handleList)
		r.Get("/analyses/{id}", s.handleGet)
		r.Get("/analyses/{id}/report", s.handleReport)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP on the given port.
func (s *Server) Start(port string) error {
	s.log.Info("starting API server on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) store(res *pls.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.RunID] = res
}

func (s *Server) lookup(id string) (*pls.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}
