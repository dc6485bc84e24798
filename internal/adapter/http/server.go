// Package http exposes the service as a JSON API. The routing layer is a
// thin adapter; all pipeline behavior lives in internal/service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/croftbox/vidpipe/internal/service"
)

type Server struct {
	router         chi.Router
	videos         *service.VideoService
	annotations    *service.AnnotationService
	eventBus       *service.EventBus
	maxUploadBytes int64
}

func NewServer(
	videos *service.VideoService,
	annotations *service.AnnotationService,
	eventBus *service.EventBus,
	gatherer prometheus.Gatherer,
	allowedOrigins []string,
	maxUploadSizeMB int,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		videos:         videos,
		annotations:    annotations,
		eventBus:       eventBus,
		maxUploadBytes: int64(maxUploadSizeMB) << 20,
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}).Handler)

	s.router.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/videos", s.handleUploadVideo)
		r.Get("/videos/{videoID}", s.handleGetVideo)
		r.Get("/videos/{videoID}/progress", s.handleGetProgress)
		r.Get("/videos/{videoID}/events", s.handleEvents)
		r.Post("/videos/{videoID}/annotations", s.handleCreateAnnotation)
		r.Get("/videos/{videoID}/annotations", s.handleListAnnotations)
		r.Put("/annotations/{annotationID}", s.handleUpdateAnnotation)
		r.Delete("/annotations/{annotationID}", s.handleDeleteAnnotation)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
