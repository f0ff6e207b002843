package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dcfoodblog/backend/internal/config"
	"github.com/dcfoodblog/backend/internal/engine"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router chi.Router
	Auth   config.AuthConfig

	allowedOrigins []string
}

func NewServer(eng *engine.Engine, cfg *config.Config, logger *logrus.Entry) *Server {
	s := &Server{
		Engine:         eng,
		Logger:         logger.WithField("component", "api"),
		Router:         chi.NewRouter(),
		Auth:           cfg.Auth,
		allowedOrigins: cfg.Server.AllowedOrigins,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(withCORS(s.allowedOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/search", s.handleSearch)
		r.Get("/restaurants/compare", s.handleCompare)
		r.Post("/restaurants/{id}/claim", s.handleStartClaim)
		r.Post("/restaurants/{id}/claim/verify", s.handleVerifyClaim)
		r.Post("/generate", s.handleGenerate)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/digest", s.handleDigest)
			r.Post("/activities", s.handleRecordActivity)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/restaurants/{id}/analytics", s.handleAnalytics)
				r.Post("/reviews/{id}/notify", s.handleNotifyReview)
			})
		})
	})
}

// HTTPServer wraps the router in an http.Server listening on addr
func (s *Server) HTTPServer(addr string, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
