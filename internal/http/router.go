package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/NanayasWorkshop/MakerManager/internal/http/job"
	"github.com/NanayasWorkshop/MakerManager/internal/http/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/http/material"
	"github.com/NanayasWorkshop/MakerManager/internal/http/scan"
	"github.com/NanayasWorkshop/MakerManager/internal/http/session"
	"github.com/NanayasWorkshop/MakerManager/internal/http/timetrack"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
)

type Handlers struct {
	Session   *session.Handler
	Jobs      *job.Handler
	Materials *material.Handler
	Machines  *machine.Handler
	Time      *timetrack.Handler
	Scan      *scan.Handler
}

type Options struct {
	AllowedOrigins []string
	Auth           *identity.Authenticator
	Metrics        *metrics.Metrics
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
}

func New(v1 Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(opts.Metrics.Middleware)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Auth.Middleware)

		r.Route("/session", func(r chi.Router) {
			v1.Session.Routes(r)
		})

		r.Route("/jobs", func(r chi.Router) {
			v1.Jobs.Routes(r)
		})

		// Stocktake uploads are multipart, so materials accept any content type.
		r.Route("/materials", v1.Materials.Routes)

		r.Route("/machines", func(r chi.Router) {
			v1.Machines.Routes(r)
		})

		r.Route("/time", func(r chi.Router) {
			v1.Time.Routes(r)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			v1.Scan.Routes(r)
		})
	})

	return router
}
