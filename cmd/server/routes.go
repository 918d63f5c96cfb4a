package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jwebster45206/town-engine/internal/handlers"
	"github.com/jwebster45206/town-engine/internal/metrics"
	"github.com/jwebster45206/town-engine/internal/middleware"
	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/services"
	"github.com/jwebster45206/town-engine/internal/sim"
)

// routes holds what the HTTP surface is built from. cache may be nil.
type routes struct {
	engine    *sim.Engine
	levels    *rules.Levels
	brain     handlers.CognitionStatus
	cache     services.Cache
	hub       http.Handler
	collector *metrics.Collector
	origins   []string
	logger    *slog.Logger
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Metrics(rt.collector))

	// Handlers check their own methods so a wrong verb gets a JSON 405.
	npcs := handlers.NewNPCHandler(rt.engine, rt.logger)
	level := handlers.NewLevelHandler(rt.levels, rt.logger)
	r.Handle("/health", handlers.NewHealthHandler(rt.cache, rt.brain, rt.engine, rt.logger))
	r.Handle("/metrics", rt.collector.Handler())
	r.Handle("/v1/town", handlers.NewTownHandler(rt.engine, rt.levels, rt.logger))
	r.Mount("/v1/npcs", npcs.Routes())
	r.Handle("/v1/chat", handlers.NewChatHandler(rt.engine, rt.logger))
	r.Handle("/v1/player/intent", handlers.NewPlayerHandler(rt.engine, rt.logger))
	r.Handle("/v1/level", level)
	r.Handle("/v1/level/*", level)
	r.Handle("/v1/events", rt.hub)
	if rt.cache != nil {
		r.Handle("/v1/events/stream/{session}", handlers.NewEventsHandler(rt.cache.Client(), rt.engine, rt.logger))
	}
	return r
}
