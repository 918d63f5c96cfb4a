package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/logger"
	"github.com/jwebster45206/town-engine/internal/metrics"
	"github.com/jwebster45206/town-engine/internal/middleware"
	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/services"
	"github.com/jwebster45206/town-engine/internal/services/events"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/internal/telemetry"
	"github.com/jwebster45206/town-engine/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Town Engine",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	tw := config.DefaultTown()
	if cfg.TownFile != "" {
		if tw, err = config.LoadTown(cfg.TownFile); err != nil {
			logger.WithError(log, err).Error("Failed to load town", "path", cfg.TownFile)
			os.Exit(1)
		}
	}

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		logger.WithError(log, err).Error("Failed to create LLM service")
		os.Exit(1)
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		logger.WithError(log, err).Error("Failed to initialize LLM model", "model", cfg.ModelName)
		os.Exit(1)
	}

	locations := make([]string, len(tw.Buildings))
	for i, b := range tw.Buildings {
		locations[i] = b.Name
	}
	gateway, err := cognition.NewGateway(llmService, locations, log)
	if err != nil {
		logger.WithError(log, err).Error("Failed to create cognition gateway")
		os.Exit(1)
	}
	collector := metrics.NewCollector("town")
	brain := cognition.NewGuard(gateway, tw.Tuning.RateLimitCoolOff, log)
	brain.SetRecorder(collector)

	// Optional redis: health reporting, Pub/Sub fan-out and the SSE stream
	var cache services.Cache
	sinks := []sim.Sink{collector}
	if cfg.RedisURL != "" {
		redisService, err := services.NewRedisService(cfg.RedisURL, log)
		if err != nil {
			logger.WithError(log, err).Error("Invalid REDIS_URL")
			os.Exit(1)
		}
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = redisService.WaitForConnection(waitCtx)
		waitCancel()
		if err != nil {
			logger.WithError(log, err).Error("Failed to connect to redis")
			os.Exit(1)
		}
		cache = redisService
		sinks = append(sinks, events.NewPublisher(redisService.Client(), log))
	}

	output, err := telemetry.NewOutputManager(cfg.OutputDir, log)
	if err != nil {
		logger.WithError(log, err).Error("Failed to create output directory", "dir", cfg.OutputDir)
		os.Exit(1)
	}
	if output != nil {
		if err := output.WriteTown(tw); err != nil {
			log.Warn("Failed to write town.yaml", "error", err)
		}
		sinks = append(sinks, output)
	}

	// The hub reads snapshots from the engine, which is built after it.
	var engine *sim.Engine
	hub := ws.NewHub(func() sim.Snapshot { return engine.Snapshot() }, log)
	sinks = append(sinks, hub)

	fanout := events.NewFanout(1024, log, sinks...)
	levels := rules.New(fanout, rules.DefaultGoals, tw.Tuning.PlayerCooldown, log)

	engine, err = sim.New(sim.Options{
		Town:             tw,
		Cognition:        brain,
		Sink:             levels,
		Logger:           log,
		TickRate:         cfg.TickRate,
		DayLength:        cfg.DayLength,
		ThoughtInterval:  cfg.ThoughtInterval,
		CognitionTimeout: cfg.CognitionTimeout,
		Seed:             cfg.Seed,
	})
	if err != nil {
		logger.WithError(log, err).Error("Failed to create simulation")
		os.Exit(1)
	}
	levels.Bind(engine)

	collector.Gauge("events_dropped", "Events dropped because the fan-out buffer was full", func() float64 {
		return float64(fanout.Dropped())
	})
	collector.Gauge("ws_clients", "Connected websocket clients", func() float64 {
		return float64(hub.Clients())
	})
	collector.Gauge("sim_tick", "Ticks completed in the current session", func() float64 {
		return float64(engine.Snapshot().Tick)
	})

	router := newRouter(routes{
		engine:    engine,
		levels:    levels,
		brain:     brain,
		cache:     cache,
		hub:       hub,
		collector: collector,
		origins:   cfg.CORSOrigins,
		logger:    log,
	})

	// Tuning edits apply live in development. Residents and buildings need a restart.
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.TownFile != "" && cfg.Environment == "development" {
		err := config.WatchTown(watchCtx, cfg.TownFile, log, func(next *config.Town) {
			engine.SetTuning(next.Tuning)
		})
		if err != nil {
			log.Warn("Town hot reloading unavailable", "error", err)
		}
	}

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, router),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable streaming - streaming endpoints handle their own timeouts
		IdleTimeout: 60 * time.Second,
	}

	simCtx, simCancel := context.WithCancel(context.Background())
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		if err := engine.Run(simCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(log, err).Error("Simulation stopped unexpectedly")
		}
	}()
	logger.WithSession(log, engine.Snapshot().Session).Info("Simulation started", "residents", len(tw.Residents))

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	watchCancel()
	simCancel()
	<-simDone
	fanout.Close()

	if err := output.Close(); err != nil {
		log.Error("Error closing output files", "error", err)
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Error closing redis connection", "error", err)
		}
	}

	log.Info("Server exited")
}
