package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/logger"
	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/services"
	"github.com/jwebster45206/town-engine/internal/services/events"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/internal/telemetry"
)

// feed is a sim.Sink handing events to the UI. It never blocks; the UI
// catches up from snapshots if it misses any.
type feed chan sim.Event

func (f feed) Publish(ev sim.Event) {
	select {
	case f <- ev:
	default:
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logPath := getEnv("CONSOLE_LOG", "town-console.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.SetupTo(cfg, logFile)

	tw := config.DefaultTown()
	if cfg.TownFile != "" {
		if tw, err = config.LoadTown(cfg.TownFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load town: %v\n", err)
			os.Exit(1)
		}
	}

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM service: %v\n", err)
		os.Exit(1)
	}
	locations := make([]string, len(tw.Buildings))
	for i, b := range tw.Buildings {
		locations[i] = b.Name
	}
	gateway, err := cognition.NewGateway(llmService, locations, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create cognition gateway: %v\n", err)
		os.Exit(1)
	}
	brain := cognition.NewGuard(gateway, tw.Tuning.RateLimitCoolOff, log)

	output, err := telemetry.NewOutputManager(cfg.OutputDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	defer output.Close()

	ui := make(feed, 512)
	sinks := []sim.Sink{ui}
	if output != nil {
		sinks = append(sinks, output)
	}
	fanout := events.NewFanout(1024, log, sinks...)
	levels := rules.New(fanout, rules.DefaultGoals, tw.Tuning.PlayerCooldown, log)

	engine, err := sim.New(sim.Options{
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
		fmt.Fprintf(os.Stderr, "Failed to create simulation: %v\n", err)
		os.Exit(1)
	}
	levels.Bind(engine)

	ctx, cancel := context.WithCancel(context.Background())
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Simulation stopped unexpectedly", "error", err)
		}
	}()

	p := tea.NewProgram(NewConsoleUI(engine, levels, brain, ui),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	_, runErr := p.Run()

	cancel()
	<-simDone
	fanout.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
