// Package telemetry records a session's events to disk for later analysis.
package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/sim"
)

// EventRecord is one row of events.csv.
type EventRecord struct {
	Session   string  `csv:"session"`
	Seq       uint64  `csv:"seq"`
	Time      float64 `csv:"time"`
	Type      string  `csv:"type"`
	NPCID     string  `csv:"npc_id"`
	PartnerID string  `csv:"partner_id"`
	Location  string  `csv:"location"`
	Kind      string  `csv:"kind"`
	Hour      float64 `csv:"hour"`
	Period    string  `csv:"period"`
	Level     int     `csv:"level"`
	Text      string  `csv:"text"`
}

// RecordOf flattens an event into a CSV row.
func RecordOf(ev sim.Event) EventRecord {
	return EventRecord{
		Session:   ev.Session,
		Seq:       ev.Seq,
		Time:      ev.Time,
		Type:      string(ev.Type),
		NPCID:     ev.NPCID,
		PartnerID: ev.PartnerID,
		Location:  ev.Location,
		Kind:      string(ev.Kind),
		Hour:      ev.Hour,
		Period:    string(ev.Period),
		Level:     ev.Level,
		Text:      ev.Text,
	}
}

// OutputManager writes events.csv and town.yaml into an output directory.
type OutputManager struct {
	dir    string
	logger *slog.Logger

	mu            sync.Mutex
	eventsFile    *os.File
	headerWritten bool
	written       int
}

// NewOutputManager creates the output directory and events.csv.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string, logger *slog.Logger) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}

	return &OutputManager{dir: dir, logger: logger, eventsFile: f}, nil
}

// WriteTown saves the town the session runs on as YAML.
func (om *OutputManager) WriteTown(t *config.Town) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling town: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "town.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing town.yaml: %w", err)
	}
	return nil
}

// WriteEvent appends one event to events.csv.
func (om *OutputManager) WriteEvent(ev sim.Event) error {
	if om == nil {
		return nil
	}

	om.mu.Lock()
	defer om.mu.Unlock()
	if om.eventsFile == nil {
		return fmt.Errorf("output closed")
	}

	records := []EventRecord{RecordOf(ev)}
	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		om.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
	}
	om.written++
	return nil
}

// Publish implements sim.Sink. Write failures are logged.
func (om *OutputManager) Publish(ev sim.Event) {
	if err := om.WriteEvent(ev); err != nil {
		om.logger.Warn("Failed to record event", "error", err, "event_type", ev.Type)
	}
}

// Written returns the number of events recorded.
func (om *OutputManager) Written() int {
	if om == nil {
		return 0
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	return om.written
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if om.eventsFile == nil {
		return nil
	}
	err := om.eventsFile.Close()
	om.eventsFile = nil
	return err
}
