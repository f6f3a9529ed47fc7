package simulator

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/models"
)

const rule = "------------------------------------------------------------"

// Reporter prints per-message status lines and the run summary
type Reporter struct {
	out io.Writer
}

// NewReporter writes to out, or stdout when out is nil
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

// Start prints the run banner
func (r *Reporter) Start(topic string, cfg config.SimulatorConfig) {
	fmt.Fprintln(r.out, "Starting IoT sensor simulation...")
	fmt.Fprintf(r.out, "Topic: %s\n", topic)
	fmt.Fprintf(r.out, "Sensors: %d (%s)\n", len(cfg.Sensors), strings.Join(cfg.Sensors, ", "))
	fmt.Fprintf(r.out, "Readings per sensor: %d\n", cfg.Rounds)
	fmt.Fprintf(r.out, "Anomaly chance: %.1f%%\n", cfg.AnomalyChance*100)
	fmt.Fprintln(r.out, rule)
}

// Sent prints the status line for a published reading
func (r *Reporter) Sent(reading models.SensorReading, messageID string) {
	fmt.Fprintf(r.out, "Sent data from %s: Temp=%v°C, Humidity=%v%% (MessageId: %s)\n",
		reading.SensorID, reading.Temperature, reading.Humidity, shortID(messageID))
}

// Anomaly prints the notice for a published anomalous reading
func (r *Reporter) Anomaly(reading models.SensorReading) {
	fmt.Fprintf(r.out, "Anomaly generated for %s (expected alerts: %s)\n",
		reading.SensorID, strings.Join(reading.ExpectedAlerts(), ", "))
}

// Waiting prints the inter-round pause notice
func (r *Reporter) Waiting(d time.Duration) {
	fmt.Fprintf(r.out, "Waiting %s...\n", d)
}

// Summary prints the final tally
func (r *Reporter) Summary(s models.RunSummary, interrupted bool) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, strings.Repeat("=", len(rule)))
	if interrupted {
		fmt.Fprintln(r.out, "Simulation interrupted!")
	} else {
		fmt.Fprintln(r.out, "Simulation complete!")
	}
	fmt.Fprintf(r.out, "Total messages sent: %d\n", s.Sent)
	fmt.Fprintf(r.out, "Anomalies generated: %d\n", s.Anomalies)
	if s.Failed > 0 {
		fmt.Fprintf(r.out, "Failed publishes: %d of %d\n", s.Failed, s.Attempted)
	}
	fmt.Fprintf(r.out, "Run ID: %s\n", s.RunID)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
