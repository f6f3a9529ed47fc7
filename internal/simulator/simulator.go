package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/generator"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/models"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Recorder receives every published reading and the final run summary
type Recorder interface {
	RecordReading(reading models.SensorReading, anomalous bool, messageID string)
	RecordSummary(summary models.RunSummary)
}

// Observer receives the outcome of every publish call
type Observer interface {
	ObservePublish(sensor string, anomalous bool, took time.Duration, err error)
}

// Simulator generates readings for a fixed roster and publishes them round by round
type Simulator struct {
	cfg       config.SimulatorConfig
	topic     string
	publisher publisher.Publisher
	rng       *rand.Rand
	generator *generator.Generator
	reporter  *Reporter
	recorder  Recorder
	observer  Observer
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	newRunID  func() string
}

// Option customises a Simulator
type Option func(*Simulator)

// WithRand sets the random source shared by the anomaly draw and the generator
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithReporter sets the console reporter
func WithReporter(r *Reporter) Option {
	return func(s *Simulator) { s.reporter = r }
}

// WithRecorder sets an audit recorder
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithObserver sets a publish observer, typically the metrics collectors
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithClock sets the clock used for timestamps and the run summary
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithSleep replaces the inter-round pause
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Simulator) { s.sleep = sleep }
}

// New creates a simulator publishing to topic through pub. cfg must already
// be validated.
func New(cfg config.SimulatorConfig, topic string, pub publisher.Publisher, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:       cfg,
		topic:     topic,
		publisher: pub,
		reporter:  NewReporter(nil),
		sleep:     sleepContext,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = generator.NewSource(cfg.Seed)
	}
	s.generator = generator.NewWithClock(s.rng, s.now)
	return s
}

// Run executes all rounds. Failed publishes are reported and skipped. When
// ctx is cancelled the run stops early and returns the partial summary with
// ctx.Err().
func (s *Simulator) Run(ctx context.Context) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
	}
	s.reporter.Start(s.topic, s.cfg)

	err := s.rounds(ctx, &summary)

	summary.FinishedAt = s.now()
	if s.recorder != nil {
		s.recorder.RecordSummary(summary)
	}
	s.reporter.Summary(summary, err != nil)
	return summary, err
}

func (s *Simulator) rounds(ctx context.Context, summary *models.RunSummary) error {
	for round := 0; round < s.cfg.Rounds; round++ {
		for _, sensorID := range s.cfg.Sensors {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.publishOne(ctx, sensorID, summary)
		}

		if round < s.cfg.Rounds-1 {
			s.reporter.Waiting(s.cfg.Interval)
			if err := s.sleep(ctx, s.cfg.Interval); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulator) publishOne(ctx context.Context, sensorID string, summary *models.RunSummary) {
	anomalous := s.rng.Float64() < s.cfg.AnomalyChance
	reading := s.generator.Generate(sensorID, anomalous)

	summary.Attempted++
	messageID, took, err := s.send(ctx, reading)
	if s.observer != nil {
		s.observer.ObservePublish(sensorID, anomalous, took, err)
	}
	if err != nil {
		summary.Failed++
		log.Printf("Error sending data from %s (%s): %v", sensorID, publisher.KindOf(err), err)
		return
	}

	summary.Sent++
	s.reporter.Sent(reading, messageID)
	if anomalous {
		summary.Anomalies++
		s.reporter.Anomaly(reading)
	}
	if s.recorder != nil {
		s.recorder.RecordReading(reading, anomalous, messageID)
	}
}

func (s *Simulator) send(ctx context.Context, reading models.SensorReading) (string, time.Duration, error) {
	body, err := json.Marshal(reading)
	if err != nil {
		return "", 0, publisher.NewError("encode reading", publisher.KindRejected, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	start := time.Now()
	id, err := s.publisher.Publish(pubCtx, publisher.Message{
		Topic:   s.topic,
		Key:     reading.SensorID,
		Subject: reading.Subject(),
		Body:    body,
	})
	if err != nil {
		return "", time.Since(start), fmt.Errorf("publishing reading: %w", err)
	}
	return id, time.Since(start), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
