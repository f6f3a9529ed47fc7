package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/backend"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/influxdb"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/metrics"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/simulator"
)

// swapped in tests
var (
	openPublisher = backend.Open
	openRecorder  = func(ctx context.Context, cfg config.InfluxDBConfig) (recorder, error) {
		return influxdb.NewClient(ctx, cfg)
	}
)

type recorder interface {
	simulator.Recorder
	Close()
}

func main() {
	// Handle termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}

	if err := parseFlags(cfg, args, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	pub, err := openPublisher(ctx, cfg)
	if err != nil {
		reportConnectionError(stderr, err)
		return 1
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Printf("Error closing publisher: %v", err)
		}
	}()

	opts := []simulator.Option{simulator.WithReporter(simulator.NewReporter(stdout))}

	m := metrics.New()
	opts = append(opts, simulator.WithObserver(m))
	if cfg.Metrics.Addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		m.Serve(metricsCtx, cfg.Metrics.Addr)
	}

	if cfg.InfluxDB.Enabled() {
		rec, err := openRecorder(ctx, cfg.InfluxDB)
		if err != nil {
			reportConnectionError(stderr, &publisher.ConnectionError{Backend: "influxdb", Hint: influxdb.Hint, Err: err})
			return 1
		}
		defer rec.Close()
		opts = append(opts, simulator.WithRecorder(rec))
	}

	sim := simulator.New(cfg.Simulator, cfg.Publisher.Topic, pub, opts...)
	if _, err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Simulation stopped: %v", err)
	}
	return 0
}

// parseFlags overlays command line flags on the environment configuration
func parseFlags(cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.Publisher.Topic, "topic-arn", cfg.Publisher.Topic, "target topic (SNS topic ARN, Kafka topic, MQTT topic or Redis stream)")
	fs.StringVar(&cfg.Publisher.Topic, "topic", cfg.Publisher.Topic, "alias for -topic-arn")
	fs.StringVar(&cfg.SNS.Region, "region", cfg.SNS.Region, "AWS region")
	fs.IntVar(&cfg.Simulator.Rounds, "count", cfg.Simulator.Rounds, "number of readings to send per sensor")
	fs.Float64Var(&cfg.Simulator.AnomalyChance, "anomaly-chance", cfg.Simulator.AnomalyChance, "probability of anomalous readings (0.0-1.0)")
	fs.StringVar(&cfg.Publisher.Backend, "backend", cfg.Publisher.Backend, "publish backend: sns, kafka, mqtt or redis")
	fs.DurationVar(&cfg.Simulator.Interval, "interval", cfg.Simulator.Interval, "pause between rounds")
	fs.DurationVar(&cfg.Simulator.PublishTimeout, "publish-timeout", cfg.Simulator.PublishTimeout, "upper bound for a single publish call")
	fs.DurationVar(&cfg.Publisher.PreflightTimeout, "preflight-timeout", cfg.Publisher.PreflightTimeout, "upper bound for the startup connectivity check")
	fs.Uint64Var(&cfg.Simulator.Seed, "seed", cfg.Simulator.Seed, "random seed (0 derives one from the clock)")
	fs.Func("sensors", "comma separated sensor ids", func(v string) error {
		cfg.Simulator.Sensors = config.SplitList(v)
		return nil
	})

	return fs.Parse(args)
}

func reportConnectionError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var connErr *publisher.ConnectionError
	if errors.As(err, &connErr) && connErr.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", connErr.Hint)
	}
}
