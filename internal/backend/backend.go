// Package backend opens the configured publisher and runs its pre-flight check.
package backend

import (
	"context"
	"fmt"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/awssns"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/kafka"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/mqtt"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/redisstream"
)

// Open creates the publisher selected by cfg.Publisher.Backend and verifies
// connectivity within cfg.Publisher.PreflightTimeout. Any failure is returned
// as a *publisher.ConnectionError.
func Open(ctx context.Context, cfg *config.Config) (publisher.Publisher, error) {
	backend := cfg.Publisher.Backend
	if cfg.Publisher.PreflightTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Publisher.PreflightTimeout)
		defer cancel()
	}

	pub, hint, err := create(ctx, cfg)
	if err != nil {
		return nil, &publisher.ConnectionError{Backend: backend, Hint: hint, Err: err}
	}

	if err := publisher.Preflight(ctx, backend, hint, pub); err != nil {
		pub.Close()
		return nil, err
	}
	return pub, nil
}

func create(ctx context.Context, cfg *config.Config) (publisher.Publisher, string, error) {
	switch cfg.Publisher.Backend {
	case config.BackendSNS:
		pub, err := awssns.NewPublisher(ctx, cfg.SNS)
		if err != nil {
			return nil, awssns.Hint, err
		}
		return pub, awssns.Hint, nil
	case config.BackendKafka:
		pub, err := kafka.NewProducer(cfg.Kafka, cfg.Publisher.Topic)
		if err != nil {
			return nil, kafka.Hint, err
		}
		return pub, kafka.Hint, nil
	case config.BackendMQTT:
		return mqtt.NewPublisher(cfg.MQTT), mqtt.Hint, nil
	case config.BackendRedis:
		return redisstream.NewPublisher(cfg.Redis), redisstream.Hint, nil
	}
	return nil, "", fmt.Errorf("unknown backend %q", cfg.Publisher.Backend)
}
