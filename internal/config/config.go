package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported publisher backends
const (
	BackendSNS   = "sns"
	BackendKafka = "kafka"
	BackendMQTT  = "mqtt"
	BackendRedis = "redis"
)

// DefaultSensors is the roster used when SIM_SENSORS is not set
var DefaultSensors = []string{"sensor-001", "sensor-002", "sensor-003"}

// Config holds all application configuration
type Config struct {
	Simulator SimulatorConfig
	Publisher PublisherConfig
	SNS       SNSConfig
	Kafka     KafkaConfig
	MQTT      MQTTConfig
	Redis     RedisConfig
	InfluxDB  InfluxDBConfig
	Metrics   MetricsConfig
	Proxy     ProxyConfig
}

// SimulatorConfig holds publisher loop configuration
type SimulatorConfig struct {
	Sensors        []string
	Rounds         int
	AnomalyChance  float64
	Interval       time.Duration
	PublishTimeout time.Duration
	Seed           uint64
}

// PublisherConfig selects the publish backend and target topic
type PublisherConfig struct {
	Backend          string
	Topic            string
	PreflightTimeout time.Duration
}

// SNSConfig holds Amazon SNS configuration
type SNSConfig struct {
	Region   string
	Endpoint string
}

// KafkaConfig holds Kafka-related configuration
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Timeout  time.Duration
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Broker         string
	ClientID       string
	QoS            int
	Retained       bool
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis stream configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	MaxLen   int64
}

// InfluxDBConfig holds InfluxDB-related configuration. The audit recorder
// is disabled when URL is empty.
type InfluxDBConfig struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// Enabled reports whether the audit recorder should be started
func (c InfluxDBConfig) Enabled() bool {
	return c.URL != ""
}

// MetricsConfig holds the optional prometheus endpoint address
type MetricsConfig struct {
	Addr string
}

// ProxyConfig holds the HTTP publish proxy configuration
type ProxyConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Simulator: SimulatorConfig{
			Sensors:        getEnvStringSlice("SIM_SENSORS", DefaultSensors),
			Rounds:         getEnvInt("SIM_COUNT", 10),
			AnomalyChance:  getEnvFloat("SIM_ANOMALY_CHANCE", 0.3),
			Interval:       getEnvDuration("SIM_INTERVAL", 3*time.Second),
			PublishTimeout: getEnvDuration("SIM_PUBLISH_TIMEOUT", 10*time.Second),
			Seed:           getEnvUint("SIM_SEED", 0),
		},
		Publisher: PublisherConfig{
			Backend:          getEnv("SIM_BACKEND", BackendSNS),
			Topic:            getEnv("SIM_TOPIC", ""),
			PreflightTimeout: getEnvDuration("SIM_PREFLIGHT_TIMEOUT", 15*time.Second),
		},
		SNS: SNSConfig{
			Region:   getEnv("AWS_REGION", "us-east-2"),
			Endpoint: getEnv("SNS_ENDPOINT", ""),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ClientID: getEnv("KAFKA_CLIENT_ID", "iot-sensor-simulator"),
			Timeout:  getEnvDuration("KAFKA_TIMEOUT", 10*time.Second),
		},
		MQTT: MQTTConfig{
			Broker:         getEnv("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID:       getEnv("MQTT_CLIENT_ID", "iot-sensor-simulator"),
			QoS:            getEnvInt("MQTT_QOS", 1),
			Retained:       getEnvBool("MQTT_RETAINED", false),
			ConnectTimeout: getEnvDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			MaxLen:   int64(getEnvInt("REDIS_STREAM_MAXLEN", 10000)),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB_URL", ""),
			Org:    getEnv("INFLUXDB_ORG", "iot"),
			Token:  getEnv("INFLUX_TOKEN", ""),
			Bucket: getEnv("INFLUXDB_BUCKET", "sensor-simulator"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Proxy: ProxyConfig{
			Addr:            getEnv("PROXY_ADDR", ":3000"),
			ShutdownTimeout: getEnvDuration("PROXY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
	}, nil
}

// ArgumentError reports an invalid user-supplied setting
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the settings the publisher loop depends on
func (c *Config) Validate() error {
	if c.Simulator.Rounds <= 0 {
		return &ArgumentError{Field: "count", Reason: "must be greater than 0"}
	}
	// written so that NaN fails too
	if !(c.Simulator.AnomalyChance >= 0 && c.Simulator.AnomalyChance <= 1) {
		return &ArgumentError{Field: "anomaly-chance", Reason: "must be between 0.0 and 1.0"}
	}
	if err := c.validatePublisher(); err != nil {
		return err
	}
	if len(c.Simulator.Sensors) == 0 {
		return &ArgumentError{Field: "sensors", Reason: "at least one sensor id is required"}
	}
	for _, id := range c.Simulator.Sensors {
		if strings.TrimSpace(id) == "" {
			return &ArgumentError{Field: "sensors", Reason: "sensor ids must not be empty"}
		}
	}
	if c.Simulator.Interval < 0 {
		return &ArgumentError{Field: "interval", Reason: "must not be negative"}
	}
	if c.Simulator.PublishTimeout <= 0 {
		return &ArgumentError{Field: "publish-timeout", Reason: "must be greater than 0"}
	}
	return nil
}

// ValidatePublisher checks only the backend selection, for the proxy
func (c *Config) ValidatePublisher() error {
	return c.validatePublisher()
}

func (c *Config) validatePublisher() error {
	if c.Publisher.Topic == "" {
		return &ArgumentError{Field: "topic", Reason: "is required"}
	}
	switch c.Publisher.Backend {
	case BackendSNS, BackendKafka, BackendMQTT, BackendRedis:
	default:
		return &ArgumentError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", c.Publisher.Backend)}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return &ArgumentError{Field: "mqtt qos", Reason: "must be 0, 1 or 2"}
	}
	if c.Publisher.PreflightTimeout <= 0 {
		return &ArgumentError{Field: "preflight-timeout", Reason: "must be greater than 0"}
	}
	return nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		return SplitList(value)
	}
	return append([]string(nil), defaultValue...)
}

// SplitList splits a comma separated list and trims each element
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
