package influxdb

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/models"
)

// Hint is shown when InfluxDB cannot be reached
const Hint = "Check INFLUXDB_URL and INFLUX_TOKEN, or unset INFLUXDB_URL to disable the audit log"

// Measurements written by the recorder
const (
	ReadingMeasurement = "simulated_reading"
	RunMeasurement     = "simulation_run"
)

// Client records published readings and run summaries to InfluxDB v2
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	config   config.InfluxDBConfig
}

// NewClient initializes the InfluxDB v2 client and verifies connectivity
func NewClient(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Add a health check to verify the server is reachable
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		config:   cfg,
	}
	go logErrors(c.writeAPI.Errors())

	log.Printf("InfluxDB audit log enabled (bucket %s)", cfg.Bucket)
	return c, nil
}

// logErrors drains asynchronous write failures
func logErrors(errs <-chan error) {
	for err := range errs {
		log.Printf("InfluxDB write error: %v", err)
	}
}

// RecordReading writes a successfully published reading
func (c *Client) RecordReading(reading models.SensorReading, anomalous bool, messageID string) {
	c.writeAPI.WritePoint(readingPoint(reading, anomalous, messageID))
}

// RecordSummary writes the outcome of a run
func (c *Client) RecordSummary(summary models.RunSummary) {
	c.writeAPI.WritePoint(summaryPoint(summary))
}

// Close flushes pending points and closes the client
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}

func readingPoint(reading models.SensorReading, anomalous bool, messageID string) *write.Point {
	ts, err := time.Parse(models.TimestampLayout, reading.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	return write.NewPoint(
		ReadingMeasurement,
		map[string]string{
			"sensor_id": reading.SensorID,
			"location":  reading.Location,
			"anomalous": strconv.FormatBool(anomalous),
		},
		map[string]interface{}{
			"temperature":   reading.Temperature,
			"humidity":      reading.Humidity,
			"battery_level": reading.BatteryLevel,
			"message_id":    messageID,
		},
		ts, // Using reading timestamp instead of current time
	)
}

func summaryPoint(summary models.RunSummary) *write.Point {
	return write.NewPoint(
		RunMeasurement,
		map[string]string{
			"run_id": summary.RunID,
		},
		map[string]interface{}{
			"attempted":   summary.Attempted,
			"sent":        summary.Sent,
			"failed":      summary.Failed,
			"anomalies":   summary.Anomalies,
			"duration_ms": summary.Duration().Milliseconds(),
		},
		summary.FinishedAt,
	)
}
