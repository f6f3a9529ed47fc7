package models

import (
	"errors"
	"time"
)

// TimestampLayout is the UTC ISO-8601 layout used for SensorReading.Timestamp
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Thresholds a downstream alerting consumer applies to published readings
const (
	HighTemperatureThreshold = 30.0
	LowTemperatureThreshold  = 10.0
	HighHumidityThreshold    = 80.0
	LowHumidityThreshold     = 20.0
)

// Alert codes returned by ExpectedAlerts
const (
	AlertHighTemperature = "HIGH_TEMPERATURE"
	AlertLowTemperature  = "LOW_TEMPERATURE"
	AlertHighHumidity    = "HIGH_HUMIDITY"
	AlertLowHumidity     = "LOW_HUMIDITY"
	AlertNone            = "NONE"
)

// ErrMissingSensorID is returned by Validate for readings without a sensor id
var ErrMissingSensorID = errors.New("sensor_id is required")

// SensorReading represents a single synthetic sensor measurement
type SensorReading struct {
	SensorID     string  `json:"sensor_id"`
	Location     string  `json:"location"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	Timestamp    string  `json:"timestamp"`
	BatteryLevel float64 `json:"battery_level"`
}

// Subject returns the message subject used when publishing the reading
func (r SensorReading) Subject() string {
	return "Sensor Data from " + r.SensorID
}

// Validate checks that the reading identifies its sensor
func (r SensorReading) Validate() error {
	if r.SensorID == "" {
		return ErrMissingSensorID
	}
	return nil
}

// ExpectedAlerts lists the alerts a threshold consumer should raise for r
func (r SensorReading) ExpectedAlerts() []string {
	var alerts []string
	if r.Temperature > HighTemperatureThreshold {
		alerts = append(alerts, AlertHighTemperature)
	}
	if r.Temperature < LowTemperatureThreshold {
		alerts = append(alerts, AlertLowTemperature)
	}
	if r.Humidity > HighHumidityThreshold {
		alerts = append(alerts, AlertHighHumidity)
	}
	if r.Humidity < LowHumidityThreshold {
		alerts = append(alerts, AlertLowHumidity)
	}
	if len(alerts) == 0 {
		return []string{AlertNone}
	}
	return alerts
}

// RunSummary represents the outcome of one simulator run
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Attempted  int       `json:"attempted"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Anomalies  int       `json:"anomalies"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
