package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/models"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

const maxBodyBytes = 64 << 10

// Server publishes sensor readings received over HTTP
type Server struct {
	publisher publisher.Publisher
	topic     string
	now       func() time.Time
}

// NewServer creates a proxy that forwards readings to topic through pub
func NewServer(pub publisher.Publisher, topic string) *Server {
	return &Server{publisher: pub, topic: topic, now: time.Now}
}

// publishRequest distinguishes absent numeric fields from zero values
type publishRequest struct {
	SensorID    string   `json:"sensor_id"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

type publishResponse struct {
	Success        bool     `json:"success"`
	MessageID      string   `json:"messageId"`
	SensorID       string   `json:"sensorId"`
	ExpectedAlerts []string `json:"expectedAlerts"`
	Message        string   `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
		"topic":     s.topic,
	})
}

// publishSensorData validates the posted reading and forwards the body verbatim
func (s *Server) publishSensorData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read request body"})
		return
	}

	var req publishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
		return
	}
	if req.SensorID == "" || req.Temperature == nil || req.Humidity == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields: sensor_id, temperature, humidity"})
		return
	}

	reading := models.SensorReading{SensorID: req.SensorID, Temperature: *req.Temperature, Humidity: *req.Humidity}
	id, err := s.publisher.Publish(r.Context(), publisher.Message{
		Topic:   s.topic,
		Key:     reading.SensorID,
		Subject: reading.Subject(),
		Body:    body,
	})
	if err != nil {
		log.Printf("Error publishing data from %s: %v", reading.SensorID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: string(publisher.KindOf(err))})
		return
	}

	log.Printf("Published data from %s (MessageId: %s)", reading.SensorID, id)
	writeJSON(w, http.StatusOK, publishResponse{
		Success:        true,
		MessageID:      id,
		SensorID:       reading.SensorID,
		ExpectedAlerts: reading.ExpectedAlerts(),
		Message:        "Data published successfully",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
