package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the proxy endpoints
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/publish-sensor-data", s.publishSensorData).Methods(http.MethodPost)

	return r
}
