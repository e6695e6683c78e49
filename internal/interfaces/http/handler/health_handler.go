package handler

import (
	"net/http"

	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/middleware"
)

const (
	ServiceName    = "CareOptions for Kids - RCM Dashboard"
	ServiceVersion = "8.5.0"
)

// HealthResponse field order is part of the wire format.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Service string `json:"service"`
}

type HealthHandler struct {
	response HealthResponse
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		response: HealthResponse{
			Status:  "healthy",
			Version: ServiceVersion,
			Service: ServiceName,
		},
	}
}

// Health reports the service identity. It does not inspect dependencies;
// see ProbeHandler.Readiness for that.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.response)
}
