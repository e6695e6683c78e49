package handler

import (
	"net/http"

	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/middleware"
)

type messageResponse struct {
	Message string `json:"message"`
}

// DataHandler answers the data endpoints with a pointer to the static JSON
// file that actually carries the data.
type DataHandler struct{}

func NewDataHandler() *DataHandler {
	return &DataHandler{}
}

func (h *DataHandler) KPIData(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "Use /kpi_map.json to access KPI data directly",
	})
}

func (h *DataHandler) PeopleData(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "Use /people_data.json to access people data directly",
	})
}
