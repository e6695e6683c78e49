package handler

import (
	"net/http"
	"strings"
	"time"
)

// CheckedAtHeader carries the time of the last required-asset check.
const CheckedAtHeader = "X-Assets-Checked-At"

// ReadinessChecker is satisfied by assets.Manifest.
type ReadinessChecker interface {
	Ready() bool
	Missing() []string
	CheckedAt() time.Time
}

type ProbeHandler struct {
	readiness ReadinessChecker
}

// NewProbeHandler builds the probe endpoints. A nil checker is always ready.
func NewProbeHandler(readiness ReadinessChecker) *ProbeHandler {
	return &ProbeHandler{readiness: readiness}
}

func (h *ProbeHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (h *ProbeHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	if h.readiness == nil {
		writeText(w, http.StatusOK, "ready")
		return
	}

	if checkedAt := h.readiness.CheckedAt(); !checkedAt.IsZero() {
		w.Header().Set(CheckedAtHeader, checkedAt.UTC().Format(time.RFC3339))
	}
	if h.readiness.Ready() {
		writeText(w, http.StatusOK, "ready")
		return
	}

	writeText(w, http.StatusServiceUnavailable, "not ready: missing "+strings.Join(h.readiness.Missing(), ", "))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
