package mockdevice

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/wifi"
)

// APIPath is the API root served by the mock, without the trailing slash.
const APIPath = "/v1"

// maxBody bounds request bodies; the firmware's buffers are far smaller.
const maxBody = 64 << 10

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
}

// handleGetConfig returns the whole configuration document.
// GET /v1/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.device.Config())
}

// handleUpdateConfig merges a partial document into the configuration.
// PUT /v1/config
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	update, err := deviceconfig.ParseDocument(body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.device.Apply(update); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "success")
}

// handleScan lists the access points in range.
// GET /v1/wifi/scan
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wifi.ScanResult{AccessPoints: s.device.Scan()})
}

// handleStripTest runs a strip test with unsaved parameters.
// POST /v1/ledstrip/test, PUT /v1/test (legacy firmware)
func (s *Server) handleStripTest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var params deviceconfig.Section
	if err := json.Unmarshal(body, &params); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.device.TestStrip(params); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "success")
}

// handleDone completes setup.
// GET /v1/done_config
func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	s.device.Finish()
	writeMessage(w, http.StatusOK, "Setup completed")
}
