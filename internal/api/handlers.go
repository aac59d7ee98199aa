package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

type createAlertRequest struct {
	Contact          string  `json:"contact"`
	Symbol           string  `json:"symbol"`
	ThresholdPercent float64 `json:"threshold_percent"`
	Direction        string  `json:"direction"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}

	a, err := s.service.Create(r.Context(), req.Contact, req.Symbol, req.ThresholdPercent, types.Direction(req.Direction))
	if err != nil {
		log.Warnf("alert creation rejected for %q: %v", req.Contact, err)
		writeError(w, httpStatusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"alert":   a,
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	contact := mux.Vars(r)["contact"]

	alerts, err := s.service.List(contact)
	if err != nil {
		log.Errorf("failed to list alerts for %q: %v", contact, err)
		writeError(w, httpStatusFor(err), err)
		return
	}

	if alerts == nil {
		alerts = []types.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
		"count":   len(alerts),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Statistics()
	if err != nil {
		log.Errorf("failed to aggregate statistics: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "token is required",
		})
		return
	}

	stopped, err := s.service.Stop(token)
	if err != nil {
		log.Errorf("failed to stop alert: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !stopped {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "unknown token or alert already inactive",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "alert stopped",
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "token is required",
		})
		return
	}

	done, err := s.service.Unsubscribe(token)
	if err != nil {
		log.Errorf("failed to unsubscribe: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !done {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "unknown token",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "unsubscribed from all alerts",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
