package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

func setupRoutes() {
	http.HandleFunc("/record-video", recordVideoHandler)
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/", rootHandler)
}

func recordVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	result, err := recorder.Record(req)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
		case errors.Is(err, ErrRecordingInProgress):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Recording already in progress"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Recording failed",
				"message": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"isRecording":     recorder.IsRecording(),
		"timestamp":       time.Now().Format(time.RFC3339),
		"activeProcesses": recorder.ActiveProcesses(),
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "page-recorder",
		"endpoints": map[string]string{
			"POST /record-video": "record a rendered page to MP4 and publish it",
			"GET /health":        "service health and current job status",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}
