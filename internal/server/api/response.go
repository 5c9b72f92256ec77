// Package api provides the JSON handlers of the HTTP server.
package api

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
)

// maxBodyBytes bounds request bodies; a frame is a few kilobytes.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// notDetected is returned for frames without any tracked landmark.
type notDetected struct {
	Detected bool   `json:"detected"`
	Error    string `json:"error"`
	Hint     string `json:"hint"`
}

var noPose = notDetected{
	Detected: false,
	Error:    "No pose detected in frame",
	Hint:     "Ensure person is visible and well-lit",
}

// FrameRequest is one frame of landmarks with an optional exercise label.
type FrameRequest struct {
	Landmarks []pose.Point `json:"landmarks"`
	Exercise  string       `json:"exercise,omitempty"`
}

// Frame returns the decoded frame and the parsed exercise. An empty label
// yields form.None. The frame is returned even when the label is rejected.
func (r FrameRequest) Frame() (pose.Frame, form.Kind, error) {
	kind := form.None
	if r.Exercise != "" {
		k, err := form.ParseKind(r.Exercise)
		if err != nil {
			return pose.NewFrame(r.Landmarks), form.None, err
		}
		kind = k
	}
	return pose.NewFrame(r.Landmarks), kind, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Errorf("encode response: %s", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
