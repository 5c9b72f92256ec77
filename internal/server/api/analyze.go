package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/recognize"
)

// AnalyzeHandler serves stateless single-frame analysis.
type AnalyzeHandler struct{}

func NewAnalyzeHandler() *AnalyzeHandler {
	return &AnalyzeHandler{}
}

func (h *AnalyzeHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/exercises", h.HandleExercises).Methods(http.MethodGet).Name("exercises")
	r.HandleFunc("/api/analyze", h.HandleAnalyze).Methods(http.MethodPost).Name("analyze")
}

type exercisesResponse struct {
	Exercises []string `json:"exercises"`
}

func (h *AnalyzeHandler) HandleExercises(w http.ResponseWriter, _ *http.Request) {
	resp := exercisesResponse{}
	for _, k := range form.Kinds() {
		resp.Exercises = append(resp.Exercises, k.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyzeResponse struct {
	Detected bool   `json:"detected"`
	Exercise string `json:"exercise"`
	form.Report
}

// HandleAnalyze analyzes one frame. Without an exercise label the exercise
// is guessed from the frame alone; an unrecognized label yields a neutral
// report.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req FrameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, kind, err := req.Frame()
	if err != nil {
		kind = form.None
	}
	if f.Empty() {
		writeJSON(w, http.StatusOK, noPose)
		return
	}
	if req.Exercise == "" {
		kind = recognize.QuickDetect(f)
	}

	report := form.Neutral(f)
	if kind.Valid() {
		report, _ = form.Analyze(kind, f)
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Detected: true,
		Exercise: kind.String(),
		Report:   report,
	})
}
