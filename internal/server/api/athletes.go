package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/store"
)

// AthleteHandler serves stored athlete profiles.
type AthleteHandler struct {
	store *store.Store
}

func NewAthleteHandler(s *store.Store) *AthleteHandler {
	return &AthleteHandler{store: s}
}

func (h *AthleteHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/athletes", h.HandleList).Methods(http.MethodGet).Name("list-athletes")
	r.HandleFunc("/api/athletes", h.HandleCreate).Methods(http.MethodPost).Name("create-athlete")
	r.HandleFunc("/api/athletes/{id}", h.HandleGet).Methods(http.MethodGet).Name("get-athlete")
	r.HandleFunc("/api/athletes/{id}", h.HandleDelete).Methods(http.MethodDelete).Name("delete-athlete")
}

type createAthleteRequest struct {
	Name        string `json:"name"`
	Flexibility string `json:"flexibility"`
	Age         *int   `json:"age"`
}

type listAthletesResponse struct {
	Athletes []*store.Athlete `json:"athletes"`
}

func (h *AthleteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.store.Athletes().List(r.Context())
	if err != nil {
		log.Errorf("list athletes: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to list athletes")
		return
	}
	writeJSON(w, http.StatusOK, listAthletesResponse{Athletes: athletes})
}

func (h *AthleteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAthleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	profile := athlete.Profile{Flexibility: req.Flexibility, Age: req.Age}
	if err := profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := &store.Athlete{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Flexibility: req.Flexibility,
		Age:         req.Age,
	}
	if err := h.store.Athletes().Create(r.Context(), a); err != nil {
		log.Errorf("create athlete: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to create athlete")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AthleteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Athletes().GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "athlete not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get athlete")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AthleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Athletes().Delete(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "athlete not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete athlete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
