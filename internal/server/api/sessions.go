package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
)

const (
	summaryCacheSize   = 8 * 1024 * 1024
	summaryCacheExpire = 5 // seconds
)

// SessionHandler serves live sessions and their stored history. The store
// is optional; without it only live sessions are available.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
	cache    *freecache.Cache
}

func NewSessionHandler(sessions *session.Manager, st *store.Store) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		store:    st,
		cache:    freecache.NewCache(summaryCacheSize),
	}
}

func (h *SessionHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.HandleCreate).Methods(http.MethodPost).Name("create-session")
	r.HandleFunc("/api/sessions", h.HandleList).Methods(http.MethodGet).Name("list-sessions")
	r.HandleFunc("/api/sessions/{id}", h.HandleGet).Methods(http.MethodGet).Name("get-session")
	r.HandleFunc("/api/sessions/{id}", h.HandleEnd).Methods(http.MethodDelete).Name("end-session")
	r.HandleFunc("/api/sessions/{id}/frames", h.HandleFrame).Methods(http.MethodPost).Name("session-frame")
	r.HandleFunc("/api/sessions/{id}/results", h.HandleResults).Methods(http.MethodGet).Name("session-results")
}

type createSessionRequest struct {
	AthleteID   string `json:"athlete_id"`
	Flexibility string `json:"flexibility"`
	Age         *int   `json:"age"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := session.CreateOptions{AthleteID: req.AthleteID}
	var user *athlete.Profile
	if req.AthleteID != "" {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "athletes are not available without storage")
			return
		}
		a, err := h.store.Athletes().GetByID(r.Context(), req.AthleteID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown athlete")
			return
		}
		if err != nil {
			log.Errorf("get athlete %s: %s", req.AthleteID, err)
			writeError(w, http.StatusInternalServerError, "failed to load athlete")
			return
		}
		user = &athlete.Profile{Flexibility: a.Flexibility, Age: a.Age}
	}
	if req.Flexibility != "" || req.Age != nil {
		if user == nil {
			user = &athlete.Profile{}
		}
		if req.Flexibility != "" {
			user.Flexibility = req.Flexibility
		}
		if req.Age != nil {
			user.Age = req.Age
		}
	}
	opts.User = user

	s, err := h.sessions.Create(r.Context(), opts)
	if errors.Is(err, athlete.ErrInvalidProfile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Errorf("create session: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: s.ID()})
}

type listSessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

func (h *SessionHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.sessions.List()})
}

type sessionResponse struct {
	Live    *session.Info  `json:"live,omitempty"`
	Summary *store.Summary `json:"summary,omitempty"`
}

func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var resp sessionResponse
	if s, err := h.sessions.Get(id); err == nil {
		info := s.Info()
		resp.Live = &info
	}

	if h.store != nil {
		sum, err := h.summary(r.Context(), id)
		switch {
		case err == nil:
			resp.Summary = sum
		case errors.Is(err, store.ErrNotFound):
		default:
			log.Errorf("summarize session %s: %s", id, err)
			writeError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
	}

	if resp.Live == nil && resp.Summary == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// summary reads a stored session summary through the cache.
func (h *SessionHandler) summary(ctx context.Context, id string) (*store.Summary, error) {
	key := []byte("summary::" + id)
	if cached, err := h.cache.Get(key); err == nil {
		sum := &store.Summary{}
		if err := json.Unmarshal(cached, sum); err == nil {
			log.Tracef("session %s summary served from cache", id)
			return sum, nil
		} else {
			log.Errorf("unmarshal cached summary %s: %s", id, err)
		}
	}

	sum, err := h.store.Results().Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(sum); err == nil {
		if err := h.cache.Set(key, data, summaryCacheExpire); err != nil {
			log.Warnf("cache summary %s: %s", id, err)
		}
	}
	return sum, nil
}

func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	info, err := h.sessions.End(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	h.cache.Del([]byte("summary::" + id))
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req FrameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, ok, err := ProcessFrame(r.Context(), s, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, noPose)
		return
	}
	h.cache.Del([]byte("summary::" + id))
	writeJSON(w, http.StatusOK, res)
}

// ProcessFrame runs one decoded frame through s. It reports false when the
// frame has no tracked landmark; the session is then left untouched.
func ProcessFrame(ctx context.Context, s *session.Session, req FrameRequest) (session.Result, bool, error) {
	f, kind, err := req.Frame()
	if err != nil {
		return session.Result{}, false, err
	}
	if f.Empty() {
		return session.Result{}, false, nil
	}
	return s.Process(ctx, f, session.Options{Exercise: kind}), true, nil
}

type resultsResponse struct {
	Results []store.FrameResult `json:"results"`
}

func (h *SessionHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "storage is disabled")
		return
	}
	id := mux.Vars(r)["id"]

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	if _, err := h.store.Sessions().GetByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	results, err := h.store.Results().ListBySession(r.Context(), id, limit)
	if err != nil {
		log.Errorf("list results %s: %s", id, err)
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: results})
}
