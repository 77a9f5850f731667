// Package httpapi exposes the entity store to external callers. The
// ingestion loop writes through the store directly; everything here is the
// read/upsert surface the rest of the platform consumes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"telemetryd/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	repo *store.Repo
}

func New(repo *store.Repo) *Server {
	return &Server{repo: repo}
}

type apiDescription struct {
	Description   string `json:"description"`
	ValueTypeLink string `json:"value_type_link"`
	ValueLink     string `json:"value_link"`
}

type valueTypeRequest struct {
	TypeName string `json:"type_name"`
	TypeUnit string `json:"type_unit"`
}

type deviceRequest struct {
	ID                int    `json:"id"`
	DeviceName        string `json:"device_name"`
	DeviceDescription string `json:"device_description"`
	LocationID        int    `json:"location_id"`
}

type locationRequest struct {
	ID                  int    `json:"id"`
	LocationName        string `json:"location_name"`
	LocationDescription string `json:"location_description"`
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(requestID)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/type", s.handleListTypes)
	r.Get("/type/{id}", s.handleGetType)
	r.Put("/type/{id}", s.handlePutType)

	r.Get("/value", s.handleGetValues)

	r.Get("/devices", s.handleListDevices)
	r.Get("/device/{id}", s.handleGetDevice)
	r.Post("/device", s.handlePostDevice)
	r.Get("/devicevalues/{id}", s.handleDeviceValues)

	r.Get("/locations", s.handleListLocations)
	r.Get("/location/{id}", s.handleGetLocation)
	r.Post("/location", s.handlePostLocation)
	r.Get("/locationvalues/{id}", s.handleLocationValues)

	return r
}

// requestID tags every response so log lines can be correlated across
// services.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiDescription{
		Description:   "telemetryd api",
		ValueTypeLink: "/type",
		ValueLink:     "/value",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.repo.GetValueTypes(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	vt, err := s.repo.GetValueType(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

func (s *Server) handlePutType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req valueTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	vt, err := s.repo.UpsertValueType(r.Context(), id, req.TypeName, req.TypeUnit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.ValueFilter

	typeID, err := intParam(q.Get("type_id"))
	if err != nil {
		http.Error(w, "invalid type_id", http.StatusBadRequest)
		return
	}
	f.TypeID = typeID

	deviceID, err := intParam(q.Get("device_id"))
	if err != nil {
		http.Error(w, "invalid device_id", http.StatusBadRequest)
		return
	}
	f.DeviceID = deviceID

	locationID, err := intParam(q.Get("location_id"))
	if err != nil {
		http.Error(w, "invalid location_id", http.StatusBadRequest)
		return
	}
	f.LocationID = locationID

	start, err := int64Param(q.Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	f.Start = start

	end, err := int64Param(q.Get("end"))
	if err != nil {
		http.Error(w, "invalid end", http.StatusBadRequest)
		return
	}
	f.End = end

	values, err := s.repo.GetValues(r.Context(), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.repo.GetDevices(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dev, err := s.repo.GetDevice(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handlePostDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	dev, err := s.repo.UpsertDevice(r.Context(), req.ID, req.DeviceName, req.DeviceDescription, req.LocationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeviceValues(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	values, err := s.repo.GetDeviceValues(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.repo.GetLocations(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loc, err := s.repo.GetLocation(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handlePostLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	loc, err := s.repo.UpsertLocation(r.Context(), req.ID, req.LocationName, req.LocationDescription)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleLocationValues(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	values, err := s.repo.GetLocationValues(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func intParam(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func int64Param(v string) (*int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrIntegrityViolation):
		http.Error(w, "conflict", http.StatusConflict)
	default:
		slog.Error("store query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
