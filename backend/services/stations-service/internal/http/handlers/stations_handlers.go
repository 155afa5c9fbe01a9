package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/presentation"
	"evmap/backend/services/stations-service/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// StationService is what the handlers need from the aggregator.
type StationService interface {
	Data(ctx context.Context) (service.Snapshot, error)
	Refresh(ctx context.Context, trigger string) (models.RefreshRun, error)
	History(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

// StationsHandlers serves the station data and the map page.
type StationsHandlers struct {
	svc      StationService
	mapToken string
	logger   *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(svc StationService, mapToken string, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{svc: svc, mapToken: mapToken, logger: logger}
}

func (h *StationsHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := writeJSON(w, status, payload); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

type dataResponse struct {
	Success     bool                     `json:"success"`
	TeamEnergy  []models.ChargingStation `json:"teamEnergy"`
	EvanCharge  []models.ChargingStation `json:"evanCharge"`
	Stations    []models.ChargingStation `json:"stations"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Degraded    bool                     `json:"degraded"`
}

// Data handles GET /api/data.
func (h *StationsHandlers) Data(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Data(r.Context())
	if err != nil {
		h.logger.Error("failed to load station data", zap.Error(err))
		writeErrorDetails(w, http.StatusInternalServerError, "failed to load data", err.Error())
		return
	}

	stations := snap.Stations
	if stations == nil {
		stations = []models.ChargingStation{}
	}
	h.writeJSON(w, http.StatusOK, dataResponse{
		Success:     true,
		TeamEnergy:  snap.Vendor(models.BrandTeamEnergy),
		EvanCharge:  snap.Vendor(models.BrandEvanCharge),
		Stations:    stations,
		LastUpdated: snap.LastUpdated,
		Degraded:    snap.Degraded,
	})
}

type refreshResponse struct {
	Success   bool                          `json:"success"`
	Message   string                        `json:"message"`
	Timestamp time.Time                     `json:"timestamp"`
	Stats     map[string]models.VendorStats `json:"stats"`
	Failures  map[string]string             `json:"failures,omitempty"`
}

// Refresh handles GET and POST /api/refresh.
func (h *StationsHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Refresh(r.Context(), service.TriggerManual)
	switch {
	case err == nil:
	case service.IsRefreshFailure(err):
		writeErrorDetails(w, http.StatusInternalServerError, "failed to refresh data", run.Failures)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "refresh still running")
		return
	default:
		h.logger.Error("refresh failed", zap.Error(err))
		writeErrorDetails(w, http.StatusInternalServerError, "failed to refresh data", err.Error())
		return
	}

	message := "Data refreshed successfully"
	if len(run.Failures) > 0 {
		message = "Data partially refreshed"
	}
	h.writeJSON(w, http.StatusOK, refreshResponse{
		Success:   true,
		Message:   message,
		Timestamp: run.FinishedAt,
		Stats:     run.Stats,
		Failures:  run.Failures,
	})
}

type stationsResponse struct {
	Success     bool                          `json:"success"`
	Filters     models.ChargingStationFilters `json:"filters"`
	Stations    []models.ChargingStation      `json:"stations"`
	Markers     []presentation.Marker         `json:"markers"`
	Bounds      *presentation.Bounds          `json:"bounds,omitempty"`
	Query       string                        `json:"query"`
	Selected    string                        `json:"selected,omitempty"`
	LastUpdated time.Time                     `json:"lastUpdated"`
	Degraded    bool                          `json:"degraded"`
}

// Stations handles GET /api/stations with optional filter query.
func (h *StationsHandlers) Stations(w http.ResponseWriter, r *http.Request) {
	filters, err := presentation.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.svc.Data(r.Context())
	if err != nil {
		h.logger.Error("failed to load station data", zap.Error(err))
		writeErrorDetails(w, http.StatusInternalServerError, "failed to load data", err.Error())
		return
	}

	view := presentation.NewMapView(snap.Stations, filters)
	resp := stationsResponse{
		Success:     true,
		Filters:     filters,
		Query:       presentation.Query(filters).Encode(),
		Stations:    view.Stations(),
		LastUpdated: snap.LastUpdated,
		Degraded:    snap.Degraded,
	}
	if key := r.URL.Query().Get("selected"); key != "" {
		view.Select(key)
	}
	if st, ok := view.Selected(); ok {
		resp.Selected = st.Key()
	}
	resp.Markers = view.Markers()
	if resp.Stations == nil {
		resp.Stations = []models.ChargingStation{}
	}
	if b, ok := view.Bounds(); ok {
		resp.Bounds = &b
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Popup handles GET /api/stations/{vendor}/{id}/popup. Station ids are only
// unique per network, so the vendor key is part of the path.
func (h *StationsHandlers) Popup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	brand, ok := models.BrandFromKey(vars["vendor"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown vendor")
		return
	}
	id := vars["id"]

	snap, err := h.svc.Data(r.Context())
	if err != nil {
		h.logger.Error("failed to load station data", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load data")
		return
	}

	for _, st := range snap.Vendor(brand) {
		if st.ID != id {
			continue
		}
		html, err := presentation.Popup(st)
		if err != nil {
			h.logger.Error("failed to render popup", zap.String("station", st.Key()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to render popup")
			return
		}
		writeHTML(w, http.StatusOK, []byte(html))
		return
	}
	writeError(w, http.StatusNotFound, "station not found")
}

// History handles GET /api/refresh/history.
func (h *StationsHandlers) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load refresh history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if runs == nil {
		runs = []models.RefreshRun{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "runs": runs})
}

// Index handles GET / with the map page.
func (h *StationsHandlers) Index(w http.ResponseWriter, r *http.Request) {
	page := presentation.PageData{MapToken: h.mapToken}
	if filters, err := presentation.ParseFilters(r.URL.Query()); err == nil {
		page.Filters = filters
	} else {
		h.logger.Debug("ignoring invalid filters on map page", zap.Error(err))
	}

	if snap, err := h.svc.Data(r.Context()); err != nil {
		h.logger.Warn("map page rendered without data", zap.Error(err))
	} else {
		page.Degraded = snap.Degraded
		page.LastUpdated = snap.LastUpdated
		page.Stations = len(snap.Stations)
	}

	var buf bytes.Buffer
	if err := presentation.WriteIndex(&buf, page); err != nil {
		h.logger.Error("failed to render map page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}
