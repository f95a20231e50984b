package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
	"laf/internal/service/mapquery"
)

// MapService is the slice of the map query engine the handler needs.
type MapService interface {
	QueryRegion(ctx context.Context, b geo.Bounds, f item.Filter) (*mapquery.RegionResult, error)
	Statistics(ctx context.Context, r item.TimeRange) (*item.Stats, error)
}

// MapHandler handles map-related HTTP requests.
type MapHandler struct {
	service MapService
	logger  *slog.Logger
}

// NewMapHandler creates a new map handler.
func NewMapHandler(service MapService, logger *slog.Logger) *MapHandler {
	return &MapHandler{
		service: service,
		logger:  logger,
	}
}

// GetMapItems returns listings and the heatmap for a bounded region.
// GET /api/v1/map/items?bounds=minLng,minLat,maxLng,maxLat&type=&timeRange=&category=&status=
func (h *MapHandler) GetMapItems(w http.ResponseWriter, r *http.Request) {
	boundsParam := r.URL.Query().Get("bounds")
	if boundsParam == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_BOUNDS", "missing bounds parameter")
		return
	}

	bounds, err := geo.ParseBounds(boundsParam)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	f := item.Filter{Status: item.StatusActive}

	if t := r.URL.Query().Get("type"); t != "" {
		if !item.Type(t).Valid() {
			respondWithError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be lost or found")
			return
		}
		f.Type = item.Type(t)
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !item.Status(s).Valid() {
			respondWithError(w, http.StatusBadRequest, "INVALID_STATUS", "unknown item status")
			return
		}
		f.Status = item.Status(s)
	}

	tr := item.TimeRange(r.URL.Query().Get("timeRange"))
	if !tr.Valid() {
		respondWithError(w, http.StatusBadRequest, "INVALID_TIME_RANGE", "timeRange must be 7d, 30d, 90d or all")
		return
	}
	f.TimeRange = tr

	f.Category = r.URL.Query().Get("category")

	result, err := h.service.QueryRegion(r.Context(), bounds, f)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, result)
}

// GetMapStatistics returns aggregate listing counts for a trailing window.
// GET /api/v1/map/statistics?timeRange=
func (h *MapHandler) GetMapStatistics(w http.ResponseWriter, r *http.Request) {
	tr := item.TimeRange(r.URL.Query().Get("timeRange"))
	if !tr.Valid() {
		respondWithError(w, http.StatusBadRequest, "INVALID_TIME_RANGE", "timeRange must be 7d, 30d, 90d or all")
		return
	}

	stats, err := h.service.Statistics(r.Context(), tr)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, stats)
}
