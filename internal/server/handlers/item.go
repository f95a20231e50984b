package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
)

// ItemHandler handles listing CRUD HTTP requests.
type ItemHandler struct {
	store  item.Store
	logger *slog.Logger
}

// NewItemHandler creates a new item handler.
func NewItemHandler(store item.Store, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		store:  store,
		logger: logger,
	}
}

// CreateItem creates a listing with its images and tags in one
// transaction.
// POST /api/v1/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	var req struct {
		Type           item.Type  `json:"type"`
		Title          string     `json:"title"`
		Description    string     `json:"description"`
		Category       string     `json:"category"`
		Latitude       *float64   `json:"latitude"`
		Longitude      *float64   `json:"longitude"`
		LocationID     string     `json:"locationId"`
		LocationDetail string     `json:"location"`
		LostDate       *time.Time `json:"lostDate"`
		ContactInfo    string     `json:"contactInfo"`
		ContactType    string     `json:"contactType"`
		Images         []string   `json:"images"`
		Tags           []string   `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	if !req.Type.Valid() {
		respondWithError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be lost or found")
		return
	}
	if req.Title == "" || req.Category == "" || req.ContactInfo == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_PARAMS", "title, category and contactInfo are required")
		return
	}

	// Coordinates come as a pair or not at all.
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondWithError(w, http.StatusBadRequest, "INVALID_COORDINATES", "latitude and longitude must be provided together")
		return
	}
	var location *geo.Point
	if req.Latitude != nil {
		p := geo.Point{Lat: *req.Latitude, Lng: *req.Longitude}
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			respondWithError(w, http.StatusBadRequest, "INVALID_COORDINATES", "coordinates out of range")
			return
		}
		location = &p
	}

	created, err := h.store.Create(r.Context(), item.CreateInput{
		Type:           req.Type,
		Title:          req.Title,
		Description:    req.Description,
		CategoryCode:   req.Category,
		Location:       location,
		LocationID:     req.LocationID,
		LocationDetail: req.LocationDetail,
		LostDate:       req.LostDate,
		ContactInfo:    req.ContactInfo,
		ContactType:    req.ContactType,
		AuthorID:       userID,
		Images:         req.Images,
		Tags:           req.Tags,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusCreated, created)
}

// GetItem returns one listing and bumps its view counter.
// GET /api/v1/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_ID", "item id must be a positive integer")
		return
	}

	it, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.store.IncrementViews(r.Context(), id); err != nil {
		h.logger.Warn("view count update failed", "item_id", id, "error", err)
	}

	respondWithData(w, http.StatusOK, it)
}

// ListItems returns listings matching the query filters, newest first.
// GET /api/v1/items?type=&category=&status=&keyword=&timeRange=&limit=&offset=
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	f := item.Filter{
		Category: r.URL.Query().Get("category"),
		Keyword:  r.URL.Query().Get("keyword"),
		Limit:    queryInt(r, "limit", 20),
		Offset:   queryInt(r, "offset", 0),
	}

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

	items, total, err := h.store.List(r.Context(), f)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
	})
}

// UpdateItemStatus applies a lifecycle transition. Only the author may
// move a listing, and transitions are one-directional.
// PUT /api/v1/items/{id}/status
func (h *ItemHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status item.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if !req.Status.Valid() {
		respondWithError(w, http.StatusBadRequest, "INVALID_STATUS", "unknown item status")
		return
	}

	h.transition(w, r, req.Status)
}

// DeleteItem soft-deletes a listing.
// DELETE /api/v1/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, item.StatusDeleted)
}

func (h *ItemHandler) transition(w http.ResponseWriter, r *http.Request, to item.Status) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_ID", "item id must be a positive integer")
		return
	}

	it, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	if it.AuthorID != userID {
		respondDomainError(w, h.logger, item.ErrNotOwner)
		return
	}
	if !item.CanTransition(it.Status, to) {
		respondDomainError(w, h.logger, item.ErrInvalidTransition)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, it.Status, to, time.Now()); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": to,
	})
}
