package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/service"
)

// LinkHandler handles the caller's links and public click-through.
type LinkHandler struct {
	linkService *service.LinkService
	logger      zerolog.Logger
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(linkService *service.LinkService, logger zerolog.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      logger.With().Str("handler", "link").Logger(),
	}
}

// RegisterRoutes mounts the owner routes. The router applies the bearer
// middleware to the group.
func (h *LinkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/reorder", h.Reorder)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type createLinkRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type updateLinkRequest struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"isActive"`
}

type reorderRequest struct {
	LinkIDs json.RawMessage `json:"linkIds"`
}

var errLinkIDsNotArray = domain.NewFieldError(domain.ErrValidation, "linkIds must be an array", "linkIds")

// List handles GET /api/links.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	links, err := h.linkService.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if links == nil {
		links = []*domain.Link{}
	}

	writeSuccess(w, http.StatusOK, envelope{"links": links})
}

// Create handles POST /api/links.
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req createLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	link, err := h.linkService.Create(r.Context(), service.CreateLinkInput{
		Caller:      caller,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{
		"message": "Link created successfully",
		"link":    link,
	})
}

// Update handles PUT /api/links/{id}.
func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	link, err := h.linkService.Update(r.Context(), service.UpdateLinkInput{
		Caller: caller,
		LinkID: chi.URLParam(r, "id"),
		Patch: domain.LinkPatch{
			Title:       req.Title,
			URL:         req.URL,
			Description: req.Description,
			Icon:        req.Icon,
			IsActive:    req.IsActive,
		},
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Link updated successfully",
		"link":    link,
	})
}

// Delete handles DELETE /api/links/{id}.
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := h.linkService.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Link deleted successfully"})
}

// Reorder handles PATCH /api/links/reorder.
func (h *LinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ids, err := parseLinkIDs(req.LinkIDs)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if _, err := h.linkService.Reorder(r.Context(), service.ReorderLinksInput{
		Caller:  caller,
		LinkIDs: ids,
	}); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Links reordered successfully"})
}

// parseLinkIDs decodes the linkIds array. Entries that are not strings
// become "" so the remaining ids keep their positions.
func parseLinkIDs(raw json.RawMessage) ([]string, error) {
	var entries []json.RawMessage
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errLinkIDsNotArray
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errLinkIDsNotArray
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		var id string
		if err := json.Unmarshal(entry, &id); err == nil {
			ids[i] = id
		}
	}
	return ids, nil
}

// Click handles POST /api/click/{linkId}. No authentication is required.
func (h *LinkHandler) Click(w http.ResponseWriter, r *http.Request) {
	url, err := h.linkService.RecordClick(r.Context(), chi.URLParam(r, "linkId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message":     "Click recorded",
		"redirectUrl": url,
	})
}
