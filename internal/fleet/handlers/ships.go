package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"space-mining-server/internal/fleet"
	"space-mining-server/internal/middleware"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/request"
	"space-mining-server/internal/shared/response"
)

type ShipHandler struct {
	service *fleet.Service
}

func NewShipHandler(service *fleet.Service) *ShipHandler {
	return &ShipHandler{service: service}
}

type buildRequest struct {
	TemplateID int    `json:"template_id"`
	Name       string `json:"name"`
}

func (h *ShipHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_ship_templates")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	templates, err := h.service.ListTemplates(r.Context(), actor)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", templates)
}

func (h *ShipHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_ship_template")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	template, err := h.service.GetTemplate(r.Context(), actor, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", template)
}

func (h *ShipHandler) Build(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "build_ship")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req buildRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if req.TemplateID == 0 {
		response.Error(w, r, logger, errors.Validation("template_id is required"))
		return
	}

	result, err := h.service.Build(r.Context(), actor, req.TemplateID, req.Name)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, fmt.Sprintf("%s built", result.Ship.Name), result)
}

func (h *ShipHandler) GetFleet(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_fleet")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.ListFleet(r.Context(), actor)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", result)
}

// Ship serves GET and DELETE on a single owned ship
func (h *ShipHandler) Ship(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "ship")

	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if r.Method == http.MethodGet {
		ship, err := h.service.GetShip(r.Context(), actor, id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, "", ship)
		return
	}

	result, err := h.service.Scrap(r.Context(), actor, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("%s scrapped", result.ShipName), result)
}
