package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"space-mining-server/internal/middleware"
	"space-mining-server/internal/mine"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/request"
	"space-mining-server/internal/shared/response"
)

type MineHandler struct {
	service *mine.Service
}

func NewMineHandler(service *mine.Service) *MineHandler {
	return &MineHandler{service: service}
}

type buildRequest struct {
	CelestialBodyID int `json:"celestial_body_id"`
}

func (h *MineHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_mines")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.List(r.Context(), actor)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", result)
}

func (h *MineHandler) Preview(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "preview_mine")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	bodyID, err := request.PathID(r, "bodyId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	preview, err := h.service.Preview(r.Context(), actor, bodyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", preview)
}

func (h *MineHandler) Build(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "build_mine")

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
	if req.CelestialBodyID == 0 {
		response.Error(w, r, logger, errors.Validation("celestial_body_id is required"))
		return
	}

	result, err := h.service.Build(r.Context(), actor, req.CelestialBodyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, fmt.Sprintf("Mine built on %s", result.Mine.BodyName), result)
}

func (h *MineHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "upgrade_mine")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	bodyID, err := request.PathID(r, "bodyId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Upgrade(r.Context(), actor, bodyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK,
		fmt.Sprintf("Mine on %s upgraded to level %d", result.Mine.BodyName, result.Mine.Level), result)
}

func (h *MineHandler) Collect(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "collect_mine")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	bodyID, err := request.PathID(r, "bodyId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Collect(r.Context(), actor, bodyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("Collected resources from %s", result.BodyName), result)
}

func (h *MineHandler) CollectAll(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "collect_all_mines")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.CollectAll(r.Context(), actor)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("Collected resources from %d mines", result.MinesCollected), result)
}
