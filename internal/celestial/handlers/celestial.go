package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/middleware"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/request"
	"space-mining-server/internal/shared/response"
)

type CelestialHandler struct {
	service      *celestial.Service
	defaultCount int
	defaultDays  int
}

func NewCelestialHandler(service *celestial.Service, defaultCount, defaultDays int) *CelestialHandler {
	return &CelestialHandler{service: service, defaultCount: defaultCount, defaultDays: defaultDays}
}

type spawnRequest struct {
	Count int `json:"count"`
	Days  int `json:"days"`
}

func (h *CelestialHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_celestial_bodies")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.ListBodies(r.Context(), actor.PlayerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", result)
}

func (h *CelestialHandler) Planets(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_planets")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	bodies, err := h.service.ListPermanent(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", bodies)
}

func (h *CelestialHandler) Asteroids(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_asteroids")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	result, err := h.service.ListAsteroids(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", result)
}

func (h *CelestialHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_celestial_body")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	body, err := h.service.GetBody(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", body)
}

// Spawn is admin only. Missing count or days fall back to the configured defaults.
func (h *CelestialHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "spawn_asteroids")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	req := spawnRequest{Count: h.defaultCount, Days: h.defaultDays}
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	spawned, err := h.service.SpawnAsteroids(r.Context(), req.Count, req.Days)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, fmt.Sprintf("Spawned %d asteroids", len(spawned)), spawned)
}
