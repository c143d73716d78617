package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"space-mining-server/internal/middleware"
	"space-mining-server/internal/mission"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/request"
	"space-mining-server/internal/shared/response"
)

type MissionHandler struct {
	service *mission.Service
}

func NewMissionHandler(service *mission.Service) *MissionHandler {
	return &MissionHandler{service: service}
}

type sendRequest struct {
	ShipID   int `json:"ship_id"`
	TargetID int `json:"target_id"`
}

func (h *MissionHandler) Send(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "send_mission")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req sendRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if req.ShipID == 0 || req.TargetID == 0 {
		response.Error(w, r, logger, errors.Validation("ship_id and target_id are required"))
		return
	}

	result, err := h.service.Send(r.Context(), actor, req.ShipID, req.TargetID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated,
		fmt.Sprintf("%s launched towards %s", result.Mission.Ship.Name, result.Mission.Target.Name), result)
}

func (h *MissionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "preview_mission")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	shipID, err := request.PathID(r, "shipId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	targetID, err := request.PathID(r, "targetId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	preview, err := h.service.Preview(r.Context(), actor, shipID, targetID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", preview)
}

// List accepts ?status=<phase>, ?active=true and ?limit=n
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_missions")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var filter mission.ListFilter
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status, err := mission.ParseStatus(raw)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid status filter", err))
			return
		}
		filter.Status = status
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, r, logger, errors.Validationf("invalid active flag %q", raw))
			return
		}
		filter.ActiveOnly = active
	}
	limit, err := request.QueryInt(r, "limit", 0)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	filter.Limit = limit

	result, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", result)
}

func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_mission")

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

	m, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", m)
}

func (h *MissionHandler) Collect(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "collect_mission")

	if r.Method != http.MethodPost {
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

	result, err := h.service.Collect(r.Context(), actor, id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK,
		fmt.Sprintf("Collected %d resources from %s", result.MinedResources.Total(), result.TargetName), result)
}

func (h *MissionHandler) CollectAll(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "collect_all_missions")

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

	response.Success(w, http.StatusOK, fmt.Sprintf("Collected %d missions", result.CollectedCount), result)
}
