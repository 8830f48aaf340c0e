package handlers

import (
	"errors"
	"net/http"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/services"
)

type StructureHandler struct {
	structureService services.StructureService
}

func NewStructureHandler(ss services.StructureService) *StructureHandler {
	return &StructureHandler{structureService: ss}
}

// EnsureRoundHandler обрабатывает POST /competitions/{competitionID}/rounds.
// Операция идемпотентна: существующие комнаты сохраняются, досоздаются
// только недостающие номера.
func (h *StructureHandler) EnsureRoundHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EnsureRoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.structureService.EnsureRound(r.Context(), competitionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if result.RoomsCreated > 0 {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"round": result.Round, "rooms": result.Rooms, "rooms_created": result.RoomsCreated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRoundsHandler обрабатывает GET /competitions/{competitionID}/rounds?stage=
func (h *StructureHandler) ListRoundsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var stage *models.Stage
	if stageStr := r.URL.Query().Get("stage"); stageStr != "" {
		parsed, err := models.ParseStage(stageStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid stage query parameter"))
			return
		}
		stage = &parsed
	}

	rounds, err := h.structureService.ListRounds(r.Context(), competitionID, stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRoomsHandler обрабатывает GET /rounds/{roundID}/rooms
func (h *StructureHandler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rooms, err := h.structureService.ListRooms(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": rooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RepairSessionsHandler обрабатывает POST /competitions/{competitionID}/rounds/repair?dry_run=
func (h *StructureHandler) RepairSessionsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.structureService.RepairRoundSessions(r.Context(), competitionID, parseDryRun(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CleanupDuplicatesHandler обрабатывает POST /competitions/{competitionID}/rounds/cleanup?dry_run=
func (h *StructureHandler) CleanupDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.structureService.CleanupDuplicateRounds(r.Context(), competitionID, parseDryRun(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteRoomHandler обрабатывает DELETE /matches/{matchID}
func (h *StructureHandler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.structureService.DeleteRoom(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
