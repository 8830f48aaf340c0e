package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// LeaderboardHandler обрабатывает GET /standings.
// Соревнование выбирается либо competition_id, либо competition_type,
// scope по умолчанию OVERALL.
func (h *StandingsHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	var query services.LeaderboardQuery

	if idStr := r.URL.Query().Get("competition_id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			badRequestResponse(w, r, errors.New("invalid competition_id query parameter"))
			return
		}
		query.CompetitionID = &id
	}

	if typeStr := r.URL.Query().Get("competition_type"); typeStr != "" {
		compType := models.CompetitionType(typeStr)
		if !compType.Valid() {
			badRequestResponse(w, r, errors.New("invalid competition_type query parameter"))
			return
		}
		query.CompetitionType = &compType
	}

	if scopeStr := r.URL.Query().Get("scope"); scopeStr != "" {
		scope := models.StandingScope(scopeStr)
		if !scope.Valid() {
			badRequestResponse(w, r, errors.New("invalid scope query parameter"))
			return
		}
		query.Scope = scope
	}

	view, err := h.standingsService.Leaderboard(r.Context(), query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecomputeHandler обрабатывает POST /competitions/{competitionID}/standings/recompute
func (h *StandingsHandler) RecomputeHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.standingsService.Recompute(r.Context(), competitionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "standings recomputed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecomputeAllHandler обрабатывает POST /standings/recompute
func (h *StandingsHandler) RecomputeAllHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.standingsService.RecomputeAll(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "standings recomputed for all competitions"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
