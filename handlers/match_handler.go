package handlers

import (
	"net/http"

	"github.com/dimas292/caturnawa2025-sub004/services"
)

type MatchHandler struct {
	structureService  services.StructureService
	assignmentService services.AssignmentService
	scoringService    services.ScoringService
}

func NewMatchHandler(
	ss services.StructureService,
	as services.AssignmentService,
	sc services.ScoringService,
) *MatchHandler {
	return &MatchHandler{
		structureService:  ss,
		assignmentService: as,
		scoringService:    sc,
	}
}

// GetRoomHandler обрабатывает GET /matches/{matchID}
func (h *MatchHandler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.structureService.GetRoom(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignTeamsHandler обрабатывает PUT /matches/{matchID}/teams.
// Все четыре скамьи передаются целиком, частичных обновлений нет.
func (h *MatchHandler) AssignTeamsHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AssignTeamsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.assignmentService.AssignTeams(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignJudgeHandler обрабатывает PUT /matches/{matchID}/judge
func (h *MatchHandler) AssignJudgeHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		JudgeID *int `json:"judge_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoringService.AssignJudge(r.Context(), matchID, input.JudgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetLiveHandler обрабатывает PUT /matches/{matchID}/live
func (h *MatchHandler) SetLiveHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Live bool `json:"live"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoringService.SetLive(r.Context(), matchID, input.Live)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitScoresHandler обрабатывает POST /matches/{matchID}/scores.
// Повторная отправка полностью заменяет предыдущие строки.
func (h *MatchHandler) SubmitScoresHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitScoresInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scoringService.SubmitScores(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
