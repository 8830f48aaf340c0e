package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dimas292/caturnawa2025-sub004/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"competition not found", services.ErrCompetitionNotFound, http.StatusNotFound},
		{"match not found", services.ErrMatchNotFound, http.StatusNotFound},
		{"round name conflict", services.ErrRoundNameConflict, http.StatusConflict},
		{"team already booked", services.ErrTeamAlreadyBooked, http.StatusConflict},
		{"room has scores", services.ErrRoomHasScores, http.StatusConflict},
		{"room completed", services.ErrRoomCompleted, http.StatusConflict},
		{"invalid stage", services.ErrInvalidStage, http.StatusBadRequest},
		{"minimum benches", services.ErrMinimumBenches, http.StatusBadRequest},
		{"team not verified", services.ErrTeamNotVerified, http.StatusBadRequest},
		{"score out of range", services.ErrScoreOutOfRange, http.StatusUnprocessableEntity},
		{"ranking not a permutation", services.ErrRankingNotPermutation, http.StatusUnprocessableEntity},
		{"missing team sheet", services.ErrMissingTeamSheet, http.StatusUnprocessableEntity},
		{"transaction failed", services.ErrTransactionFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(w, r, tt.err)
			require.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Contains(t, body, "error")
		})
	}
}

func TestGetIDFromURL(t *testing.T) {
	newRequest := func(value string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("matchID", value)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := getIDFromURL(newRequest("42"), "matchID")
	require.NoError(t, err)
	require.Equal(t, 42, id)

	_, err = getIDFromURL(newRequest("abc"), "matchID")
	require.Error(t, err)

	_, err = getIDFromURL(newRequest("0"), "matchID")
	require.Error(t, err)

	_, err = getIDFromURL(newRequest(""), "matchID")
	require.Error(t, err)
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"KDBI"}`},
		{name: "empty body", body: ``, wantErr: "body must not be empty"},
		{name: "unknown field", body: `{"naem":"typo"}`, wantErr: "unknown key"},
		{name: "trailing value", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON value"},
		{name: "malformed", body: `{"name":`, wantErr: "badly-formed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := readJSON(w, r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, "KDBI", dst.Name)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDryRun(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/rounds/repair?dry_run=true", nil)
	require.True(t, parseDryRun(r))

	r = httptest.NewRequest(http.MethodPost, "/rounds/repair", nil)
	require.False(t, parseDryRun(r))

	r = httptest.NewRequest(http.MethodPost, "/rounds/repair?dry_run=1", nil)
	require.False(t, parseDryRun(r))
}
