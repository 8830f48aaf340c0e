package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
)

// Match — одна запланированная дебатная комната внутри раунда. Слоты
// team1..team4 соответствуют скамьям OG/OO/CG/CO (см. Bench). После
// успешной подачи оценок фиксируются четыре места и completed_at.
type Match struct {
	ID          int         `json:"id"`
	RoundID     int         `json:"round_id"`
	MatchNumber int         `json:"match_number"`
	Team1ID     *int        `json:"team1_id,omitempty"`
	Team2ID     *int        `json:"team2_id,omitempty"`
	Team3ID     *int        `json:"team3_id,omitempty"`
	Team4ID     *int        `json:"team4_id,omitempty"`
	JudgeID     *int        `json:"judge_id,omitempty"`
	Status      MatchStatus `json:"status"`

	FirstPlaceID  *int       `json:"first_place_id,omitempty"`
	SecondPlaceID *int       `json:"second_place_id,omitempty"`
	ThirdPlaceID  *int       `json:"third_place_id,omitempty"`
	FourthPlaceID *int       `json:"fourth_place_id,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// Optional linked data, not directly in DB table, populated by service
	Teams [BenchCount]*Registration `json:"teams,omitempty"`
}

// TeamSlots возвращает четыре слота в порядке скамей.
func (m *Match) TeamSlots() [BenchCount]*int {
	return [BenchCount]*int{m.Team1ID, m.Team2ID, m.Team3ID, m.Team4ID}
}

// TeamAtSlot возвращает ID команды в слоте 1..4, nil если слот пуст.
func (m *Match) TeamAtSlot(slot int) *int {
	if slot < 1 || slot > BenchCount {
		return nil
	}
	return m.TeamSlots()[slot-1]
}

// RoundBooking — строка таблицы round_bookings: команда занимает скамью в
// комнате раунда. UNIQUE(round_id, registration_id) закрывает гонку
// check-then-act при назначении команд.
type RoundBooking struct {
	RoundID        int   `json:"round_id"`
	RegistrationID int   `json:"registration_id"`
	MatchID        int   `json:"match_id"`
	Bench          Bench `json:"bench"`
}
