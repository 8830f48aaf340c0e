package models

import "time"

// Standing — агрегированный зачёт команды в одном разрезе (общий или одна
// фаза). Всегда пересчитывается целиком из закоммиченных оценок, вручную не
// редактируется.
type Standing struct {
	ID                  int           `json:"id"`
	CompetitionID       int           `json:"competition_id"`
	RegistrationID      int           `json:"registration_id"`
	Scope               StandingScope `json:"scope"`
	TeamPoints          int           `json:"team_points"`
	SpeakerPoints       float64       `json:"speaker_points"`
	AverageSpeakerScore float64       `json:"average_speaker_points"`
	MatchesPlayed       int           `json:"matches_played"`
	FirstPlaces         int           `json:"first_places"`
	SecondPlaces        int           `json:"second_places"`
	ThirdPlaces         int           `json:"third_places"`
	FourthPlaces        int           `json:"fourth_places"`
	UpdatedAt           time.Time     `json:"updated_at"`

	// Присваивается при выдаче лидерборда, в таблице не хранится.
	Rank int `json:"rank,omitempty"`

	// Optional linked data, populated by service
	Team *Registration `json:"team,omitempty"`
}
