package models

import "time"

// Round принадлежит соревнованию; (competition_id, stage, round_number, session)
// образуют составную идентичность. Session различает несколько «хитов» одного
// round_number в один день и используется только на предварительной фазе.
type Round struct {
	ID            int       `json:"id"`
	CompetitionID int       `json:"competition_id"`
	Stage         Stage     `json:"stage"`
	RoundNumber   int       `json:"round_number"`
	Session       int       `json:"session"`
	Name          string    `json:"name"`
	Motion        *string   `json:"motion,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
