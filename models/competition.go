package models

import "time"

type CompetitionType string

const (
	CompetitionKDBI CompetitionType = "KDBI" // дебаты на индонезийском (BP)
	CompetitionEDC  CompetitionType = "EDC"  // дебаты на английском (BP)
)

func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionKDBI, CompetitionEDC:
		return true
	}
	return false
}

// Competition идентифицирует дебатный формат. После создания не изменяется.
type Competition struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Type      CompetitionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
