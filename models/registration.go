package models

// Registration — команда из внешней подсистемы регистрации. Движок подсчёта
// читает её только для проверки статуса и состава, никогда не пишет.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationVerified RegistrationStatus = "verified"
	RegistrationRejected RegistrationStatus = "rejected"
)

type Registration struct {
	ID            int                `json:"id"`
	CompetitionID int                `json:"competition_id"`
	TeamName      string             `json:"team_name"`
	Status        RegistrationStatus `json:"status"`

	// Заполняется репозиторием, отдельной колонки нет.
	Speakers []Speaker `json:"speakers,omitempty"`
}

// Speaker — участник команды на фиксированной позиции (1 или 2).
type Speaker struct {
	ID             int    `json:"id"`
	RegistrationID int    `json:"registration_id"`
	Position       int    `json:"position"`
	FullName       string `json:"full_name"`
}

// SpeakerAt возвращает спикера на позиции position, nil если состав неполный.
func (r *Registration) SpeakerAt(position int) *Speaker {
	for i := range r.Speakers {
		if r.Speakers[i].Position == position {
			return &r.Speakers[i]
		}
	}
	return nil
}
