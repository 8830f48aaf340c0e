package models

import "time"

// Score — одна оценка спикера в комнате. Все строки одной комнаты принадлежат
// единственному судье; повторная подача заменяет набор целиком.
type Score struct {
	ID              int       `json:"id"`
	MatchID         int       `json:"match_id"`
	RegistrationID  int       `json:"registration_id"`
	SpeakerID       int       `json:"speaker_id"`
	JudgeID         int       `json:"judge_id"`
	BenchLabel      string    `json:"bench_label"`
	SpeakerRole     string    `json:"speaker_role"`
	SpeakerPosition int       `json:"speaker_position"`
	Points          float64   `json:"points"`
	TeamRank        int       `json:"team_rank"` // унаследован от места команды в комнате
	CreatedAt       time.Time `json:"created_at"`
}

// ScoreLine — проекция для пересчёта standings: по одной строке на оценку
// спикера с фазой раунда, в котором она выставлена.
type ScoreLine struct {
	MatchID        int
	Stage          Stage
	RegistrationID int
	Points         float64
	TeamRank       int
}
