package models

import "fmt"

// Stage маркирует фазу турнира. Хранится как тег на раунде, не как отдельная сущность.
type Stage string

const (
	StagePreliminary Stage = "PRELIMINARY"
	StageSemifinal   Stage = "SEMIFINAL"
	StageFinal       Stage = "FINAL"
)

func (s Stage) Valid() bool {
	switch s {
	case StagePreliminary, StageSemifinal, StageFinal:
		return true
	}
	return false
}

func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// StandingScope — разрез, в котором агрегируется standing: общий зачёт либо одна фаза.
type StandingScope string

const (
	ScopeOverall     StandingScope = "OVERALL"
	ScopePreliminary StandingScope = StandingScope(StagePreliminary)
	ScopeSemifinal   StandingScope = StandingScope(StageSemifinal)
	ScopeFinal       StandingScope = StandingScope(StageFinal)
)

func (s StandingScope) Valid() bool {
	switch s {
	case ScopeOverall, ScopePreliminary, ScopeSemifinal, ScopeFinal:
		return true
	}
	return false
}

func ScopeForStage(stage Stage) StandingScope {
	return StandingScope(stage)
}
