package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrCompetitionNotFound  = errors.New("competition not found")
	ErrRoundNotFound        = errors.New("round not found")
	ErrMatchNotFound        = errors.New("match (room) not found")
	ErrRegistrationNotFound = errors.New("team registration not found")

	// Ошибки валидации и бизнес-правил
	ErrInvalidStage            = errors.New("invalid stage")
	ErrInvalidRoundNumber      = errors.New("round number must be positive")
	ErrInvalidSession          = errors.New("session must be positive for preliminary rounds")
	ErrInvalidRoomCount        = errors.New("room count must be at least 1")
	ErrCompetitionNameRequired = errors.New("competition name is required")
	ErrInvalidCompetitionType  = errors.New("invalid competition type")
	ErrMinimumBenches          = errors.New("a debate needs at least the two opening benches filled")
	ErrTeamNotVerified         = errors.New("team registration is not verified")
	ErrTeamWrongCompetition    = errors.New("team belongs to a different competition")
	ErrTeamNoSpeakers          = errors.New("team has no resolvable speakers")
	ErrScoreOutOfRange         = errors.New("speaker score is out of range")
	ErrMissingTeamSheet        = errors.New("occupied bench is missing its scoresheet")
	ErrRankingNotPermutation   = errors.New("ranking is not a permutation of the occupied benches")
	ErrMatchNoTeams            = errors.New("match has no teams assigned")
	ErrInvalidScope            = errors.New("invalid standings scope")
	ErrLeaderboardTargetUnset  = errors.New("competition id or competition type is required")

	// Ошибки конфликтов: система их никогда не разрешает сама, оператору
	// возвращается контекст для ручного решения.
	ErrRoundNameConflict  = errors.New("round name already exists under a different identity")
	ErrDuplicateTeamInRoom = errors.New("duplicate team in one room")
	ErrTeamAlreadyBooked  = errors.New("team already occupies a room in this round")
	ErrRoomHasScores      = errors.New("room already has committed scores")
	ErrRoomCompleted      = errors.New("room is already completed")
	ErrCompetitionExists  = errors.New("competition type already exists")

	// Атомарная запись не прошла целиком; прежнее состояние не тронуто.
	ErrTransactionFailed = errors.New("transaction failed, retry the operation")
)
