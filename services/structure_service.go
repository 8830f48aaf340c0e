package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
)

type EnsureRoundInput struct {
	Stage       models.Stage `json:"stage"`
	RoundNumber int          `json:"round_number"`
	Session     int          `json:"session"`
	RoomCount   int          `json:"room_count"`
	Motion      *string      `json:"motion,omitempty"`
}

type EnsureRoundResult struct {
	Round        *models.Round   `json:"round"`
	Rooms        []*models.Match `json:"rooms"`
	RoomsCreated int             `json:"rooms_created"`
}

type RepairedRound struct {
	RoundID     int    `json:"round_id"`
	Name        string `json:"name"`
	FromNumber  int    `json:"from_round_number"`
	FromSession int    `json:"from_session"`
	ToNumber    int    `json:"to_round_number"`
	ToSession   int    `json:"to_session"`
}

type SkippedRound struct {
	RoundID int    `json:"round_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

type RepairReport struct {
	DryRun   bool            `json:"dry_run"`
	Repaired []RepairedRound `json:"repaired"`
	Skipped  []SkippedRound  `json:"skipped"`
}

type RemovedRound struct {
	RoundID int    `json:"round_id"`
	Name    string `json:"name"`
	KeptID  int    `json:"kept_round_id"`
}

type CleanupReport struct {
	DryRun     bool           `json:"dry_run"`
	Removed    []RemovedRound `json:"removed"`
	Unresolved []SkippedRound `json:"unresolved"`
}

// StructureService поддерживает иерархию Stage → Round → Room, включая
// идемпотентное создание комнат и явные ремонтные операции.
type StructureService interface {
	EnsureRound(ctx context.Context, competitionID int, input EnsureRoundInput) (*EnsureRoundResult, error)
	GetRound(ctx context.Context, roundID int) (*models.Round, error)
	ListRounds(ctx context.Context, competitionID int, stage *models.Stage) ([]*models.Round, error)
	ListRooms(ctx context.Context, roundID int) ([]*models.Match, error)
	GetRoom(ctx context.Context, matchID int) (*models.Match, error)
	DeleteRoom(ctx context.Context, matchID int) error
	RepairRoundSessions(ctx context.Context, competitionID int, dryRun bool) (*RepairReport, error)
	CleanupDuplicateRounds(ctx context.Context, competitionID int, dryRun bool) (*CleanupReport, error)
}

type structureService struct {
	db               *sql.DB
	competitionRepo  repositories.CompetitionRepository
	roundRepo        repositories.RoundRepository
	matchRepo        repositories.MatchRepository
	scoreRepo        repositories.ScoreRepository
	registrationRepo repositories.RegistrationRepository
	logger           *slog.Logger
}

func NewStructureService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	scoreRepo repositories.ScoreRepository,
	registrationRepo repositories.RegistrationRepository,
	logger *slog.Logger,
) StructureService {
	return &structureService{
		db:               db,
		competitionRepo:  competitionRepo,
		roundRepo:        roundRepo,
		matchRepo:        matchRepo,
		scoreRepo:        scoreRepo,
		registrationRepo: registrationRepo,
		logger:           logger,
	}
}

func (s *structureService) EnsureRound(ctx context.Context, competitionID int, input EnsureRoundInput) (*EnsureRoundResult, error) {
	if !input.Stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, input.Stage)
	}
	if input.RoundNumber < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRoundNumber, input.RoundNumber)
	}
	session := input.Session
	if input.Stage == models.StagePreliminary {
		if session < 1 {
			return nil, ErrInvalidSession
		}
	} else {
		// Session различает хиты только на предварительной фазе.
		session = 1
	}
	if input.RoomCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRoomCount, input.RoomCount)
	}

	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	name := buildRoundName(input.Stage, input.RoundNumber, session)

	// Коллизия имени с другой идентичностью — ошибка ввода выше по потоку.
	// Её решает оператор через repair, автослияния нет.
	existingByName, err := s.roundRepo.GetByName(ctx, competitionID, name)
	if err != nil && !errors.Is(err, repositories.ErrRoundNotFound) {
		return nil, err
	}
	if existingByName != nil &&
		(existingByName.RoundNumber != input.RoundNumber || existingByName.Session != session || existingByName.Stage != input.Stage) {
		return nil, fmt.Errorf("%w: round %q exists as (round %d, session %d)",
			ErrRoundNameConflict, name, existingByName.RoundNumber, existingByName.Session)
	}

	round, err := s.roundRepo.FindByIdentity(ctx, competitionID, input.Stage, input.RoundNumber, session)
	switch {
	case errors.Is(err, repositories.ErrRoundNotFound):
		round = &models.Round{
			CompetitionID: competitionID,
			Stage:         input.Stage,
			RoundNumber:   input.RoundNumber,
			Session:       session,
			Name:          name,
			Motion:        input.Motion,
		}
		createErr := runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			return s.roundRepo.Create(ctx, tx, round)
		})
		if errors.Is(createErr, repositories.ErrRoundIdentityConflict) {
			// Параллельный запрос успел первым; операция идемпотентна.
			round, createErr = s.roundRepo.FindByIdentity(ctx, competitionID, input.Stage, input.RoundNumber, session)
		}
		if createErr != nil {
			return nil, createErr
		}
	case err != nil:
		return nil, err
	default:
		if input.Motion != nil && (round.Motion == nil || *round.Motion != *input.Motion) {
			if err := s.roundRepo.UpdateMotion(ctx, nil, round.ID, input.Motion); err != nil {
				return nil, err
			}
			round.Motion = input.Motion
		}
	}

	created, err := s.ensureRooms(ctx, round.ID, input.RoomCount)
	if err != nil {
		return nil, err
	}

	rooms, err := s.matchRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	return &EnsureRoundResult{Round: round, Rooms: rooms, RoomsCreated: created}, nil
}

// ensureRooms досоздаёт недостающие match_number вплоть до roomCount.
// Существующие номера не трогаются, лишние комнаты не удаляются.
func (s *structureService) ensureRooms(ctx context.Context, roundID, roomCount int) (int, error) {
	existing, err := s.matchRepo.ListByRound(ctx, roundID)
	if err != nil {
		return 0, err
	}
	taken := make(map[int]bool, len(existing))
	for _, m := range existing {
		taken[m.MatchNumber] = true
	}

	missing := make([]int, 0)
	for number := 1; number <= roomCount; number++ {
		if !taken[number] {
			missing = append(missing, number)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for _, number := range missing {
			match := &models.Match{RoundID: roundID, MatchNumber: number}
			if err := s.matchRepo.Create(ctx, tx, match); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(missing), nil
}

func (s *structureService) GetRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}

func (s *structureService) ListRounds(ctx context.Context, competitionID int, stage *models.Stage) ([]*models.Round, error) {
	if stage != nil && !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, *stage)
	}
	return s.roundRepo.ListByCompetition(ctx, competitionID, stage)
}

func (s *structureService) ListRooms(ctx context.Context, roundID int) ([]*models.Match, error) {
	if _, err := s.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByRound(ctx, roundID)
}

// GetRoom возвращает комнату с развёрнутыми составами команд.
func (s *structureService) GetRoom(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	ids := make([]int, 0, models.BenchCount)
	for _, teamID := range match.TeamSlots() {
		if teamID != nil {
			ids = append(ids, *teamID)
		}
	}
	if len(ids) == 0 {
		return match, nil
	}
	registrations, err := s.registrationRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, teamID := range match.TeamSlots() {
		if teamID != nil {
			match.Teams[i] = registrations[*teamID]
		}
	}
	return match, nil
}

// DeleteRoom — ручная операция обслуживания. Комнату с закоммиченными
// оценками удалить нельзя.
func (s *structureService) DeleteRoom(ctx context.Context, matchID int) error {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	hasScores, err := s.scoreRepo.ExistsByMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if hasScores {
		return fmt.Errorf("%w: room %d", ErrRoomHasScores, matchID)
	}
	return runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.matchRepo.Delete(ctx, tx, matchID)
	})
}

// RepairRoundSessions сверяет сохранённую пару (round_number, session) с той,
// что закодирована в имени раунда, и чинит расхождения. Раунды с оценками не
// трогаются и попадают в отчёт.
func (s *structureService) RepairRoundSessions(ctx context.Context, competitionID int, dryRun bool) (*RepairReport, error) {
	rounds, err := s.roundRepo.ListByCompetition(ctx, competitionID, nil)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{
		DryRun:   dryRun,
		Repaired: make([]RepairedRound, 0),
		Skipped:  make([]SkippedRound, 0),
	}

	for _, round := range rounds {
		stage, number, session, ok := parseRoundName(round.Name)
		if !ok {
			report.Skipped = append(report.Skipped, SkippedRound{
				RoundID: round.ID, Name: round.Name, Reason: "name does not encode an identity",
			})
			continue
		}
		if stage != round.Stage {
			report.Skipped = append(report.Skipped, SkippedRound{
				RoundID: round.ID, Name: round.Name, Reason: "stage mismatch requires manual reconciliation",
			})
			continue
		}
		if number == round.RoundNumber && session == round.Session {
			continue
		}

		hasScores, err := s.scoreRepo.ExistsByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		if hasScores {
			report.Skipped = append(report.Skipped, SkippedRound{
				RoundID: round.ID, Name: round.Name, Reason: "round has committed scores",
			})
			continue
		}

		report.Repaired = append(report.Repaired, RepairedRound{
			RoundID:     round.ID,
			Name:        round.Name,
			FromNumber:  round.RoundNumber,
			FromSession: round.Session,
			ToNumber:    number,
			ToSession:   session,
		})
	}

	if dryRun || len(report.Repaired) == 0 {
		return report, nil
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for _, entry := range report.Repaired {
			if err := s.roundRepo.UpdateIdentity(ctx, tx, entry.RoundID, entry.ToNumber, entry.ToSession); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("round sessions repaired",
		slog.Int("competition_id", competitionID),
		slog.Int("repaired", len(report.Repaired)),
		slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

// CleanupDuplicateRounds удаляет лишние раунды, разделяющие одно имя (и тем
// самым одну подразумеваемую идентичность). Остаётся самый старый; дубликат
// с оценками не удаляется и выводится как неразрешённый.
func (s *structureService) CleanupDuplicateRounds(ctx context.Context, competitionID int, dryRun bool) (*CleanupReport, error) {
	rounds, err := s.roundRepo.ListByCompetition(ctx, competitionID, nil)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]*models.Round)
	for _, round := range rounds {
		byName[round.Name] = append(byName[round.Name], round)
	}

	report := &CleanupReport{
		DryRun:     dryRun,
		Removed:    make([]RemovedRound, 0),
		Unresolved: make([]SkippedRound, 0),
	}

	for _, group := range byName {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, round := range group {
			if round.ID < keep.ID {
				keep = round
			}
		}
		for _, round := range group {
			if round.ID == keep.ID {
				continue
			}
			hasScores, err := s.scoreRepo.ExistsByRound(ctx, round.ID)
			if err != nil {
				return nil, err
			}
			if hasScores {
				report.Unresolved = append(report.Unresolved, SkippedRound{
					RoundID: round.ID, Name: round.Name, Reason: "duplicate round has committed scores",
				})
				continue
			}
			report.Removed = append(report.Removed, RemovedRound{
				RoundID: round.ID, Name: round.Name, KeptID: keep.ID,
			})
		}
	}

	if dryRun || len(report.Removed) == 0 {
		return report, nil
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for _, entry := range report.Removed {
			matches, err := s.matchRepo.ListByRound(ctx, entry.RoundID)
			if err != nil {
				return err
			}
			for _, match := range matches {
				if err := s.matchRepo.Delete(ctx, tx, match.ID); err != nil {
					return err
				}
			}
			if err := s.roundRepo.Delete(ctx, tx, entry.RoundID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("duplicate rounds removed",
		slog.Int("competition_id", competitionID),
		slog.Int("removed", len(report.Removed)),
		slog.Int("unresolved", len(report.Unresolved)))
	return report, nil
}
