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

type AssignTeamsInput struct {
	Team1ID *int `json:"team1_id"`
	Team2ID *int `json:"team2_id"`
	Team3ID *int `json:"team3_id"`
	Team4ID *int `json:"team4_id"`
}

func (in AssignTeamsInput) slots() [models.BenchCount]*int {
	return [models.BenchCount]*int{in.Team1ID, in.Team2ID, in.Team3ID, in.Team4ID}
}

// AssignmentService сажает команды в слоты комнаты. Правила проверяются по
// порядку; на успехе четыре слота перезаписываются целиком (nil очищает слот),
// строки оценок не затрагиваются.
type AssignmentService interface {
	AssignTeams(ctx context.Context, matchID int, input AssignTeamsInput) (*models.Match, error)
}

type assignmentService struct {
	db               *sql.DB
	matchRepo        repositories.MatchRepository
	roundRepo        repositories.RoundRepository
	registrationRepo repositories.RegistrationRepository
	logger           *slog.Logger
}

func NewAssignmentService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundRepository,
	registrationRepo repositories.RegistrationRepository,
	logger *slog.Logger,
) AssignmentService {
	return &assignmentService{
		db:               db,
		matchRepo:        matchRepo,
		roundRepo:        roundRepo,
		registrationRepo: registrationRepo,
		logger:           logger,
	}
}

func (s *assignmentService) AssignTeams(ctx context.Context, matchID int, input AssignTeamsInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return nil, err
	}

	slots := input.slots()

	// Правило 1: одна команда не может занимать две скамьи одной комнаты.
	seen := make(map[int]models.Bench, models.BenchCount)
	filled := 0
	candidateIDs := make([]int, 0, models.BenchCount)
	for i, teamID := range slots {
		if teamID == nil {
			continue
		}
		filled++
		bench := models.Bench(i)
		if prev, dup := seen[*teamID]; dup {
			return nil, fmt.Errorf("%w: team %d on both %s and %s",
				ErrDuplicateTeamInRoom, *teamID, prev.Label(), bench.Label())
		}
		seen[*teamID] = bench
		candidateIDs = append(candidateIDs, *teamID)
	}

	// Правило 2: дебат требует минимум Opening Government и Opening Opposition.
	if filled == 1 {
		return nil, ErrMinimumBenches
	}

	// Правило 3: команда из этого соревнования и верифицирована регистрацией.
	registrations, err := s.registrationRepo.ListByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	for _, teamID := range candidateIDs {
		reg, ok := registrations[teamID]
		if !ok {
			return nil, fmt.Errorf("%w: team %d", ErrRegistrationNotFound, teamID)
		}
		if reg.CompetitionID != round.CompetitionID {
			return nil, fmt.Errorf("%w: team %q", ErrTeamWrongCompetition, reg.TeamName)
		}
		if reg.Status != models.RegistrationVerified {
			return nil, fmt.Errorf("%w: team %q is %s", ErrTeamNotVerified, reg.TeamName, reg.Status)
		}
	}

	// Правило 4: команда не занята в другой комнате этого раунда. Проверка
	// даёт оператору контекст конфликта; гонку двух параллельных назначений
	// окончательно закрывает UNIQUE(round_id, registration_id) при записи.
	bookings, err := s.matchRepo.ListBookingsByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		if booking.MatchID == matchID {
			continue
		}
		if _, wanted := seen[booking.RegistrationID]; wanted {
			conflictRoom, err := s.matchRepo.GetByID(ctx, booking.MatchID)
			if err != nil {
				return nil, err
			}
			reg := registrations[booking.RegistrationID]
			return nil, fmt.Errorf("%w: team %q already sits in room %d as %s",
				ErrTeamAlreadyBooked, reg.TeamName, conflictRoom.MatchNumber, booking.Bench.Label())
		}
	}

	newBookings := make([]models.RoundBooking, 0, filled)
	for i, teamID := range slots {
		if teamID == nil {
			continue
		}
		newBookings = append(newBookings, models.RoundBooking{
			RoundID:        round.ID,
			RegistrationID: *teamID,
			MatchID:        matchID,
			Bench:          models.Bench(i),
		})
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateTeams(ctx, tx, matchID, slots); err != nil {
			return err
		}
		return s.matchRepo.ReplaceBookings(ctx, tx, matchID, newBookings)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrBookingConflict) {
			return nil, fmt.Errorf("%w: lost a concurrent assignment race, re-check the round", ErrTeamAlreadyBooked)
		}
		return nil, err
	}

	updated, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for i, teamID := range updated.TeamSlots() {
		if teamID != nil {
			updated.Teams[i] = registrations[*teamID]
		}
	}
	return updated, nil
}
