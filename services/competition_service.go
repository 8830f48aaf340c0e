package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
)

type CreateCompetitionInput struct {
	Name string                 `json:"name"`
	Type models.CompetitionType `json:"type"`
}

// CompetitionService управляет соревнованиями. Соревнование неизменяемо после
// создания, поэтому здесь нет update/delete.
type CompetitionService interface {
	CreateCompetition(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error)
	GetCompetitionByID(ctx context.Context, id int) (*models.Competition, error)
	GetCompetitionByType(ctx context.Context, compType models.CompetitionType) (*models.Competition, error)
	ListCompetitions(ctx context.Context) ([]*models.Competition, error)
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
}

func NewCompetitionService(competitionRepo repositories.CompetitionRepository) CompetitionService {
	return &competitionService{competitionRepo: competitionRepo}
}

func (s *competitionService) CreateCompetition(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCompetitionNameRequired
	}
	if input.Type != models.CompetitionKDBI && input.Type != models.CompetitionEDC {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCompetitionType, input.Type)
	}

	competition := &models.Competition{Name: name, Type: input.Type}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		if errors.Is(err, repositories.ErrCompetitionTypeConflict) {
			return nil, fmt.Errorf("%w: %s", ErrCompetitionExists, input.Type)
		}
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) GetCompetitionByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return competition, nil
}

func (s *competitionService) GetCompetitionByType(ctx context.Context, compType models.CompetitionType) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByType(ctx, compType)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return competition, nil
}

func (s *competitionService) ListCompetitions(ctx context.Context) ([]*models.Competition, error) {
	return s.competitionRepo.List(ctx)
}
