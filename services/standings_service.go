package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dimas292/caturnawa2025-sub004/metrics"
	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
	"golang.org/x/sync/errgroup"
)

// Каскад тай-брейков лидерборда, от старшего ключа к младшему. Возвращается
// в ответе, чтобы порядок был прозрачен для операторов.
var tieBreakOrder = []string{
	"team_points",
	"speaker_points",
	"average_speaker_points",
	"first_places",
	"second_places",
}

type LeaderboardQuery struct {
	CompetitionID   *int
	CompetitionType *models.CompetitionType
	Scope           models.StandingScope
}

type LeaderboardView struct {
	Competition   *models.Competition  `json:"competition"`
	Scope         models.StandingScope `json:"scope"`
	TieBreakOrder []string             `json:"tie_break_order"`
	Standings     []*models.Standing   `json:"standings"`
}

// StandingsService пересчитывает зачёт команд из закоммиченных оценок и
// выдаёт упорядоченный лидерборд.
type StandingsService interface {
	Recompute(ctx context.Context, competitionID int) error
	RecomputeAll(ctx context.Context) error
	Leaderboard(ctx context.Context, query LeaderboardQuery) (*LeaderboardView, error)
}

type standingsService struct {
	db               *sql.DB
	competitionRepo  repositories.CompetitionRepository
	scoreRepo        repositories.ScoreRepository
	standingRepo     repositories.StandingRepository
	registrationRepo repositories.RegistrationRepository
	logger           *slog.Logger
}

func NewStandingsService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	scoreRepo repositories.ScoreRepository,
	standingRepo repositories.StandingRepository,
	registrationRepo repositories.RegistrationRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		db:               db,
		competitionRepo:  competitionRepo,
		scoreRepo:        scoreRepo,
		standingRepo:     standingRepo,
		registrationRepo: registrationRepo,
		logger:           logger,
	}
}

// Recompute — всегда полный пересчёт от закоммиченных оценок, не
// инкрементальная правка: после любой повторной подачи результат обязан
// сойтись заново. Чистая функция от оценок, поэтому параллельные пересчёты
// безопасны (последняя запись побеждает).
func (s *standingsService) Recompute(ctx context.Context, competitionID int) error {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}

	lines, err := s.scoreRepo.ListLinesByCompetition(ctx, competitionID)
	if err != nil {
		return err
	}

	standings, err := foldScoreLines(competitionID, lines)
	if err != nil {
		return err
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.standingRepo.ReplaceByCompetition(ctx, tx, competitionID, standings)
	})
	if err != nil {
		return err
	}
	metrics.StandingsRecomputes.Inc()
	s.logger.Info("standings recomputed",
		slog.Int("competition_id", competitionID),
		slog.Int("rows", len(standings)))
	return nil
}

// RecomputeAll пересчитывает все соревнования; они независимы, поэтому идут
// параллельно.
func (s *standingsService) RecomputeAll(ctx context.Context) error {
	competitions, err := s.competitionRepo.List(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, competition := range competitions {
		competition := competition
		g.Go(func() error {
			return s.Recompute(gctx, competition.ID)
		})
	}
	return g.Wait()
}

func (s *standingsService) Leaderboard(ctx context.Context, query LeaderboardQuery) (*LeaderboardView, error) {
	scope := query.Scope
	if scope == "" {
		scope = models.ScopeOverall
	}
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, query.Scope)
	}

	competition, err := s.resolveCompetition(ctx, query)
	if err != nil {
		return nil, err
	}

	standings, err := s.standingRepo.ListByCompetition(ctx, competition.ID, scope)
	if err != nil {
		return nil, err
	}

	sortStandings(standings)
	for i, standing := range standings {
		standing.Rank = i + 1
	}

	if err := s.attachTeams(ctx, standings); err != nil {
		return nil, err
	}

	return &LeaderboardView{
		Competition:   competition,
		Scope:         scope,
		TieBreakOrder: tieBreakOrder,
		Standings:     standings,
	}, nil
}

func (s *standingsService) resolveCompetition(ctx context.Context, query LeaderboardQuery) (*models.Competition, error) {
	var (
		competition *models.Competition
		err         error
	)
	switch {
	case query.CompetitionID != nil:
		competition, err = s.competitionRepo.GetByID(ctx, *query.CompetitionID)
	case query.CompetitionType != nil:
		competition, err = s.competitionRepo.GetByType(ctx, *query.CompetitionType)
	default:
		return nil, ErrLeaderboardTargetUnset
	}
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return competition, nil
}

func (s *standingsService) attachTeams(ctx context.Context, standings []*models.Standing) error {
	ids := make([]int, 0, len(standings))
	for _, standing := range standings {
		ids = append(ids, standing.RegistrationID)
	}
	registrations, err := s.registrationRepo.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, standing := range standings {
		standing.Team = registrations[standing.RegistrationID]
	}
	return nil
}

// sortStandings применяет каскад тай-брейков; последний ключ — id команды,
// чтобы порядок был воспроизводим на одном и том же входе.
func sortStandings(standings []*models.Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TeamPoints != b.TeamPoints {
			return a.TeamPoints > b.TeamPoints
		}
		if a.SpeakerPoints != b.SpeakerPoints {
			return a.SpeakerPoints > b.SpeakerPoints
		}
		if a.AverageSpeakerScore != b.AverageSpeakerScore {
			return a.AverageSpeakerScore > b.AverageSpeakerScore
		}
		if a.FirstPlaces != b.FirstPlaces {
			return a.FirstPlaces > b.FirstPlaces
		}
		if a.SecondPlaces != b.SecondPlaces {
			return a.SecondPlaces > b.SecondPlaces
		}
		return a.RegistrationID < b.RegistrationID
	})
}

type standingKey struct {
	registrationID int
	scope          models.StandingScope
}

// foldScoreLines сворачивает плоские строки оценок в standings: сначала по
// (комната, команда) — у обеих строк спикеров одно место команды, — затем в
// общий зачёт и в разрез каждой фазы.
func foldScoreLines(competitionID int, lines []models.ScoreLine) ([]*models.Standing, error) {
	type teamMatch struct {
		registrationID int
		stage          models.Stage
		rank           int
		speakerPoints  float64
	}
	type matchKey struct {
		matchID        int
		registrationID int
	}

	perMatch := make(map[matchKey]*teamMatch)
	for _, line := range lines {
		key := matchKey{matchID: line.MatchID, registrationID: line.RegistrationID}
		entry, ok := perMatch[key]
		if !ok {
			entry = &teamMatch{
				registrationID: line.RegistrationID,
				stage:          line.Stage,
				rank:           line.TeamRank,
			}
			perMatch[key] = entry
		}
		entry.speakerPoints += line.Points
	}

	accumulate := make(map[standingKey]*models.Standing)
	get := func(registrationID int, scope models.StandingScope) *models.Standing {
		key := standingKey{registrationID: registrationID, scope: scope}
		standing, ok := accumulate[key]
		if !ok {
			standing = &models.Standing{
				CompetitionID:  competitionID,
				RegistrationID: registrationID,
				Scope:          scope,
			}
			accumulate[key] = standing
		}
		return standing
	}

	for _, entry := range perMatch {
		vp, err := models.VictoryPointsForRank(entry.rank)
		if err != nil {
			return nil, fmt.Errorf("corrupt score rows for team %d: %w", entry.registrationID, err)
		}
		scopes := [2]models.StandingScope{models.ScopeOverall, models.ScopeForStage(entry.stage)}
		for _, scope := range scopes {
			standing := get(entry.registrationID, scope)
			standing.MatchesPlayed++
			standing.TeamPoints += vp
			standing.SpeakerPoints += entry.speakerPoints
			switch entry.rank {
			case 1:
				standing.FirstPlaces++
			case 2:
				standing.SecondPlaces++
			case 3:
				standing.ThirdPlaces++
			case 4:
				standing.FourthPlaces++
			}
		}
	}

	now := time.Now()
	standings := make([]*models.Standing, 0, len(accumulate))
	for _, standing := range accumulate {
		if standing.MatchesPlayed > 0 {
			standing.AverageSpeakerScore = standing.SpeakerPoints / float64(standing.MatchesPlayed*2)
		}
		standing.UpdatedAt = now
		standings = append(standings, standing)
	}

	// Детерминированный порядок вставки упрощает диагностику и тесты.
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].RegistrationID != standings[j].RegistrationID {
			return standings[i].RegistrationID < standings[j].RegistrationID
		}
		return standings[i].Scope < standings[j].Scope
	})
	return standings, nil
}
