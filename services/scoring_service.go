package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dimas292/caturnawa2025-sub004/metrics"
	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
)

const (
	minSpeakerScore = 0
	maxSpeakerScore = 100
)

// SpeakerScores — оценки двух спикеров одной скамьи от судьи комнаты.
type SpeakerScores struct {
	Speaker1 *float64 `json:"speaker1"`
	Speaker2 *float64 `json:"speaker2"`
}

type SubmitScoresInput struct {
	JudgeID int            `json:"judge_id"`
	Team1   *SpeakerScores `json:"team1"`
	Team2   *SpeakerScores `json:"team2"`
	Team3   *SpeakerScores `json:"team3"`
	Team4   *SpeakerScores `json:"team4"`

	// Слоты комнаты (1..4) от первого места к последнему.
	Ranking []int `json:"ranking"`
}

func (in SubmitScoresInput) sheets() [models.BenchCount]*SpeakerScores {
	return [models.BenchCount]*SpeakerScores{in.Team1, in.Team2, in.Team3, in.Team4}
}

type PlacementResult struct {
	Rank          int    `json:"rank"`
	Slot          int    `json:"slot"`
	TeamID        int    `json:"team_id"`
	Bench         string `json:"bench"`
	VictoryPoints int    `json:"victory_points"`
}

type SubmitScoresResult struct {
	Match          *models.Match     `json:"match"`
	ScoresRecorded int               `json:"scores_recorded"`
	Placements     []PlacementResult `json:"placements"`

	// Нефатальные находки о качестве данных (короткий состав и т.п.);
	// подача принимается, но их должна разобрать подсистема регистрации.
	Warnings []string `json:"warnings,omitempty"`
}

// ScoringService ведёт жизненный цикл комнаты scheduled → live → completed и
// атомарно коммитит полный протокол судьи.
type ScoringService interface {
	SetLive(ctx context.Context, matchID int, live bool) (*models.Match, error)
	AssignJudge(ctx context.Context, matchID int, judgeID *int) (*models.Match, error)
	SubmitScores(ctx context.Context, matchID int, input SubmitScoresInput) (*SubmitScoresResult, error)
}

type scoringService struct {
	db               *sql.DB
	matchRepo        repositories.MatchRepository
	roundRepo        repositories.RoundRepository
	registrationRepo repositories.RegistrationRepository
	scoreRepo        repositories.ScoreRepository
	standings        StandingsService
	logger           *slog.Logger
}

func NewScoringService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundRepository,
	registrationRepo repositories.RegistrationRepository,
	scoreRepo repositories.ScoreRepository,
	standings StandingsService,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		db:               db,
		matchRepo:        matchRepo,
		roundRepo:        roundRepo,
		registrationRepo: registrationRepo,
		scoreRepo:        scoreRepo,
		standings:        standings,
		logger:           logger,
	}
}

// SetLive — явное действие оператора, не связанное с подачей оценок.
// Завершённую комнату назад в live не переводят.
func (s *scoringService) SetLive(ctx context.Context, matchID int, live bool) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, fmt.Errorf("%w: room %d", ErrRoomCompleted, match.MatchNumber)
	}

	status := models.MatchStatusScheduled
	if live {
		status = models.MatchStatusLive
	}
	if match.Status == status {
		return match, nil
	}
	if err := s.matchRepo.UpdateStatus(ctx, nil, matchID, status); err != nil {
		return nil, err
	}
	match.Status = status
	return match, nil
}

// AssignJudge назначает судью комнаты. Снять судью с комнаты, по которой уже
// есть оценки, нельзя — протокол принадлежит единственному судье.
func (s *scoringService) AssignJudge(ctx context.Context, matchID int, judgeID *int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if judgeID == nil {
		hasScores, err := s.scoreRepo.ExistsByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if hasScores {
			return nil, fmt.Errorf("%w: room %d", ErrRoomHasScores, match.MatchNumber)
		}
	}
	if err := s.matchRepo.UpdateJudge(ctx, nil, matchID, judgeID); err != nil {
		return nil, err
	}
	match.JudgeID = judgeID
	return match, nil
}

func (s *scoringService) SubmitScores(ctx context.Context, matchID int, input SubmitScoresInput) (*SubmitScoresResult, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return nil, err
	}

	slots := match.TeamSlots()
	occupied := make([]int, 0, models.BenchCount)
	teamIDs := make([]int, 0, models.BenchCount)
	for i, teamID := range slots {
		if teamID != nil {
			occupied = append(occupied, i+1)
			teamIDs = append(teamIDs, *teamID)
		}
	}
	if len(occupied) == 0 {
		return nil, ErrMatchNoTeams
	}

	rankBySlot, err := validateRanking(input.Ranking, occupied)
	if err != nil {
		return nil, err
	}

	registrations, err := s.registrationRepo.ListByIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	sheets := input.sheets()
	scores := make([]*models.Score, 0, len(occupied)*2)
	warnings := make([]string, 0)
	var placements [models.BenchCount]*int
	placementResults := make([]PlacementResult, 0, len(occupied))

	for _, slot := range occupied {
		teamID := *slots[slot-1]
		reg, ok := registrations[teamID]
		if !ok {
			return nil, fmt.Errorf("%w: team %d in slot %d", ErrRegistrationNotFound, teamID, slot)
		}

		bench, err := models.BenchFromSlot(slot)
		if err != nil {
			return nil, err
		}
		sheet := sheets[slot-1]
		if sheet == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingTeamSheet, bench.Label())
		}

		rank := rankBySlot[slot]
		vp, err := models.VictoryPointsForRank(rank)
		if err != nil {
			return nil, err
		}

		teamScores, teamWarnings, err := buildTeamScores(match.ID, input.JudgeID, reg, bench, rank, sheet)
		if err != nil {
			return nil, err
		}
		scores = append(scores, teamScores...)
		warnings = append(warnings, teamWarnings...)

		id := teamID
		placements[rank-1] = &id
		placementResults = append(placementResults, PlacementResult{
			Rank:          rank,
			Slot:          slot,
			TeamID:        teamID,
			Bench:         bench.Label(),
			VictoryPoints: vp,
		})
	}

	completedAt := time.Now()
	// Повторная подача заменяет весь набор оценок комнаты; частично
	// заменённый набор наружу не виден.
	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.scoreRepo.DeleteByMatch(ctx, tx, match.ID); err != nil {
			return err
		}
		if err := s.scoreRepo.BatchInsert(ctx, tx, scores); err != nil {
			return err
		}
		return s.matchRepo.UpdateResult(ctx, tx, match.ID, input.JudgeID, placements, completedAt)
	})
	if err != nil {
		return nil, err
	}
	metrics.ScoreSubmissions.Inc()

	// Standings — производная проекция; пересчёт идемпотентен и при сбое
	// может быть запущен повторно вручную.
	if err := s.standings.Recompute(ctx, round.CompetitionID); err != nil {
		s.logger.Warn("standings recompute after submission failed",
			slog.Int("competition_id", round.CompetitionID),
			slog.Int("match_id", match.ID),
			slog.Any("error", err))
	}

	updated, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return &SubmitScoresResult{
		Match:          updated,
		ScoresRecorded: len(scores),
		Placements:     placementResults,
		Warnings:       warnings,
	}, nil
}

func (s *scoringService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// validateRanking проверяет, что ranking — перестановка занятых слотов, и
// возвращает место каждого слота.
func validateRanking(ranking []int, occupied []int) (map[int]int, error) {
	if len(ranking) != len(occupied) {
		return nil, fmt.Errorf("%w: got %d entries for %d occupied benches",
			ErrRankingNotPermutation, len(ranking), len(occupied))
	}
	isOccupied := make(map[int]bool, len(occupied))
	for _, slot := range occupied {
		isOccupied[slot] = true
	}

	rankBySlot := make(map[int]int, len(ranking))
	for position, slot := range ranking {
		if slot < 1 || slot > models.BenchCount {
			return nil, fmt.Errorf("%w: slot %d does not exist", ErrRankingNotPermutation, slot)
		}
		if !isOccupied[slot] {
			return nil, fmt.Errorf("%w: slot %d is empty", ErrRankingNotPermutation, slot)
		}
		if _, dup := rankBySlot[slot]; dup {
			return nil, fmt.Errorf("%w: slot %d ranked twice", ErrRankingNotPermutation, slot)
		}
		rankBySlot[slot] = position + 1
	}
	return rankBySlot, nil
}

// buildTeamScores собирает строки оценок скамьи. Каждый спикер наследует
// место своей команды в комнате, индивидуального места у спикера нет.
func buildTeamScores(matchID, judgeID int, reg *models.Registration, bench models.Bench, rank int, sheet *SpeakerScores) ([]*models.Score, []string, error) {
	marks := [2]*float64{sheet.Speaker1, sheet.Speaker2}
	scores := make([]*models.Score, 0, 2)
	warnings := make([]string, 0)

	for position := 1; position <= 2; position++ {
		speaker := reg.SpeakerAt(position)
		mark := marks[position-1]
		if speaker == nil {
			// Короткий состав: оцениваем тех, кто есть, и сообщаем наверх.
			warnings = append(warnings, fmt.Sprintf(
				"team %q has no speaker at position %d, scored with a short roster", reg.TeamName, position))
			continue
		}
		if mark == nil {
			return nil, nil, fmt.Errorf("%w: %s speaker %d has no mark", ErrMissingTeamSheet, bench.Label(), position)
		}
		if *mark < minSpeakerScore || *mark > maxSpeakerScore {
			return nil, nil, fmt.Errorf("%w: %.2f for %s speaker %d", ErrScoreOutOfRange, *mark, bench.Label(), position)
		}
		role, err := bench.SpeakerRole(position)
		if err != nil {
			return nil, nil, err
		}
		scores = append(scores, &models.Score{
			MatchID:         matchID,
			RegistrationID:  reg.ID,
			SpeakerID:       speaker.ID,
			JudgeID:         judgeID,
			BenchLabel:      bench.Label(),
			SpeakerRole:     role,
			SpeakerPosition: position,
			Points:          *mark,
			TeamRank:        rank,
		})
	}

	if len(scores) == 0 {
		return nil, nil, fmt.Errorf("%w: team %q", ErrTeamNoSpeakers, reg.TeamName)
	}
	return scores, warnings, nil
}
