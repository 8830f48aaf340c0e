package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dimas292/caturnawa2025-sub004/models"
)

var ErrScoreNotFound = errors.New("score not found")

type ScoreRepository interface {
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
	BatchInsert(ctx context.Context, exec SQLExecutor, scores []*models.Score) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.Score, error)
	CountByMatch(ctx context.Context, matchID int) (int, error)
	ExistsByMatch(ctx context.Context, matchID int) (bool, error)
	ExistsByRound(ctx context.Context, roundID int) (bool, error)
	ListLinesByCompetition(ctx context.Context, competitionID int) ([]models.ScoreLine, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	// Ноль удалённых строк — не ошибка: первая подача для комнаты.
	_, err := executor.ExecContext(ctx, `DELETE FROM scores WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete scores for match %d: %w", matchID, err)
	}
	return nil
}

func (r *postgresScoreRepository) BatchInsert(ctx context.Context, exec SQLExecutor, scores []*models.Score) error {
	executor := r.getExecutor(exec)
	if len(scores) == 0 {
		return nil
	}

	query := `
		INSERT INTO scores
			(match_id, registration_id, speaker_id, judge_id, bench_label,
			 speaker_role, speaker_position, points, team_rank)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	for _, score := range scores {
		err := executor.QueryRowContext(ctx, query,
			score.MatchID,
			score.RegistrationID,
			score.SpeakerID,
			score.JudgeID,
			score.BenchLabel,
			score.SpeakerRole,
			score.SpeakerPosition,
			score.Points,
			score.TeamRank,
		).Scan(&score.ID, &score.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert score for speaker %d in match %d: %w",
				score.SpeakerID, score.MatchID, err)
		}
	}
	return nil
}

func (r *postgresScoreRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Score, error) {
	query := `
		SELECT id, match_id, registration_id, speaker_id, judge_id, bench_label,
		       speaker_role, speaker_position, points, team_rank, created_at
		FROM scores
		WHERE match_id = $1
		ORDER BY team_rank ASC, speaker_position ASC`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores for match %d: %w", matchID, err)
	}
	defer rows.Close()

	scores := make([]*models.Score, 0)
	for rows.Next() {
		var s models.Score
		if scanErr := rows.Scan(
			&s.ID, &s.MatchID, &s.RegistrationID, &s.SpeakerID, &s.JudgeID,
			&s.BenchLabel, &s.SpeakerRole, &s.SpeakerPosition, &s.Points,
			&s.TeamRank, &s.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", scanErr)
		}
		scores = append(scores, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during score rows iteration: %w", err)
	}
	return scores, nil
}

func (r *postgresScoreRepository) CountByMatch(ctx context.Context, matchID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE match_id = $1`, matchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scores for match %d: %w", matchID, err)
	}
	return count, nil
}

func (r *postgresScoreRepository) ExistsByMatch(ctx context.Context, matchID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM scores WHERE match_id = $1)`, matchID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check scores for match %d: %w", matchID, err)
	}
	return exists, nil
}

func (r *postgresScoreRepository) ExistsByRound(ctx context.Context, roundID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM scores s
			JOIN matches m ON m.id = s.match_id
			WHERE m.round_id = $1
		)`, roundID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check scores for round %d: %w", roundID, err)
	}
	return exists, nil
}

// ListLinesByCompetition отдаёт плоскую проекцию всех закоммиченных оценок
// соревнования для полного пересчёта standings.
func (r *postgresScoreRepository) ListLinesByCompetition(ctx context.Context, competitionID int) ([]models.ScoreLine, error) {
	query := `
		SELECT s.match_id, r.stage, s.registration_id, s.points, s.team_rank
		FROM scores s
		JOIN matches m ON m.id = s.match_id
		JOIN rounds r ON r.id = m.round_id
		WHERE r.competition_id = $1 AND m.status = $2
		ORDER BY s.match_id ASC, s.registration_id ASC`
	rows, err := r.db.QueryContext(ctx, query, competitionID, models.MatchStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query score lines for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	lines := make([]models.ScoreLine, 0)
	for rows.Next() {
		var line models.ScoreLine
		if scanErr := rows.Scan(&line.MatchID, &line.Stage, &line.RegistrationID, &line.Points, &line.TeamRank); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score line: %w", scanErr)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during score line iteration: %w", err)
	}
	return lines, nil
}
