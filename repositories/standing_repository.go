package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dimas292/caturnawa2025-sub004/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	// ReplaceByCompetition удаляет все standings соревнования и вставляет
	// свежие внутри переданного executor (пересчёт всегда транзакционный).
	ReplaceByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, standings []*models.Standing) error
	ListByCompetition(ctx context.Context, competitionID int, scope models.StandingScope) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) ReplaceByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, standings []*models.Standing) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM standings WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to clear standings for competition %d: %w", competitionID, err)
	}

	query := `
		INSERT INTO standings
			(competition_id, registration_id, scope, team_points, speaker_points,
			 average_speaker_points, matches_played, first_places, second_places,
			 third_places, fourth_places, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	for _, standing := range standings {
		if standing.UpdatedAt.IsZero() {
			standing.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			standing.CompetitionID,
			standing.RegistrationID,
			standing.Scope,
			standing.TeamPoints,
			standing.SpeakerPoints,
			standing.AverageSpeakerScore,
			standing.MatchesPlayed,
			standing.FirstPlaces,
			standing.SecondPlaces,
			standing.ThirdPlaces,
			standing.FourthPlaces,
			standing.UpdatedAt,
		).Scan(&standing.ID)
		if err != nil {
			return fmt.Errorf("failed to insert standing for team %d scope %s: %w",
				standing.RegistrationID, standing.Scope, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) ListByCompetition(ctx context.Context, competitionID int, scope models.StandingScope) ([]*models.Standing, error) {
	// Каскад тай-брейков применяется сервисом в памяти; сортировка здесь
	// нужна только для воспроизводимого порядка чтения.
	query := `
		SELECT id, competition_id, registration_id, scope, team_points, speaker_points,
		       average_speaker_points, matches_played, first_places, second_places,
		       third_places, fourth_places, updated_at
		FROM standings
		WHERE competition_id = $1 AND scope = $2
		ORDER BY registration_id ASC`
	rows, err := r.db.QueryContext(ctx, query, competitionID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if scanErr := rows.Scan(
			&s.ID, &s.CompetitionID, &s.RegistrationID, &s.Scope, &s.TeamPoints,
			&s.SpeakerPoints, &s.AverageSpeakerScore, &s.MatchesPlayed,
			&s.FirstPlaces, &s.SecondPlaces, &s.ThirdPlaces, &s.FourthPlaces,
			&s.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}
