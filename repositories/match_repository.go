package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchNumberConflict = errors.New("match number already exists in round")
	ErrBookingConflict     = errors.New("team already booked in this round")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Match, error)
	UpdateTeams(ctx context.Context, exec SQLExecutor, matchID int, teams [models.BenchCount]*int) error
	UpdateJudge(ctx context.Context, exec SQLExecutor, matchID int, judgeID *int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus) error
	UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, judgeID int, placements [models.BenchCount]*int, completedAt time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, matchID int) error
	ReplaceBookings(ctx context.Context, exec SQLExecutor, matchID int, bookings []models.RoundBooking) error
	ListBookingsByRound(ctx context.Context, roundID int) ([]models.RoundBooking, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, round_id, match_number, team1_id, team2_id, team3_id, team4_id,
	judge_id, status, first_place_id, second_place_id, third_place_id, fourth_place_id,
	completed_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (round_id, match_number, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if match.Status == "" {
		match.Status = models.MatchStatusScheduled
	}
	err := executor.QueryRowContext(ctx, query, match.RoundID, match.MatchNumber, match.Status).
		Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "matches_round_match_number_key" {
			return ErrMatchNumberConflict
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE round_id = $1 ORDER BY match_number ASC`
	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for round %d: %w", roundID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, matchID int, teams [models.BenchCount]*int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET team1_id = $1, team2_id = $2, team3_id = $3, team4_id = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query, teams[0], teams[1], teams[2], teams[3], matchID)
	if err != nil {
		return fmt.Errorf("failed to update teams for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateJudge(ctx context.Context, exec SQLExecutor, matchID int, judgeID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE matches SET judge_id = $1 WHERE id = $2`, judgeID, matchID)
	if err != nil {
		return fmt.Errorf("failed to update judge for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, matchID)
	if err != nil {
		return fmt.Errorf("failed to update status for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, judgeID int, placements [models.BenchCount]*int, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET judge_id = $1,
		    first_place_id = $2, second_place_id = $3, third_place_id = $4, fourth_place_id = $5,
		    status = $6, completed_at = $7
		WHERE id = $8`
	result, err := executor.ExecContext(ctx, query,
		judgeID, placements[0], placements[1], placements[2], placements[3],
		models.MatchStatusCompleted, completedAt, matchID,
	)
	if err != nil {
		return fmt.Errorf("failed to update result for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// ReplaceBookings переписывает брони комнаты в round_bookings. Нарушение
// UNIQUE(round_id, registration_id) означает, что параллельный запрос уже
// посадил одну из команд в другую комнату этого раунда.
func (r *postgresMatchRepository) ReplaceBookings(ctx context.Context, exec SQLExecutor, matchID int, bookings []models.RoundBooking) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM round_bookings WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear bookings for match %d: %w", matchID, err)
	}

	for _, b := range bookings {
		_, err := executor.ExecContext(ctx, `
			INSERT INTO round_bookings (round_id, registration_id, match_id, bench)
			VALUES ($1, $2, $3, $4)`,
			b.RoundID, b.RegistrationID, b.MatchID, b.Bench,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Constraint == "round_bookings_round_registration_key" {
				return fmt.Errorf("%w: team %d", ErrBookingConflict, b.RegistrationID)
			}
			return fmt.Errorf("failed to insert booking for match %d: %w", matchID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListBookingsByRound(ctx context.Context, roundID int) ([]models.RoundBooking, error) {
	query := `
		SELECT round_id, registration_id, match_id, bench
		FROM round_bookings
		WHERE round_id = $1`
	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings for round %d: %w", roundID, err)
	}
	defer rows.Close()

	bookings := make([]models.RoundBooking, 0)
	for rows.Next() {
		var b models.RoundBooking
		if scanErr := rows.Scan(&b.RoundID, &b.RegistrationID, &b.MatchID, &b.Bench); scanErr != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", scanErr)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during booking rows iteration: %w", err)
	}
	return bookings, nil
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID,
		&m.RoundID,
		&m.MatchNumber,
		&m.Team1ID,
		&m.Team2ID,
		&m.Team3ID,
		&m.Team4ID,
		&m.JudgeID,
		&m.Status,
		&m.FirstPlaceID,
		&m.SecondPlaceID,
		&m.ThirdPlaceID,
		&m.FourthPlaceID,
		&m.CompletedAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return &m, nil
}
