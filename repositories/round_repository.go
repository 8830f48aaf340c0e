package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/lib/pq"
)

var (
	ErrRoundNotFound         = errors.New("round not found")
	ErrRoundIdentityConflict = errors.New("round identity already exists")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByName(ctx context.Context, competitionID int, name string) (*models.Round, error)
	FindByIdentity(ctx context.Context, competitionID int, stage models.Stage, roundNumber, session int) (*models.Round, error)
	ListByCompetition(ctx context.Context, competitionID int, stage *models.Stage) ([]*models.Round, error)
	UpdateIdentity(ctx context.Context, exec SQLExecutor, roundID int, roundNumber, session int) error
	UpdateMotion(ctx context.Context, exec SQLExecutor, roundID int, motion *string) error
	Delete(ctx context.Context, exec SQLExecutor, roundID int) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundColumns = `id, competition_id, stage, round_number, session, name, motion, created_at`

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO rounds (competition_id, stage, round_number, session, name, motion)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		round.CompetitionID, round.Stage, round.RoundNumber, round.Session, round.Name, round.Motion,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "rounds_identity_key" {
			return ErrRoundIdentityConflict
		}
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	return r.scanRound(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) GetByName(ctx context.Context, competitionID int, name string) (*models.Round, error) {
	// Несколько раундов с одним именем — признак ошибки ввода; берём самый
	// старый, остальное разбирает операция очистки дубликатов.
	query := `SELECT ` + roundColumns + ` FROM rounds
		WHERE competition_id = $1 AND name = $2
		ORDER BY id ASC
		LIMIT 1`
	return r.scanRound(r.db.QueryRowContext(ctx, query, competitionID, name))
}

func (r *postgresRoundRepository) FindByIdentity(ctx context.Context, competitionID int, stage models.Stage, roundNumber, session int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds
		WHERE competition_id = $1 AND stage = $2 AND round_number = $3 AND session = $4`
	return r.scanRound(r.db.QueryRowContext(ctx, query, competitionID, stage, roundNumber, session))
}

func (r *postgresRoundRepository) ListByCompetition(ctx context.Context, competitionID int, stage *models.Stage) ([]*models.Round, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + roundColumns + ` FROM rounds WHERE competition_id = $1`)

	args := []interface{}{competitionID}
	if stage != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *stage)
	}
	queryBuilder.WriteString(" ORDER BY stage ASC, round_number ASC, session ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round, scanErr := r.scanRound(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) UpdateIdentity(ctx context.Context, exec SQLExecutor, roundID int, roundNumber, session int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rounds SET round_number = $1, session = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, roundNumber, session, roundID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "rounds_identity_key" {
			return ErrRoundIdentityConflict
		}
		return fmt.Errorf("failed to update round %d identity: %w", roundID, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) UpdateMotion(ctx context.Context, exec SQLExecutor, roundID int, motion *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rounds SET motion = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, motion, roundID)
	if err != nil {
		return fmt.Errorf("failed to update round %d motion: %w", roundID, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) Delete(ctx context.Context, exec SQLExecutor, roundID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM rounds WHERE id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("failed to delete round %d: %w", roundID, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) scanRound(rowScanner interface{ Scan(...interface{}) error }) (*models.Round, error) {
	var round models.Round
	err := rowScanner.Scan(
		&round.ID,
		&round.CompetitionID,
		&round.Stage,
		&round.RoundNumber,
		&round.Session,
		&round.Name,
		&round.Motion,
		&round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return &round, nil
}
