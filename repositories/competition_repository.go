package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/lib/pq"
)

var (
	ErrCompetitionNotFound     = errors.New("competition not found")
	ErrCompetitionTypeConflict = errors.New("competition type already exists")
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	GetByType(ctx context.Context, compType models.CompetitionType) (*models.Competition, error)
	List(ctx context.Context) ([]*models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	query := `
		INSERT INTO competitions (name, type)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, competition.Name, competition.Type).
		Scan(&competition.ID, &competition.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "competitions_type_key" {
			return ErrCompetitionTypeConflict
		}
		return fmt.Errorf("failed to insert competition: %w", err)
	}
	return nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT id, name, type, created_at FROM competitions WHERE id = $1`
	return r.scanCompetition(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCompetitionRepository) GetByType(ctx context.Context, compType models.CompetitionType) (*models.Competition, error) {
	query := `SELECT id, name, type, created_at FROM competitions WHERE type = $1`
	return r.scanCompetition(r.db.QueryRowContext(ctx, query, compType))
}

func (r *postgresCompetitionRepository) List(ctx context.Context) ([]*models.Competition, error) {
	query := `SELECT id, name, type, created_at FROM competitions ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions: %w", err)
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", scanErr)
		}
		competitions = append(competitions, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) scanCompetition(row *sql.Row) (*models.Competition, error) {
	var c models.Competition
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to scan competition: %w", err)
	}
	return &c, nil
}
