package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/lib/pq"
)

var ErrRegistrationNotFound = errors.New("registration not found")

// RegistrationRepository — читающий интерфейс к таблицам внешней подсистемы
// регистрации. Движок подсчёта ничего в них не пишет.
type RegistrationRepository interface {
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	ListByIDs(ctx context.Context, ids []int) (map[int]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	registrations, err := r.ListByIDs(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	registration, ok := registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	return registration, nil
}

func (r *postgresRegistrationRepository) ListByIDs(ctx context.Context, ids []int) (map[int]*models.Registration, error) {
	result := make(map[int]*models.Registration, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, competition_id, team_name, status
		FROM registrations
		WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(&reg.ID, &reg.CompetitionID, &reg.TeamName, &reg.Status); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		reg.Speakers = make([]models.Speaker, 0, 2)
		result[reg.ID] = &reg
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}

	if err := r.attachSpeakers(ctx, result, ids); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRegistrationRepository) attachSpeakers(ctx context.Context, registrations map[int]*models.Registration, ids []int) error {
	query := `
		SELECT id, registration_id, position, full_name
		FROM speakers
		WHERE registration_id = ANY($1)
		ORDER BY registration_id ASC, position ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query speakers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Speaker
		if scanErr := rows.Scan(&s.ID, &s.RegistrationID, &s.Position, &s.FullName); scanErr != nil {
			return fmt.Errorf("failed to scan speaker row: %w", scanErr)
		}
		if reg, ok := registrations[s.RegistrationID]; ok {
			reg.Speakers = append(reg.Speakers, s)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error during speaker rows iteration: %w", err)
	}
	return nil
}
