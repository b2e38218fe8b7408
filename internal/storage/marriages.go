package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/models"
)

func (s *PostgresStore) CreateMarriage(ctx context.Context, m *models.Marriage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MarriageStatusMarried
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO marriages (id, spouse1_id, spouse2_id, status, marriage_date, marriage_place)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		m.ID, m.Spouse1ID, m.Spouse2ID, m.Status, m.MarriageDate, m.MarriagePlace,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create marriage: %w", err)
	}
	return nil
}

// ListMarriages returns every marriage a person appears in, checking
// both spouse slots.
func (s *PostgresStore) ListMarriages(ctx context.Context, personID uuid.UUID) ([]models.Marriage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, spouse1_id, spouse2_id, status, marriage_date, marriage_place, created_at
		 FROM marriages WHERE spouse1_id = $1 OR spouse2_id = $1 ORDER BY created_at ASC`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("list marriages: %w", err)
	}
	defer rows.Close()

	var marriages []models.Marriage
	for rows.Next() {
		var m models.Marriage
		if err := rows.Scan(&m.ID, &m.Spouse1ID, &m.Spouse2ID, &m.Status,
			&m.MarriageDate, &m.MarriagePlace, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marriage: %w", err)
		}
		marriages = append(marriages, m)
	}
	return marriages, nil
}

// ReplaceMarriages drops every marriage involving the person and
// recreates the given set. The profile editor submits the full spouse
// list on each save.
func (s *PostgresStore) ReplaceMarriages(ctx context.Context, personID uuid.UUID, marriages []models.Marriage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace marriages: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM marriages WHERE spouse1_id = $1 OR spouse2_id = $1`, personID); err != nil {
		return fmt.Errorf("clear marriages: %w", err)
	}

	for i := range marriages {
		m := &marriages[i]
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.Status == "" {
			m.Status = models.MarriageStatusMarried
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO marriages (id, spouse1_id, spouse2_id, status, marriage_date, marriage_place)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.Spouse1ID, m.Spouse2ID, m.Status, m.MarriageDate, m.MarriagePlace); err != nil {
			return fmt.Errorf("insert marriage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace marriages: %w", err)
	}
	return nil
}
