package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/familytree/internal/models"
)

const userColumns = `id, email, password_hash, role, is_active, person_id, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.PersonID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error) {
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, role, is_active) VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id), u)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email), u)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByPersonID returns the user account linked to a person, if any.
func (s *PostgresStore) GetUserByPersonID(ctx context.Context, personID uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE person_id = $1`, personID), u)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by person id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) LinkPerson(ctx context.Context, userID, personID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET person_id = $2, updated_at = now() WHERE id = $1`, userID, personID)
	if err != nil {
		return fmt.Errorf("link person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		userID, role), u)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		userID, active), u)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("set user active: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	return err
}

// ListUsers returns a page of users, optionally filtered by an email or
// linked-person name search.
func (s *PostgresStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	baseWhere := ""
	args := []interface{}{}
	argIdx := 1

	if search != "" {
		baseWhere = fmt.Sprintf(
			`WHERE u.email ILIKE $%d OR EXISTS (
				SELECT 1 FROM persons p WHERE p.id = u.person_id
				AND (p.first_name ILIKE $%d OR p.last_name ILIKE $%d))`,
			argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM users u " + baseWhere
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT u.id, u.email, u.password_hash, u.role, u.is_active, u.person_id, u.last_login_at, u.created_at, u.updated_at
		 FROM users u %s ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, nil
}

// Stats aggregates the dashboard counters in one round trip per counter.
type Stats struct {
	TotalUsers       int `json:"total_users"`
	TotalPeople      int `json:"total_people"`
	PendingProfiles  int `json:"pending_profiles"`
	ApprovedProfiles int `json:"approved_profiles"`
	RejectedProfiles int `json:"rejected_profiles"`
	DraftProfiles    int `json:"draft_profiles"`
	RecentLogins     int `json:"recent_logins"`
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	statusCount := func(status models.ProfileStatus, dest *int) error {
		return s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM persons WHERE profile_status = $1`, status).Scan(dest)
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM persons`).Scan(&stats.TotalPeople); err != nil {
		return nil, fmt.Errorf("count persons: %w", err)
	}
	if err := statusCount(models.ProfileStatusPending, &stats.PendingProfiles); err != nil {
		return nil, fmt.Errorf("count pending profiles: %w", err)
	}
	if err := statusCount(models.ProfileStatusApproved, &stats.ApprovedProfiles); err != nil {
		return nil, fmt.Errorf("count approved profiles: %w", err)
	}
	if err := statusCount(models.ProfileStatusRejected, &stats.RejectedProfiles); err != nil {
		return nil, fmt.Errorf("count rejected profiles: %w", err)
	}
	if err := statusCount(models.ProfileStatusDraft, &stats.DraftProfiles); err != nil {
		return nil, fmt.Errorf("count draft profiles: %w", err)
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE last_login_at >= $1`, weekAgo).Scan(&stats.RecentLogins); err != nil {
		return nil, fmt.Errorf("count recent logins: %w", err)
	}

	return stats, nil
}
