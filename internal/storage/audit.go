package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/observability"
)

// AppendAuditLog inserts an audit row. Rows are never updated or
// deleted afterwards.
func (s *PostgresStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, person_id, changes, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.PersonID, entry.Changes, entry.IPAddress,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	observability.AuditWrites.WithLabelValues(string(entry.Action)).Inc()
	return nil
}

func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, person_id, changes, ip_address, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.PersonID, &entry.Changes, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, total, nil
}
