package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
	"github.com/your-org/familytree/pkg/dto"
)

// writeAudit appends an audit row. Failures are logged, never surfaced:
// an audit miss must not fail the request that triggered it.
func writeAudit(c *gin.Context, db *storage.PostgresStore, ident *auth.Identity,
	action models.AuditAction, entityType, entityID string, personID *uuid.UUID, changes interface{}) {

	var raw json.RawMessage
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			slog.Error("marshal audit changes", "error", err)
		} else {
			raw = data
		}
	}

	ip := c.ClientIP()
	entry := &models.AuditLog{
		UserID:     ident.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		PersonID:   personID,
		Changes:    raw,
		IPAddress:  &ip,
	}
	if err := db.AppendAuditLog(c.Request.Context(), entry); err != nil {
		slog.Error("failed to write audit log", "error", err, "action", action, "entity", entityType)
	}
}

// publishChange emits a change event best-effort; the WebSocket feed is
// advisory and must not fail mutations.
func publishChange(ctx context.Context, producer *queue.Producer, event *dto.ChangeEvent) {
	if producer == nil {
		return
	}
	if err := producer.PublishChange(ctx, event); err != nil {
		slog.Error("publish change event", "error", err, "type", event.Type)
	}
}

func toPersonRef(p *models.Person) *dto.PersonRef {
	if p == nil {
		return nil
	}
	return &dto.PersonRef{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		PhotoKey:    p.PhotoKey,
	}
}

func refFromModel(ref models.PersonRef) dto.PersonRef {
	return dto.PersonRef{
		ID:          ref.ID,
		FirstName:   ref.FirstName,
		LastName:    ref.LastName,
		DateOfBirth: ref.DateOfBirth,
		PhotoKey:    ref.PhotoKey,
	}
}

func toUserResponse(u *models.User, person *models.Person) dto.UserResponse {
	resp := dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		PersonID:    u.PersonID,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
	if person != nil {
		resp.Person = toPersonRef(person)
	}
	return resp
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}
