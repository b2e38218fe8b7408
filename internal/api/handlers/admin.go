package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/observability"
	"github.com/your-org/familytree/internal/policy"
	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
	"github.com/your-org/familytree/pkg/dto"
)

// AdminHandler owns the approval workflow, user management, stats, and
// manual person registration. Every route is behind RequireRoles(ADMIN).
type AdminHandler struct {
	db        *storage.PostgresStore
	estimator *policy.Estimator
	producer  *queue.Producer
}

func NewAdminHandler(db *storage.PostgresStore, estimator *policy.Estimator, producer *queue.Producer) *AdminHandler {
	return &AdminHandler{db: db, estimator: estimator, producer: producer}
}

func (h *AdminHandler) PendingProfiles(c *gin.Context) {
	profiles, err := h.db.ListPendingProfiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending profiles"})
		return
	}
	if profiles == nil {
		profiles = []models.Person{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h *AdminHandler) ApproveProfile(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve profile"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	if err := h.db.UpdateProfileStatus(c.Request.Context(), personID,
		models.ProfileStatusApproved, nil, ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve profile"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "Person", personID.String(), &personID,
		gin.H{"action": "approved_profile", "previous_status": person.ProfileStatus})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventProfileApproved,
		PersonID: &personID,
		ActorID:  ident.UserID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Profile approved successfully"})
}

func (h *AdminHandler) RejectProfile(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	var req dto.RejectProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		return
	}
	reason := strings.TrimSpace(req.Reason)

	person, err := h.db.GetPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject profile"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	if err := h.db.UpdateProfileStatus(c.Request.Context(), personID,
		models.ProfileStatusRejected, &reason, ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject profile"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "Person", personID.String(), &personID,
		gin.H{"action": "rejected_profile", "reason": reason, "previous_status": person.ProfileStatus})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventProfileRejected,
		PersonID: &personID,
		ActorID:  ident.UserID,
		Data:     gin.H{"reason": reason},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Profile rejected successfully"})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit, offset := parsePage(c, 50)
	search := c.Query("search")

	users, total, err := h.db.ListUsers(c.Request.Context(), search, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		var person *models.Person
		if u.PersonID != nil {
			person, _ = h.db.GetPerson(c.Request.Context(), *u.PersonID)
		}
		resp = append(resp, toUserResponse(u, person))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"pagination": dto.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	})
}

// SetUserStatus activates or deactivates an account. Admins cannot
// deactivate themselves.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req dto.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active must be a boolean"})
		return
	}

	if userID == ident.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
		return
	}

	user, err := h.db.SetUserActive(c.Request.Context(), userID, *req.IsActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user status"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	note := "deactivated_user"
	if *req.IsActive {
		note = "activated_user"
	}
	writeAudit(c, h.db, ident, models.AuditActionUpdate, "User", userID.String(), nil,
		gin.H{"action": note})

	c.JSON(http.StatusOK, toUserResponse(user, nil))
}

// DeleteUser removes an account. Admins cannot delete themselves; the
// person link is severed, the person record stays.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if userID == ident.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	user, err := h.db.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.DeleteUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionDelete, "User", userID.String(), nil,
		gin.H{"action": "deleted_user", "email": user.Email})

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.db.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch statistics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, limit, offset := parsePage(c, 50)

	logs, total, err := h.db.ListAuditLogs(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": dto.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	})
}

// GenerationSuggestion estimates the generation a new person would
// belong to, given its prospective parents.
func (h *AdminHandler) GenerationSuggestion(c *gin.Context) {
	var fatherID, motherID *uuid.UUID

	if v := c.Query("biological_father_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid biological_father_id"})
			return
		}
		fatherID = &id
	}
	if v := c.Query("biological_mother_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid biological_mother_id"})
			return
		}
		motherID = &id
	}

	start := time.Now()
	generation, err := h.estimator.EstimateGeneration(c.Request.Context(), fatherID, motherID)
	observability.GenerationEstimateDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, policy.ErrAncestryCycle) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Ancestry chain contains a cycle"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate generation suggestion"})
		return
	}

	c.JSON(http.StatusOK, dto.GenerationSuggestion{SuggestedGeneration: generation})
}

// RegisterPerson is the manual admin registration flow: the record is
// auto-approved and its generation computed from the parent links.
func (h *AdminHandler) RegisterPerson(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "First name and last name are required"})
		return
	}

	generation, err := h.estimator.EstimateGeneration(c.Request.Context(),
		req.BiologicalFatherID, req.BiologicalMotherID)
	if err != nil {
		if errors.Is(err, policy.ErrAncestryCycle) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Ancestry chain contains a cycle"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register person"})
		return
	}

	person := personFromCreateRequest(&req)
	person.Generation = generation
	person.ProfileStatus = models.ProfileStatusApproved
	person.CreatedBy = &ident.UserID
	person.UpdatedBy = &ident.UserID

	if err := h.db.CreatePerson(c.Request.Context(), person); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register person"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionCreate, "Person", person.ID.String(), &person.ID,
		gin.H{"action": "admin_manual_registration", "generation": generation})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventPersonCreated,
		PersonID: &person.ID,
		ActorID:  ident.UserID,
		Data:     toPersonRef(person),
	})

	c.JSON(http.StatusCreated, gin.H{"person": person, "generation": generation})
}
