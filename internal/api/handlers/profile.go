package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/policy"
	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
	"github.com/your-org/familytree/pkg/dto"
)

// ProfileHandler serves the self-service editor: each user maintains
// exactly one person record, linked on first save.
type ProfileHandler struct {
	db        *storage.PostgresStore
	persons   *PersonHandler
	estimator *policy.Estimator
	producer  *queue.Producer
}

func NewProfileHandler(db *storage.PostgresStore, persons *PersonHandler,
	estimator *policy.Estimator, producer *queue.Producer) *ProfileHandler {
	return &ProfileHandler{db: db, persons: persons, estimator: estimator, producer: producer}
}

// Save creates or updates the caller's own person record. The full
// spouse list is submitted each time and replaces the stored set.
func (h *ProfileHandler) Save(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	ctx := c.Request.Context()

	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "First name and last name are required"})
		return
	}

	status := req.Status
	switch status {
	case models.ProfileStatusDraft, models.ProfileStatusPending:
	default:
		// The editor can only save drafts or submit for review;
		// approval states belong to the admin workflow.
		status = models.ProfileStatusDraft
	}

	created := false
	var person *models.Person

	if ident.PersonID != nil {
		existing, err := h.db.GetPerson(ctx, *ident.PersonID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
		person = existing
	}

	if person == nil {
		generation, err := h.estimator.EstimateGeneration(ctx, req.BiologicalFatherID, req.BiologicalMotherID)
		if err != nil {
			if errors.Is(err, policy.ErrAncestryCycle) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Ancestry chain contains a cycle"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}

		person = personFromCreateRequest(&req.CreatePersonRequest)
		person.Generation = generation
		person.ProfileStatus = status
		person.CreatedBy = &ident.UserID
		person.UpdatedBy = &ident.UserID
		created = true

		if err := h.db.CreatePerson(ctx, person); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
		if err := h.db.LinkPerson(ctx, ident.UserID, person.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
	} else {
		updated := personFromCreateRequest(&req.CreatePersonRequest)
		updated.ID = person.ID
		updated.PhotoKey = person.PhotoKey
		updated.Generation = person.Generation
		updated.UpdatedBy = &ident.UserID
		if err := h.db.UpdatePerson(ctx, updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
		if err := h.db.UpdateProfileStatus(ctx, person.ID, status, nil, ident.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
		person = updated
		person.ProfileStatus = status
	}

	if len(req.Spouses) > 0 {
		marriages := make([]models.Marriage, 0, len(req.Spouses))
		for _, spouse := range req.Spouses {
			marriages = append(marriages, models.Marriage{
				Spouse1ID:    person.ID,
				Spouse2ID:    spouse.SpouseID,
				Status:       spouse.Status,
				MarriageDate: spouse.MarriageDate,
			})
		}
		if err := h.db.ReplaceMarriages(ctx, person.ID, marriages); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
			return
		}
	}

	action := models.AuditActionUpdate
	eventType := dto.EventPersonUpdated
	httpStatus := http.StatusOK
	auditNote := "updated_comprehensive_profile"
	if created {
		action = models.AuditActionCreate
		eventType = dto.EventPersonCreated
		httpStatus = http.StatusCreated
		auditNote = "created_comprehensive_profile"
	}

	writeAudit(c, h.db, ident, action, "Person", person.ID.String(), &person.ID,
		gin.H{"action": auditNote, "status": status})
	publishChange(ctx, h.producer, &dto.ChangeEvent{
		Type:     eventType,
		PersonID: &person.ID,
		ActorID:  ident.UserID,
		Data:     toPersonRef(person),
	})

	detail, err := h.persons.personDetail(c, person.ID)
	if err != nil || detail == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process person profile"})
		return
	}
	c.JSON(httpStatus, detail)
}

// Get returns the caller's own person profile with resolved relatives.
func (h *ProfileHandler) Get(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	if ident.PersonID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No person profile found"})
		return
	}

	detail, err := h.persons.personDetail(c, *ident.PersonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch person profile"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No person profile found"})
		return
	}

	c.JSON(http.StatusOK, detail)
}
