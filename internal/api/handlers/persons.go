package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/policy"
	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
	"github.com/your-org/familytree/pkg/dto"
)

const permissionDeniedMsg = "You do not have permission to modify this person"

type PersonHandler struct {
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	policy    *policy.Policy
	estimator *policy.Estimator
	producer  *queue.Producer
}

func NewPersonHandler(db *storage.PostgresStore, minio *storage.MinIOStore,
	pol *policy.Policy, estimator *policy.Estimator, producer *queue.Producer) *PersonHandler {
	return &PersonHandler{db: db, minio: minio, policy: pol, estimator: estimator, producer: producer}
}

func (h *PersonHandler) actor(c *gin.Context) policy.Actor {
	ident := auth.IdentityFrom(c)
	return policy.Actor{
		UserID:   ident.UserID,
		Role:     ident.Role,
		PersonID: ident.PersonID,
	}
}

func (h *PersonHandler) List(c *gin.Context) {
	page, limit, offset := parsePage(c, 20)
	search := c.Query("search")

	persons, total, err := h.db.ListPersons(c.Request.Context(), search, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch persons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"people": persons,
		"pagination": dto.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	})
}

// Search backs the relationship autocomplete; queries below two
// characters return an empty list rather than the whole tree.
func (h *PersonHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusOK, gin.H{"results": []dto.PersonRef{}})
		return
	}

	_, limit, _ := parsePage(c, 10)
	persons, err := h.db.SearchPersons(c.Request.Context(), q, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search persons"})
		return
	}

	results := make([]dto.PersonRef, 0, len(persons))
	for i := range persons {
		results = append(results, *toPersonRef(&persons[i]))
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *PersonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	detail, err := h.personDetail(c, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch person"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	ident := auth.IdentityFrom(c)
	writeAudit(c, h.db, ident, models.AuditActionView, "Person", id.String(), &id,
		gin.H{"action": "viewed_person"})

	c.JSON(http.StatusOK, detail)
}

// personDetail assembles a person plus their resolved one-hop
// relatives. Returns (nil, nil) when the person does not exist.
func (h *PersonHandler) personDetail(c *gin.Context, id uuid.UUID) (*dto.PersonDetail, error) {
	ctx := c.Request.Context()

	person, err := h.db.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}

	detail := &dto.PersonDetail{
		Person:   *person,
		Children: []dto.PersonRef{},
		Spouses:  []dto.SpouseResponse{},
	}

	summary, err := h.db.RelationSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	var refIDs []uuid.UUID
	if person.BiologicalFatherID != nil {
		refIDs = append(refIDs, *person.BiologicalFatherID)
	}
	if person.BiologicalMotherID != nil {
		refIDs = append(refIDs, *person.BiologicalMotherID)
	}
	refIDs = append(refIDs, summary.ChildIDs...)

	marriages, err := h.db.ListMarriages(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range marriages {
		spouseID := m.Spouse1ID
		if spouseID == id {
			spouseID = m.Spouse2ID
		}
		refIDs = append(refIDs, spouseID)
	}

	refs, err := h.db.GetPersonRefs(ctx, refIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.PersonRef, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}

	if person.BiologicalFatherID != nil {
		if ref, ok := byID[*person.BiologicalFatherID]; ok {
			r := refFromModel(ref)
			detail.Father = &r
		}
	}
	if person.BiologicalMotherID != nil {
		if ref, ok := byID[*person.BiologicalMotherID]; ok {
			r := refFromModel(ref)
			detail.Mother = &r
		}
	}
	for _, childID := range summary.ChildIDs {
		if ref, ok := byID[childID]; ok {
			detail.Children = append(detail.Children, refFromModel(ref))
		}
	}
	for _, m := range marriages {
		spouseID := m.Spouse1ID
		if spouseID == id {
			spouseID = m.Spouse2ID
		}
		if ref, ok := byID[spouseID]; ok {
			detail.Spouses = append(detail.Spouses, dto.SpouseResponse{
				Person:       refFromModel(ref),
				Status:       m.Status,
				MarriageDate: m.MarriageDate,
			})
		}
	}

	return detail, nil
}

// Create adds a new person. The route is restricted to MEMBER/ADMIN;
// generation is estimated from the submitted parent links.
func (h *PersonHandler) Create(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "First name and last name required"})
		return
	}

	generation, err := h.estimator.EstimateGeneration(c.Request.Context(),
		req.BiologicalFatherID, req.BiologicalMotherID)
	if err != nil {
		if errors.Is(err, policy.ErrAncestryCycle) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Ancestry chain contains a cycle"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create person"})
		return
	}

	person := personFromCreateRequest(&req)
	person.Generation = generation
	person.CreatedBy = &ident.UserID
	person.UpdatedBy = &ident.UserID

	if err := h.db.CreatePerson(c.Request.Context(), person); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create person"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionCreate, "Person", person.ID.String(), &person.ID,
		gin.H{"action": "created_person"})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventPersonCreated,
		PersonID: &person.ID,
		ActorID:  ident.UserID,
		Data:     toPersonRef(person),
	})

	c.JSON(http.StatusCreated, person)
}

// Update modifies a person record. Gated by the relationship policy:
// self, one-hop relatives, or admin.
func (h *PersonHandler) Update(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update person"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	allowed, err := h.policy.CanModify(c.Request.Context(), h.actor(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": permissionDeniedMsg})
		return
	}

	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applyPersonUpdate(person, &req)
	person.UpdatedBy = &ident.UserID

	if err := h.db.UpdatePerson(c.Request.Context(), person); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update person"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "Person", id.String(), &id,
		gin.H{"action": "updated_person", "changes": req})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventPersonUpdated,
		PersonID: &id,
		ActorID:  ident.UserID,
		Data:     toPersonRef(person),
	})

	c.JSON(http.StatusOK, person)
}

// Delete removes a person. Admin only; a person still linked to a user
// account must be unlinked first.
func (h *PersonHandler) Delete(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete person"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	linked, err := h.db.GetUserByPersonID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete person"})
		return
	}
	if linked != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cannot delete a person linked to a user account. Unlink the user first.",
		})
		return
	}

	if err := h.db.DeletePerson(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete person"})
		return
	}

	if person.PhotoKey != nil {
		_ = h.minio.DeletePrefix(c.Request.Context(), "photos/"+id.String()+"/")
	}

	writeAudit(c, h.db, ident, models.AuditActionDelete, "Person", id.String(), &id,
		gin.H{"action": "deleted_person"})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:     dto.EventPersonDeleted,
		PersonID: &id,
		ActorID:  ident.UserID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Person deleted successfully"})
}

func (h *PersonHandler) CreateMarriage(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	var req dto.CreateMarriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both spouse IDs required"})
		return
	}

	marriage := &models.Marriage{
		Spouse1ID:     req.Spouse1ID,
		Spouse2ID:     req.Spouse2ID,
		Status:        req.Status,
		MarriageDate:  req.MarriageDate,
		MarriagePlace: req.MarriagePlace,
	}
	if err := h.db.CreateMarriage(c.Request.Context(), marriage); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create marriage"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionCreate, "Marriage", marriage.ID.String(), nil,
		gin.H{"marriage": marriage})
	publishChange(c.Request.Context(), h.producer, &dto.ChangeEvent{
		Type:    dto.EventMarriageCreated,
		ActorID: ident.UserID,
		Data:    marriage,
	})

	c.JSON(http.StatusCreated, marriage)
}

// UploadPhoto stores a profile photo in object storage and records its
// key. Gated by the same relationship policy as record edits.
func (h *PersonHandler) UploadPhoto(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	allowed, err := h.policy.CanModify(c.Request.Context(), h.actor(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": permissionDeniedMsg})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
		return
	}

	key := "photos/" + id.String() + "/" + uuid.New().String() + "_" + header.Filename
	if err := h.minio.PutObject(c.Request.Context(), key, data, header.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store photo failed"})
		return
	}

	if err := h.db.SetPhotoKey(c.Request.Context(), id, key, ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "Person", id.String(), &id,
		gin.H{"action": "uploaded_photo", "photo_key": key})

	c.JSON(http.StatusCreated, gin.H{"photo_key": key})
}

func (h *PersonHandler) GetPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch photo"})
		return
	}
	if person == nil || person.PhotoKey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}

	data, contentType, err := h.minio.GetObject(c.Request.Context(), *person.PhotoKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func personFromCreateRequest(req *dto.CreatePersonRequest) *models.Person {
	nicknames := req.Nicknames
	if nicknames == nil {
		nicknames = []string{}
	}
	return &models.Person{
		FirstName:          req.FirstName,
		MiddleName:         req.MiddleName,
		LastName:           req.LastName,
		MaidenName:         req.MaidenName,
		Nicknames:          nicknames,
		Gender:             req.Gender,
		DateOfBirth:        req.DateOfBirth,
		DateOfDeath:        req.DateOfDeath,
		IsDeceased:         req.IsDeceased,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		City:               req.City,
		State:              req.State,
		Country:            req.Country,
		Bio:                req.Bio,
		Occupation:         req.Occupation,
		BiologicalFatherID: req.BiologicalFatherID,
		BiologicalMotherID: req.BiologicalMotherID,
		ProfileStatus:      models.ProfileStatusDraft,
	}
}

func applyPersonUpdate(p *models.Person, req *dto.UpdatePersonRequest) {
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		p.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.MaidenName != nil {
		p.MaidenName = req.MaidenName
	}
	if req.Nicknames != nil {
		p.Nicknames = *req.Nicknames
	}
	if req.Gender != nil {
		p.Gender = req.Gender
	}
	if req.DateOfBirth != nil {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.DateOfDeath != nil {
		p.DateOfDeath = req.DateOfDeath
	}
	if req.IsDeceased != nil {
		p.IsDeceased = *req.IsDeceased
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if req.City != nil {
		p.City = req.City
	}
	if req.State != nil {
		p.State = req.State
	}
	if req.Country != nil {
		p.Country = req.Country
	}
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	if req.Occupation != nil {
		p.Occupation = req.Occupation
	}
	if req.BiologicalFatherID != nil {
		p.BiologicalFatherID = req.BiologicalFatherID
	}
	if req.BiologicalMotherID != nil {
		p.BiologicalMotherID = req.BiologicalMotherID
	}
}
