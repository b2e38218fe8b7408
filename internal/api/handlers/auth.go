package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/observability"
	"github.com/your-org/familytree/internal/storage"
	"github.com/your-org/familytree/pkg/dto"
)

type AuthHandler struct {
	db         *storage.PostgresStore
	tokens     *auth.TokenManager
	bcryptCost int
}

func NewAuthHandler(db *storage.PostgresStore, tokens *auth.TokenManager, bcryptCost int) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a new account. Self-registration always lands at
// GUEST; only an admin can raise the role afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	existing, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), req.Email, hash, models.RoleGuest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		User:  toUserResponse(user, nil),
		Token: token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if user == nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := h.db.TouchLastLogin(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, dto.AuthResponse{
		User:  toUserResponse(user, nil),
		Token: token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	user, err := h.db.GetUser(c.Request.Context(), ident.UserID)
	if err != nil || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	var person *models.Person
	if user.PersonID != nil {
		person, _ = h.db.GetPerson(c.Request.Context(), *user.PersonID)
	}

	c.JSON(http.StatusOK, toUserResponse(user, person))
}

// LinkPerson attaches an existing person record to the calling user.
// A person can only ever be linked to one account.
func (h *AuthHandler) LinkPerson(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	var req dto.LinkPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id required"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), req.PersonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link person"})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
		return
	}

	linked, err := h.db.GetUserByPersonID(c.Request.Context(), req.PersonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link person"})
		return
	}
	if linked != nil && linked.ID != ident.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This person is already linked to another user"})
		return
	}

	if err := h.db.LinkPerson(c.Request.Context(), ident.UserID, req.PersonID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link person"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "User", ident.UserID.String(), &req.PersonID,
		gin.H{"action": "linked_person", "person_id": req.PersonID})

	user, err := h.db.GetUser(c.Request.Context(), ident.UserID)
	if err != nil || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, person))
}

// UpdateRole changes another user's role. Admin only (enforced by the
// route's middleware).
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	ident := auth.IdentityFrom(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	user, err := h.db.UpdateUserRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	writeAudit(c, h.db, ident, models.AuditActionUpdate, "User", userID.String(), nil,
		gin.H{"action": "role_change", "new_role": req.Role})

	c.JSON(http.StatusOK, toUserResponse(user, nil))
}

// parsePage extracts page/limit query params with defaults.
func parsePage(c *gin.Context, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}
