package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/familytree/internal/models"
)

type fakeUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (l *fakeUserLoader) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return l.users[id], nil
}

func setupAuthRouter(t *testing.T, users *fakeUserLoader, roles ...models.Role) (*gin.Engine, *TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("test-secret", time.Hour)

	r := gin.New()
	group := r.Group("/", Middleware(tokens, users))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		ident := IdentityFrom(c)
		require.NotNil(t, ident)
		c.JSON(http.StatusOK, gin.H{"email": ident.Email})
	})
	return r, tokens
}

func activeUser(role models.Role) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Role:     role,
		IsActive: true,
	}
}

func doAuthRequest(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareValidToken(t *testing.T) {
	user := activeUser(models.RoleMember)
	loader := &fakeUserLoader{users: map[uuid.UUID]*models.User{user.ID: user}}
	r, tokens := setupAuthRouter(t, loader)

	token, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	w := doAuthRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.Email)
}

func TestMiddlewareMissingToken(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeUserLoader{})

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		w := doAuthRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Contains(t, w.Body.String(), "No token provided")
	}
}

func TestMiddlewareInvalidToken(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeUserLoader{})

	w := doAuthRequest(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestMiddlewareUnknownUser(t *testing.T) {
	loader := &fakeUserLoader{users: map[uuid.UUID]*models.User{}}
	r, tokens := setupAuthRouter(t, loader)

	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	w := doAuthRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or inactive user")
}

func TestMiddlewareInactiveUser(t *testing.T) {
	user := activeUser(models.RoleMember)
	user.IsActive = false
	loader := &fakeUserLoader{users: map[uuid.UUID]*models.User{user.ID: user}}
	r, tokens := setupAuthRouter(t, loader)

	token, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	w := doAuthRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		role models.Role
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleMember, http.StatusForbidden},
		{models.RoleGuest, http.StatusForbidden},
	}
	for _, tc := range cases {
		user := activeUser(tc.role)
		loader := &fakeUserLoader{users: map[uuid.UUID]*models.User{user.ID: user}}
		r, tokens := setupAuthRouter(t, loader, models.RoleAdmin)

		token, err := tokens.Issue(user.ID)
		require.NoError(t, err)

		w := doAuthRequest(r, "Bearer "+token)
		assert.Equal(t, tc.want, w.Code, "role %s", tc.role)
	}
}
