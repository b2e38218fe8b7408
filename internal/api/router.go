package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/familytree/internal/api/handlers"
	"github.com/your-org/familytree/internal/api/ws"
	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/policy"
	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
)

type RouterConfig struct {
	DB         *storage.PostgresStore
	MinIO      *storage.MinIOStore
	Producer   *queue.Producer
	Hub        *ws.Hub
	Tokens     *auth.TokenManager
	BcryptCost int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	pol := policy.New(cfg.DB)
	estimator := policy.NewEstimator(cfg.DB)

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := handlers.NewAuthHandler(cfg.DB, cfg.Tokens, cfg.BcryptCost)
	personH := handlers.NewPersonHandler(cfg.DB, cfg.MinIO, pol, estimator, cfg.Producer)
	profileH := handlers.NewProfileHandler(cfg.DB, personH, estimator, cfg.Producer)
	adminH := handlers.NewAdminHandler(cfg.DB, estimator, cfg.Producer)

	v1 := r.Group("/v1")

	// Public auth endpoints
	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)

	// Everything else requires a valid token
	authed := v1.Group("")
	authed.Use(auth.Middleware(cfg.Tokens, cfg.DB))

	authed.GET("/auth/me", authH.Me)
	authed.POST("/auth/link-person", authH.LinkPerson)
	authed.PUT("/auth/users/:id/role", auth.RequireRoles(models.RoleAdmin), authH.UpdateRole)

	// WebSocket change feed
	authed.GET("/ws", cfg.Hub.HandleWS)

	// Persons & marriages
	authed.GET("/persons", personH.List)
	authed.GET("/persons/search", personH.Search)
	authed.GET("/persons/:id", personH.Get)
	authed.POST("/persons", auth.RequireRoles(models.RoleMember, models.RoleAdmin), personH.Create)
	authed.PUT("/persons/:id", personH.Update)
	authed.DELETE("/persons/:id", auth.RequireRoles(models.RoleAdmin), personH.Delete)
	authed.POST("/marriages", auth.RequireRoles(models.RoleMember, models.RoleAdmin), personH.CreateMarriage)
	authed.POST("/persons/:id/photo", personH.UploadPhoto)
	authed.GET("/persons/:id/photo", personH.GetPhoto)

	// Self-service profile
	authed.POST("/profile", profileH.Save)
	authed.GET("/profile", profileH.Get)

	// Admin
	admin := authed.Group("/admin")
	admin.Use(auth.RequireRoles(models.RoleAdmin))
	admin.GET("/profiles/pending", adminH.PendingProfiles)
	admin.POST("/profiles/:id/approve", adminH.ApproveProfile)
	admin.POST("/profiles/:id/reject", adminH.RejectProfile)
	admin.GET("/users", adminH.ListUsers)
	admin.PUT("/users/:id/status", adminH.SetUserStatus)
	admin.DELETE("/users/:id", adminH.DeleteUser)
	admin.GET("/stats", adminH.Stats)
	admin.GET("/audit-logs", adminH.AuditLogs)
	admin.GET("/generation-suggestion", adminH.GenerationSuggestion)
	admin.POST("/persons", adminH.RegisterPerson)

	return r
}
