package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/familytree/internal/queue"
	"github.com/your-org/familytree/internal/storage"
)

type SystemHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	producer *queue.Producer
}

func NewSystemHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer) *SystemHandler {
	return &SystemHandler{db: db, minio: minio, producer: producer}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every backing service the API depends on. Any failing
// dependency flips the response to 503 so the load balancer stops
// routing here.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := []struct {
		name string
		ping func(context.Context) error
	}{
		{"postgres", h.db.Ping},
		{"minio", h.minio.Ping},
		{"nats", func(context.Context) error { return h.producer.Ping() }},
	}

	checks := map[string]string{}
	healthy := true
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			checks[dep.name] = err.Error()
			healthy = false
		} else {
			checks[dep.name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
