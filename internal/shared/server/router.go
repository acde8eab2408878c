package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/allocations"
	"jobtrack-backend/internal/attachments"
	"jobtrack-backend/internal/customers"
	"jobtrack-backend/internal/jobs"
	"jobtrack-backend/internal/shared/config"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/shared/server/middleware"
	"jobtrack-backend/internal/shared/server/respond"
	"jobtrack-backend/internal/users"
)

const summaryRateGroup = "SUMMARY"

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config            config.Config
	JobsHandler       *jobs.Handler
	AllocationHandler *allocations.Handler
	AttachmentHandler *attachments.Handler
	UsersHandler      *users.Handler
	CustomersHandler  *customers.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Actor(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)

		limited := api.Group("")
		limited.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				summaryRateGroup: {
					Rate:  deps.Config.SummaryRateLimit,
					Burst: deps.Config.SummaryBurst,
				},
			},
			DefaultGroup: summaryRateGroup,
		}))
		deps.JobsHandler.RegisterSummaryRoutes(limited)
	}
	if deps.AllocationHandler != nil {
		deps.AllocationHandler.RegisterRoutes(api)
	}
	if deps.AttachmentHandler != nil {
		deps.AttachmentHandler.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.CustomersHandler != nil {
		deps.CustomersHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
