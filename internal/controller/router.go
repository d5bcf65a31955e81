package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/auth"
	"github.com/Freeeeeet/speaking_scheduler/internal/controller/response"
	"github.com/Freeeeeet/speaking_scheduler/internal/metrics"
	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Schedules    ScheduleService
	Slots        SlotService
	Tokens       *auth.Manager
	DB           Pinger
	Gatherer     prometheus.Gatherer
	Metrics      *metrics.Metrics
	AllowOrigins []string
	Logger       *zap.Logger
}

// NewRouter wires middleware and every HTTP route.
func NewRouter(d RouterDeps) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(d.Logger, d.Metrics))
	r.Use(cors.New(corsConfig(d.AllowOrigins)))

	r.GET("/health", healthHandler(d.DB))
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	schedules := NewScheduleHandler(d.Schedules, d.Logger)
	slots := NewSlotHandler(d.Slots, d.Logger)

	api := r.Group("/api", JWTAuth(d.Tokens))

	admin := api.Group("/teacher-schedules", RoleAuth(model.RoleAdmin))
	{
		admin.POST("/templates", schedules.CreateTemplate)
		admin.GET("/templates/:teacherId", schedules.ListTemplates)
		admin.DELETE("/templates/:id", schedules.DeactivateTemplate)
		admin.POST("/weekly", schedules.CreateWeeklySchedule)
		admin.POST("/generate-slots", schedules.GenerateSlots)
	}

	staff := RoleAuth(model.RoleTeacher, model.RoleAdmin)
	sg := api.Group("/speaking-slots")
	{
		sg.GET("", slots.ListAll)
		sg.GET("/available", slots.ListAvailable)
		sg.GET("/teacher/:teacherId", staff, slots.ListForTeacher)
		sg.POST("/book", slots.Book)
		sg.POST("/submit-result", staff, slots.SubmitResult)
		sg.PUT("/:id/cancel", slots.Cancel)
		sg.PUT("/:id/withdraw", staff, slots.Withdraw)
		sg.PUT("/:id/restore", staff, slots.Restore)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				response.Error(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	}
}
