// Package handler exposes the campus incident API over HTTP.
package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campuslog/internal/auth"
	"campuslog/internal/complaints"
	"campuslog/internal/httpmiddleware"
	"campuslog/internal/metrics"
	"campuslog/internal/scheduling"
	"campuslog/internal/store"
	"campuslog/internal/students"
)

// Deps are the services and settings the router is built from.
type Deps struct {
	Complaints *complaints.Service
	Scheduling *scheduling.Service
	Students   *students.Repository
	Accounts   *auth.Service

	// Tokens and Policy guard the API. A nil Policy disables authorization.
	Tokens *auth.Tokens
	Policy *auth.Policy

	DB    *store.DB
	Redis *store.Redis

	APILimiter   httpmiddleware.Limiter
	LoginLimiter httpmiddleware.FailureLimiter

	Logger         *zap.Logger
	UploadDir      string
	StaticDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
	LogRequests    bool
}

// Handler serves the API routes.
type Handler struct {
	complaints *complaints.Service
	scheduling *scheduling.Service
	students   *students.Repository
	accounts   *auth.Service
	db         *store.DB
	redis      *store.Redis
	logger     *zap.Logger
	maxUpload  int64
}

// NewRouter wires middleware and routes onto a new gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &Handler{
		complaints: d.Complaints,
		scheduling: d.Scheduling,
		students:   d.Students,
		accounts:   d.Accounts,
		db:         d.DB,
		redis:      d.Redis,
		logger:     d.Logger,
		maxUpload:  d.MaxUploadBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	if d.LogRequests {
		r.Use(httpmiddleware.Logger(d.Logger, "/healthz", "/metrics"))
	}
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(metrics.GinMiddleware())
	if d.APILimiter != nil {
		r.Use(httpmiddleware.RateLimit(d.APILimiter, d.Logger))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.health)

	login := r.Group("/api")
	if d.LoginLimiter != nil {
		login.Use(httpmiddleware.LimitFailures(d.LoginLimiter, d.Logger))
	}
	login.POST("/login", h.login)
	login.POST("/refresh", h.refresh)

	if d.StaticDir != "" {
		if _, err := os.Stat(d.StaticDir); err == nil {
			r.Static("/static", d.StaticDir)
		}
	}

	api := r.Group("")
	if d.Policy != nil && d.Tokens != nil {
		api.Use(auth.Authenticate(d.Tokens), auth.Authorize(d.Policy))
	}

	api.POST("/api/log-entry", h.createLogEntry)
	api.POST("/api/reason", h.submitReason)
	api.GET("/api/revoked", h.listRevoked)
	api.PUT("/api/revoked/:id", h.updateRevoked)

	api.GET("/api/support-logs", h.supportLogs)
	api.POST("/api/support/send", h.sendToMentor)
	api.GET("/api/mentor-queue", h.mentorQueue)
	api.POST("/api/mentor/submit", h.mentorSubmit)

	api.POST("/send-to-admin", h.sendToAdmin)
	api.GET("/api/admin-all", h.adminAll)
	api.POST("/api/meeting-details", h.scheduleMeeting)
	api.GET("/api/meeting-details", h.listMeetings)
	api.POST("/api/update-attendance", h.updateAttendance)

	api.GET("/api/complaints/:S_ID", h.studentComplaints)
	api.PUT("/complaints/update-status/:sid/:complaint_id", h.updateStudentComplaint)
	api.GET("/complaints/detail/:complaint_id", h.complaintDetail)

	if d.UploadDir != "" {
		api.Static("/uploads", d.UploadDir)
	}

	api.GET("/students", h.listStudents)
	api.GET("/api/students", h.listStudents)
	api.GET("/api/student-pdfs/:student_id", h.studentPDFs)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader},
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

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.db != nil && h.db.Healthy(ctx)
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "down"
		if h.redis.Healthy(ctx) {
			redisStatus = "ok"
		}
	}
	status, text := http.StatusOK, "ok"
	if !dbHealthy {
		status, text = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{"status": text, "db": dbHealthy, "redis": redisStatus})
}
