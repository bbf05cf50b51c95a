package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/handler"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Proctor    *handler.ProctorHandler
	Gate       *handler.GateHandler
	ExamPortal *handler.ExamPortalHandler
	MonitorWS  *handler.MonitorWSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	sessionService *service.SessionService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Exam papers are the biggest payloads
	// and compress well.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the unauthenticated gate (30 requests per minute per
	// IP): passcodes are 6 digits, so redemption must not be brute-forceable.
	gateLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(gateLimiter.Middleware())
	{
		auth.POST("/proctor/login", handlers.Auth.ProctorLogin)
		auth.GET("/proctor/me", middleware.RequireProctorJWT(authService), handlers.Auth.GetProctorProfile)
	}

	// ─── 2. Gate Group (Station, Rate Limited) ─────────────────────────
	gate := router.Group("/api/v1/gate")
	gate.Use(gateLimiter.Middleware())
	{
		gate.POST("/redeem", handlers.Gate.Redeem)
		gate.POST("/refresh", middleware.RequireExamSession(sessionService), handlers.Gate.Refresh)
		gate.POST("/logout", middleware.RequireExamSession(sessionService), handlers.Gate.Logout)
	}

	// ─── 3. Exam Group (Session Token) ─────────────────────────────────
	examAPI := router.Group("/api/v1/exam")
	examAPI.Use(middleware.RequireExamSession(sessionService))
	{
		examAPI.GET("/exams/:exam_id/paper", handlers.ExamPortal.GetPaper)
		examAPI.GET("/exams/:exam_id/state", handlers.ExamPortal.GetState)
		examAPI.POST("/exams/:exam_id/submit", handlers.ExamPortal.Submit)
	}

	// ─── 4. Proctor Group (JWT + RBAC) ─────────────────────────────────
	proctorAPI := router.Group("/api/v1/proctor")
	proctorAPI.Use(middleware.RequireProctorJWT(authService))
	{
		proctorAPI.POST("/passcodes",
			middleware.RequirePermission(string(model.PermissionPasscodesIssue)),
			handlers.Proctor.GeneratePasscode,
		)
		proctorAPI.GET("/passcodes/:code",
			middleware.RequirePermission(string(model.PermissionPasscodesRead)),
			handlers.Proctor.ValidatePasscode,
		)
		proctorAPI.DELETE("/passcodes/:code",
			middleware.RequirePermission(string(model.PermissionPasscodesRevoke)),
			handlers.Proctor.RevokePasscode,
		)
		proctorAPI.GET("/students/:student_id/passcode",
			middleware.RequirePermission(string(model.PermissionPasscodesRead)),
			handlers.Proctor.GetActivePasscode,
		)

		// Halls change rarely; let stations cache the list briefly.
		proctorAPI.GET("/halls",
			middleware.RequirePermission(string(model.PermissionPasscodesRead)),
			middleware.CacheControl(300),
			handlers.Proctor.ListHalls,
		)
		proctorAPI.GET("/halls/:hall_id/roster",
			middleware.RequirePermission(string(model.PermissionHallsMonitor)),
			handlers.Proctor.GetHallRoster,
		)

		proctorAPI.GET("/exams/:exam_id/results",
			middleware.RequirePermission(string(model.PermissionResultsRead)),
			handlers.Proctor.ListExamResults,
		)
	}

	// ─── 5. WebSocket Group (Proctor WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireProctorWSAuth(authService))
	{
		ws.GET("/proctor/halls/:hall_id/stream", handlers.MonitorWS.HallStream)
	}

	return router
}
