package router

import (
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/handler"
	"github.com/codepractice/codepractice-backend/internal/middleware"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Problem *handler.ProblemHandler
	Admin   *handler.AdminHandler
	Run     *handler.RunHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	runLimiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 0. Auth (guest only for signup/login) ─────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/signup", middleware.GuestOnly(authService), handlers.Auth.Signup)
		auth.POST("/login", middleware.GuestOnly(authService), handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 1. Public catalog ─────────────────────────────────────────────
	router.GET("/api/v1/catalog", middleware.CacheControl(3600), handlers.Problem.Catalog)

	// ─── 2. Signed-in users ────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService), middleware.NoStore())
	{
		api.GET("/problems", handlers.Problem.ListProblems)
		api.GET("/problems/next-id", handlers.Problem.NextID)
		api.GET("/problems/:id", handlers.Problem.GetProblem)
		api.POST("/problems", handlers.Problem.CreateProblem)
		api.POST("/problems/:id/run", runLimiter.Middleware(), handlers.Run.RunCode)
		api.GET("/runs", handlers.Run.RecentRuns)
	}

	// ─── 3. Admin ──────────────────────────────────────────────────────
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.RequireAuth(authService), middleware.RequireAdmin(), middleware.NoStore())
	{
		admin.GET("/problems", handlers.Admin.ListProblems)
		admin.PUT("/problems/:doc_id", handlers.Admin.UpdateProblem)
		admin.DELETE("/problems/:doc_id", handlers.Admin.DeleteProblem)
		admin.POST("/problems/resequence", handlers.Admin.Resequence)
		admin.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 4. WebSocket change feed (token in query) ─────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuth(authService))
	{
		ws.GET("/problems/stream", handlers.WS.ProblemStream)
	}

	return router
}
