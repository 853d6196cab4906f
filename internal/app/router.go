package app

import (
	"time"

	"pythonchick_backend/docs"
	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/pkg/monitoring"
	"pythonchick_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由（无需登录）
	a.registerPublicRoutes(router, c)

	// 2. 可选登录：匿名可读，登录后附带个人进度
	optional := router.Group("/api")
	optional.Use(middleware.TryAuthMiddleware(cfg))
	{
		optional.GET("/courses", c.content.ListCourses)
		optional.GET("/courses/:id", c.content.GetCourse)
		optional.GET("/topics/:id", c.content.GetTopic)
		optional.GET("/lessons/:id", c.content.GetLesson)
		optional.GET("/game", c.game.ListGames)
		optional.GET("/game/:slug", c.game.GetGame)
	}

	// 3. 需要登录
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		authGroup.POST("/progress/lessons/:id/complete", c.progress.CompleteLesson)
		authGroup.POST("/game/:id/progress", c.game.UpdateProgress)
		authGroup.GET("/games/challenges", c.challenge.ListChallenges)

		authGroup.GET("/users/:id", c.user.GetUser)
		authGroup.PUT("/users/me", c.user.UpdateMe)
		authGroup.POST("/users/me/avatar", c.user.UploadAvatar)
		authGroup.GET("/users/me/activities", c.user.Activities)

		a.registerExecutionRoutes(authGroup, c, cfg)
	}
}

// registerExecutionRoutes 会真正启动子进程的接口：按用户单独限流并限制请求体大小
func (a *App) registerExecutionRoutes(group *gin.RouterGroup, c *controllers, cfg *config.Config) {
	limiter := security.NewLimiter(cfg.RateLimit.ExecutePerMinute, time.Minute, security.KeyByUser(middleware.CurrentUserID))
	exec := group.Group("")
	exec.Use(security.StartLimiter(limiter), security.MaxBodySize(cfg.Sandbox.MaxCodeBytes))
	{
		exec.POST("/code/execute", c.code.Execute)
		exec.POST("/games/challenges/submit", c.challenge.Submit)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
		auth.POST("/forgot-password", c.auth.ForgotPassword)
		auth.POST("/verify-reset-token", c.auth.VerifyResetToken)
		auth.POST("/reset-password", c.auth.ResetPassword)
	}
}
