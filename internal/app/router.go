package app

import (
	"eyecare_backend/docs"
	"eyecare_backend/internal/config"
	"eyecare_backend/internal/middleware"
	"eyecare_backend/internal/model"
	"eyecare_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerMemberRoutes(authGroup, c)

		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/tips", c.tip.List)
		public.GET("/tips/today", c.tip.Today)
	}
}

func (a *App) registerMemberRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	vision := rg.Group("/vision-tests")
	{
		vision.GET("", c.visionTest.Catalog)
		vision.POST("/sessions", c.visionTest.CreateSession)
		vision.GET("/sessions/:id", c.visionTest.GetSession)
		vision.POST("/sessions/:id/start", c.visionTest.Start)
		vision.POST("/sessions/:id/answer", c.visionTest.Answer)
		vision.POST("/sessions/:id/restart", c.visionTest.Restart)
		vision.DELETE("/sessions/:id", c.visionTest.Abandon)
		vision.GET("/results", c.visionTest.ListResults)
		vision.GET("/results/:id", c.visionTest.GetResult)
	}

	rg.POST("/checkin", c.checkin.Checkin)
	rg.GET("/checkin/status", c.checkin.Status)
	rg.GET("/achievements", c.achievement.GetUserAchievements)
	rg.GET("/achievements/leaderboard", c.achievement.GetLeaderboard)

	reminders := rg.Group("/reminders")
	{
		reminders.GET("", c.reminder.List)
		reminders.POST("", c.reminder.Create)
		reminders.PUT("/:id", c.reminder.Update)
		reminders.DELETE("/:id", c.reminder.Delete)
	}

	assistant := rg.Group("/assistant")
	{
		assistant.POST("/chat", c.assistant.Chat)
		assistant.POST("/symptoms", c.assistant.Symptoms)
		assistant.POST("/ishihara", c.assistant.Ishihara)
		assistant.POST("/workout", c.assistant.Workout)
		assistant.GET("/ws", c.assistant.ChatSocket)
	}

	rg.POST("/plates", c.plate.Generate)
	rg.GET("/plates", c.plate.List)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	users := rg.Group("/users")
	{
		users.GET("", c.user.GetUsers)
		users.GET("/:id", c.user.GetUser)
		users.PUT("/:id/role", c.user.UpdateRole)
		users.POST("/:id/disable", c.user.DisableUser)
		users.POST("/:id/reset-password", c.user.ResetPassword)
		users.DELETE("/:id", c.user.DeleteUser)
	}
}
