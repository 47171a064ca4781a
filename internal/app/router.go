package app

import (
	"tutor_backend/docs"
	"tutor_backend/internal/config"
	"tutor_backend/internal/middleware"
	"tutor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需会话令牌)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/subjects", c.tutor.ListSubjects)
		public.POST("/sessions", c.tutor.CreateSession)
	}

	// 2. 会话路由
	session := router.Group("/api/session")
	session.Use(middleware.SessionAuth(cfg))
	{
		session.GET("", c.tutor.GetSession)
		session.GET("/history", c.tutor.History)

		// 辅导请求
		session.POST("/subject", c.tutor.SelectSubject)
		session.POST("/lesson", c.tutor.RequestLesson)
		session.POST("/ask", c.tutor.AskQuestion)
		session.POST("/topic", c.tutor.StartNewTopic)

		// 页面导航
		session.POST("/sections/:section", c.tutor.ShowSection)
		session.POST("/ai-tutor", c.tutor.OpenAITutor)
		session.POST("/real-tutor", c.tutor.OpenRealTutor)
		session.POST("/back", c.tutor.Back)
	}
}
