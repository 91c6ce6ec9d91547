package api

import (
	"Glimpse/internal/api/middleware"
	"Glimpse/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		statusGroup := apiGroup.Group("/status")
		statusGroup.Use(middleware.AuthMiddleware())
		{
			statusGroup.POST("/upload", group.StatusHandler.Upload)
			statusGroup.GET("/my-status", group.StatusHandler.GetMyStatus)
			statusGroup.GET("/users-with-status", group.StatusHandler.GetUsersWithStatus)
			statusGroup.GET("/user-info/:user_id", group.StatusHandler.GetUserInfo)
			statusGroup.GET("/:user_id", group.StatusHandler.GetStatusByUserId)
			statusGroup.DELETE("", group.StatusHandler.DeleteStatus)
		}
	}

	return r
}
