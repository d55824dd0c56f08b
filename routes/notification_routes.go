package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/controllers"
	"github.com/BerniceZTT/lead_end/middleware"
)

// RegisterNotificationRoutes 注册通知相关路由
func RegisterNotificationRoutes(router *gin.Engine) {
	notificationRoutes := router.Group("/api/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware())

	notificationRoutes.GET("/", middleware.PermissionMiddleware("notifications", "read"), controllers.GetNotifications)
	notificationRoutes.PUT("/:id/read", middleware.PermissionMiddleware("notifications", "update"), controllers.MarkNotificationRead)
}
