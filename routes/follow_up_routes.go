package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/controllers"
	"github.com/BerniceZTT/lead_end/middleware"
)

// RegisterFollowUpRoutes 注册跟进任务相关路由
func RegisterFollowUpRoutes(router *gin.Engine) {
	followUpRoutes := router.Group("/api/follow-ups")
	followUpRoutes.Use(middleware.AuthMiddleware())

	followUpRoutes.GET("/", middleware.PermissionMiddleware("followUps", "read"), controllers.GetFollowUpList)
	followUpRoutes.GET("/status/upcoming", middleware.PermissionMiddleware("followUps", "read"), controllers.GetUpcomingFollowUps)
	followUpRoutes.GET("/status/overdue", middleware.PermissionMiddleware("followUps", "read"), controllers.GetOverdueFollowUps)
	followUpRoutes.POST("/", middleware.PermissionMiddleware("followUps", "create"), controllers.CreateFollowUp)
	followUpRoutes.PUT("/:id", middleware.PermissionMiddleware("followUps", "update"), controllers.UpdateFollowUp)
	followUpRoutes.PUT("/:id/complete", middleware.PermissionMiddleware("followUps", "update"), controllers.CompleteFollowUp)
	followUpRoutes.PUT("/:id/reschedule", middleware.PermissionMiddleware("followUps", "update"), controllers.RescheduleFollowUp)
	followUpRoutes.DELETE("/:id", middleware.PermissionMiddleware("followUps", "update"), controllers.CancelFollowUp)
}
