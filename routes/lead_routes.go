package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/controllers"
	"github.com/BerniceZTT/lead_end/middleware"
)

// RegisterLeadRoutes 注册线索相关路由
func RegisterLeadRoutes(router *gin.Engine) {
	leadRoutes := router.Group("/api/leads")
	leadRoutes.Use(middleware.AuthMiddleware())

	leadRoutes.GET("/", middleware.PermissionMiddleware("leads", "read"), controllers.GetLeadList)
	leadRoutes.GET("/:id", middleware.PermissionMiddleware("leads", "read"), controllers.GetLeadDetail)
	leadRoutes.POST("/", middleware.PermissionMiddleware("leads", "create"), controllers.CreateLead)
	leadRoutes.PUT("/:id", middleware.PermissionMiddleware("leads", "update"), controllers.UpdateLead)
	leadRoutes.PUT("/:id/status", middleware.PermissionMiddleware("leads", "update"), controllers.UpdateLeadStatus)
	leadRoutes.PUT("/:id/assign", middleware.PermissionMiddleware("leads", "assign"), controllers.AssignLead)
	leadRoutes.POST("/:id/convert", middleware.PermissionMiddleware("leads", "update"), controllers.ConvertLead)
	leadRoutes.POST("/:id/escalate", middleware.PermissionMiddleware("leads", "escalate"), controllers.EscalateLead)
	leadRoutes.POST("/:id/notes", middleware.PermissionMiddleware("leads", "read"), controllers.AddLeadNote)

	// 软删除与恢复仅admin可用，service层还会再校验一次
	leadRoutes.DELETE("/:id", middleware.AdminOnly(), controllers.DeleteLead)
	leadRoutes.PUT("/:id/restore", middleware.AdminOnly(), controllers.RestoreLead)
}
