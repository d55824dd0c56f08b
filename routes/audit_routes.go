package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/controllers"
	"github.com/BerniceZTT/lead_end/middleware"
)

// RegisterAuditRoutes 注册审计记录查询路由，仅admin可访问
func RegisterAuditRoutes(router *gin.Engine) {
	auditRoutes := router.Group("/api/audit")
	auditRoutes.Use(middleware.AuthMiddleware(), middleware.AdminOnly())

	auditRoutes.GET("/lead/:id", controllers.GetLeadAuditRecords)
	auditRoutes.GET("/user/:id", controllers.GetUserAuditRecords)
	auditRoutes.GET("/task/:id", controllers.GetTaskAuditRecords)
}
