package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/utils"
)

// GetNotifications 获取当前用户的通知列表
func GetNotifications(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := svcs.Notifications.ListForUser(c.Request.Context(), *actor, unreadOnly)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, notifications, len(notifications))
}

// MarkNotificationRead 标记通知已读，仅接收人可操作
func MarkNotificationRead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := svcs.Notifications.MarkRead(c.Request.Context(), c.Param("id"), *actor); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, nil, "标记已读成功")
}
