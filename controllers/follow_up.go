package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"
)

// GetFollowUpList 获取跟进任务列表
func GetFollowUpList(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	fus, err := svcs.FollowUps.List(c.Request.Context(), c.Query("status"), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, fus, len(fus))
}

// GetUpcomingFollowUps 获取24小时内到期的跟进任务
func GetUpcomingFollowUps(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	fus, err := svcs.FollowUps.Upcoming(c.Request.Context(), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, fus, len(fus))
}

// GetOverdueFollowUps 获取已逾期的跟进任务
func GetOverdueFollowUps(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	fus, err := svcs.FollowUps.Overdue(c.Request.Context(), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, fus, len(fus))
}

// CreateFollowUp 创建跟进任务
func CreateFollowUp(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	fu, err := svcs.FollowUps.Create(c.Request.Context(), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, fu, "创建跟进任务成功", http.StatusCreated)
}

// UpdateFollowUp 更新跟进任务的标题/优先级
func UpdateFollowUp(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.UpdateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	fu, err := svcs.FollowUps.Update(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, fu, "更新跟进任务成功")
}

// CompleteFollowUp 完成跟进任务
func CompleteFollowUp(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.CompleteFollowUpRequest
	// 完成备注可省略
	_ = c.ShouldBindJSON(&req)

	fu, err := svcs.FollowUps.Complete(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, fu, "跟进任务已完成")
}

// RescheduleFollowUp 改期跟进任务
func RescheduleFollowUp(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.RescheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("新的计划时间不能为空"))
		return
	}

	fu, err := svcs.FollowUps.Reschedule(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, fu, "跟进任务改期成功")
}

// CancelFollowUp 取消跟进任务
func CancelFollowUp(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	fu, err := svcs.FollowUps.Cancel(c.Request.Context(), c.Param("id"), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, fu, "跟进任务已取消")
}
