package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/service"
	"github.com/BerniceZTT/lead_end/utils"
)

// GetLeadList 获取线索列表，按角色过滤可见范围
func GetLeadList(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	query := service.LeadListQuery{
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}

	utils.LogInfo(map[string]interface{}{
		"user":    actor.Username,
		"keyword": query.Keyword,
		"status":  query.Status,
		"page":    page,
		"limit":   limit,
	}, "获取线索列表")

	leads, err := svcs.Leads.List(c.Request.Context(), query, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	total := len(leads)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   total,
		"data":    leads[start:end],
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": (total + limit - 1) / limit,
		},
	})
}

// GetLeadDetail 获取线索详情，附带备注和状态历史
func GetLeadDetail(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	detail, err := svcs.Leads.Get(c.Request.Context(), c.Param("id"), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, detail, "")
}

// CreateLead 创建线索
func CreateLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	lead, err := svcs.Leads.Create(c.Request.Context(), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "创建线索成功", http.StatusCreated)
}

// UpdateLead 更新线索基本信息
func UpdateLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	lead, err := svcs.Leads.Update(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "更新线索成功")
}

// UpdateLeadStatus 变更线索状态
func UpdateLeadStatus(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	lead, err := svcs.Leads.UpdateStatus(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "状态变更成功")
}

// AssignLead 分配线索
func AssignLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("无效的请求数据: "+err.Error()))
		return
	}

	lead, err := svcs.Leads.Assign(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "分配线索成功")
}

// ConvertLead 把已成交的线索转为项目并归档
func ConvertLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	projectReq, err := svcs.Leads.ConvertToProject(c.Request.Context(), c.Param("id"), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, projectReq, "线索已转为项目")
}

// EscalateLead 升级线索给管理员
func EscalateLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.EscalateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("升级原因不能为空"))
		return
	}

	lead, err := svcs.Leads.Escalate(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "线索升级成功")
}

// DeleteLead 软删除线索
func DeleteLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := svcs.Leads.SoftDelete(c.Request.Context(), c.Param("id"), *actor); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, nil, "删除线索成功")
}

// RestoreLead 恢复软删除的线索
func RestoreLead(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	lead, err := svcs.Leads.Restore(c.Request.Context(), c.Param("id"), *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, lead, "恢复线索成功")
}

// AddLeadNote 添加线索备注
func AddLeadNote(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.AddLeadNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("备注内容不能为空"))
		return
	}

	note, err := svcs.Leads.AddNote(c.Request.Context(), c.Param("id"), req, *actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, note, "添加备注成功", http.StatusCreated)
}
