package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/lead_end/utils"
)

// GetLeadAuditRecords 查询某条线索的审计记录
func GetLeadAuditRecords(c *gin.Context) {
	records, err := svcs.Audit.ByLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, utils.CreateServerError("查询审计记录失败"))
		return
	}

	utils.ListResponse(c, records, len(records))
}

// GetUserAuditRecords 查询某个操作人的审计记录
func GetUserAuditRecords(c *gin.Context) {
	records, err := svcs.Audit.ByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, utils.CreateServerError("查询审计记录失败"))
		return
	}

	utils.ListResponse(c, records, len(records))
}

// GetTaskAuditRecords 查询某个跟进任务的审计记录
func GetTaskAuditRecords(c *gin.Context) {
	records, err := svcs.Audit.ByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, utils.CreateServerError("查询审计记录失败"))
		return
	}

	utils.ListResponse(c, records, len(records))
}
