package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// LeadService 线索生命周期管理器。所有线索状态变更都必须经过这里，
// 每个写操作先过权限解析器，再落库，最后追加审计记录和通知。
type LeadService struct {
	leads    LeadStore
	notes    LeadNoteStore
	history  LeadHistoryStore
	teams    TeamStore
	users    UserStore
	audit    *AuditService
	notifier *NotificationService
	now      Clock

	// 软删除恢复窗口
	recoveryWindow time.Duration
}

// NewLeadService 创建线索服务
func NewLeadService(
	leads LeadStore,
	notes LeadNoteStore,
	history LeadHistoryStore,
	teams TeamStore,
	users UserStore,
	audit *AuditService,
	notifier *NotificationService,
	now Clock,
	recoveryWindowDays int,
) *LeadService {
	return &LeadService{
		leads:          leads,
		notes:          notes,
		history:        history,
		teams:          teams,
		users:          users,
		audit:          audit,
		notifier:       notifier,
		now:            now,
		recoveryWindow: time.Duration(recoveryWindowDays) * 24 * time.Hour,
	}
}

// LeadListQuery 线索列表查询条件
type LeadListQuery struct {
	Keyword  string
	Status   string
	Priority string
}

// LeadDetail 线索详情，附带备注与状态历史（均为时间倒序）
type LeadDetail struct {
	Lead    *models.Lead               `json:"lead"`
	Notes   []models.LeadNote          `json:"notes"`
	History []models.LeadStatusHistory `json:"statusHistory"`
}

// Create 创建线索，仅admin和team_lead可操作，初始状态为new
func (s *LeadService) Create(ctx context.Context, req models.CreateLeadRequest, actor models.Actor) (*models.Lead, error) {
	if actor.Role != models.UserRoleADMIN && actor.Role != models.UserRoleTEAM_LEAD {
		return nil, utils.CreateForbiddenError()
	}
	if req.Name == "" {
		return nil, utils.CreateValidationError("线索名称不能为空")
	}

	// 创建时带分配目标的，和Assign走同一套校验
	assignedTo := utils.NormalizeRef(req.AssignedTo)
	assignedTeam := utils.NormalizeRef(req.AssignedTeam)
	if assignedTo != "" || assignedTeam != "" {
		ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
		if err != nil {
			return nil, utils.CreateServerError("查询团队信息失败")
		}
		if !CanAssignTo(actor, assignedTo, ledTeams) {
			return nil, utils.CreateForbiddenError()
		}
		if !CanAssignToTeam(actor, assignedTeam, ledTeams) {
			return nil, utils.CreateForbiddenError()
		}
	}

	now := s.now()
	lead := &models.Lead{
		Name:           req.Name,
		Company:        req.Company,
		ContactPerson:  req.ContactPerson,
		ContactPhone:   req.ContactPhone,
		ContactEmail:   req.ContactEmail,
		Source:         req.Source,
		Priority:       req.Priority,
		EstimatedValue: req.EstimatedValue,
		Status:         models.LeadStatusNew,
		AssignedTo:     assignedTo,
		AssignedTeam:   assignedTeam,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if lead.AssignedTo != "" || lead.AssignedTeam != "" {
		lead.AssignedBy = actor.ID
		lead.AssignedAt = &now
	}

	if err := s.leads.Insert(ctx, lead); err != nil {
		return nil, utils.CreateServerError("创建线索失败")
	}

	// 初始状态也写入历史，后续每次变更各追加一条
	if err := s.history.Append(ctx, &models.LeadStatusHistory{
		LeadID:     lead.ID.Hex(),
		Status:     models.LeadStatusNew,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		CreatedAt:  now,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": lead.ID.Hex()}, "写入初始状态历史失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadCreated,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    lead.ID.Hex(),
		Details:   fmt.Sprintf("创建线索 [%s]", lead.Name),
	})

	return lead, nil
}

// Get 获取线索详情，附带备注和状态历史
func (s *LeadService) Get(ctx context.Context, id string, actor models.Actor) (*LeadDetail, error) {
	lead, err := s.getAccessibleLead(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	notes, err := s.notes.ListByLead(ctx, id)
	if err != nil {
		return nil, utils.CreateServerError("查询线索备注失败")
	}
	history, err := s.history.ListByLead(ctx, id)
	if err != nil {
		return nil, utils.CreateServerError("查询状态历史失败")
	}

	return &LeadDetail{Lead: lead, Notes: notes, History: history}, nil
}

// List 查询线索列表。可见范围过滤用的是和单条访问判断同一套规则
// 生成的查询条件，软删除的线索默认排除。
func (s *LeadService) List(ctx context.Context, query LeadListQuery, actor models.Actor) ([]models.Lead, error) {
	ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
	if err != nil {
		return nil, utils.CreateServerError("查询团队信息失败")
	}

	filter := LeadScopeFilter(actor, ledTeams)
	filter["isDeleted"] = false

	if query.Status != "" {
		filter["status"] = query.Status
	}
	if query.Priority != "" {
		filter["priority"] = query.Priority
	}
	if query.Keyword != "" {
		filter["$and"] = []bson.M{{
			"$or": []bson.M{
				{"name": bson.M{"$regex": query.Keyword, "$options": "i"}},
				{"company": bson.M{"$regex": query.Keyword, "$options": "i"}},
				{"contactPerson": bson.M{"$regex": query.Keyword, "$options": "i"}},
			},
		}}
	}

	leads, err := s.leads.Find(ctx, filter)
	if err != nil {
		return nil, utils.CreateServerError("查询线索列表失败")
	}
	return leads, nil
}

// Update 更新线索基本信息，归档线索对非admin只读
func (s *LeadService) Update(ctx context.Context, id string, req models.UpdateLeadRequest, actor models.Actor) (*models.Lead, error) {
	lead, err := s.getAccessibleLead(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if lead.Status == models.LeadStatusArchived && !actor.IsAdmin() {
		return nil, utils.CreateInvalidTransitionError("已归档的线索不可编辑")
	}

	if req.Name != "" {
		lead.Name = req.Name
	}
	if req.Company != "" {
		lead.Company = req.Company
	}
	if req.ContactPerson != "" {
		lead.ContactPerson = req.ContactPerson
	}
	if req.ContactPhone != "" {
		lead.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != "" {
		lead.ContactEmail = req.ContactEmail
	}
	if req.Priority != "" {
		lead.Priority = req.Priority
	}
	if req.EstimatedValue > 0 {
		lead.EstimatedValue = req.EstimatedValue
	}
	if req.ActualValue > 0 {
		lead.ActualValue = req.ActualValue
	}
	lead.UpdatedAt = s.now()

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("更新线索失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadUpdated,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   fmt.Sprintf("更新线索 [%s] 基本信息", lead.Name),
	})

	return lead, nil
}

// UpdateStatus 变更线索状态。成功时追加一条状态历史和一条
// status_changed备注；首次进入converted状态时一次性写入成交信息。
func (s *LeadService) UpdateStatus(ctx context.Context, id string, req models.UpdateLeadStatusRequest, actor models.Actor) (*models.Lead, error) {
	lead, err := s.getAccessibleLead(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	newStatus := req.Status
	if !newStatus.IsValid() {
		return nil, utils.CreateValidationError("无效的线索状态: " + string(newStatus))
	}
	// 归档线索只读，admin除外
	if lead.Status == models.LeadStatusArchived && !actor.IsAdmin() {
		return nil, utils.CreateInvalidTransitionError("已归档的线索不可编辑")
	}
	// 归档只能通过转项目操作完成
	if newStatus == models.LeadStatusArchived {
		return nil, utils.CreateInvalidTransitionError("归档需要通过转项目操作完成")
	}
	if newStatus == models.LeadStatusLost && req.Reason == "" {
		return nil, utils.CreateValidationError("流失线索必须填写流失原因")
	}

	// 重复的成交调用幂等处理：状态不变，成交信息不重写，
	// 但历史和审计照常追加
	repeatConversion := lead.Status == models.LeadStatusConverted && newStatus == models.LeadStatusConverted
	if !repeatConversion && !lead.Status.CanTransitionTo(newStatus) {
		return nil, utils.CreateInvalidTransitionError(
			fmt.Sprintf("不允许从 %s 流转到 %s", lead.Status, newStatus))
	}

	now := s.now()
	oldStatus := lead.Status
	lead.Status = newStatus
	lead.UpdatedAt = now

	if newStatus == models.LeadStatusLost {
		lead.LostReason = req.Reason
	}
	if newStatus == models.LeadStatusConverted && lead.ConvertedAt == nil {
		lead.ConvertedAt = &now
		lead.ActualCloseDate = &now
		lead.ConversionDuration = conversionDays(lead.CreatedAt, now)
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("更新线索状态失败")
	}

	if err := s.history.Append(ctx, &models.LeadStatusHistory{
		LeadID:     id,
		Status:     newStatus,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		Note:       req.Note,
		CreatedAt:  now,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": id}, "写入状态历史失败")
	}

	noteContent := fmt.Sprintf("状态由 %s 变更为 %s", oldStatus, newStatus)
	if req.Note != "" {
		noteContent += ": " + req.Note
	}
	if newStatus == models.LeadStatusLost {
		noteContent += "（原因: " + req.Reason + "）"
	}
	s.appendNote(ctx, id, noteContent, models.LeadNoteTypeStatusChanged, actor, now)

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadStatusChanged,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   fmt.Sprintf(`{"oldStatus":"%s","newStatus":"%s"}`, oldStatus, newStatus),
	})

	return lead, nil
}

// Assign 分配线索。team_lead只能分配给自己负责团队的成员或自己负责的团队。
func (s *LeadService) Assign(ctx context.Context, id string, req models.AssignLeadRequest, actor models.Actor) (*models.Lead, error) {
	assignedTo := utils.NormalizeRef(req.AssignedTo)
	assignedTeam := utils.NormalizeRef(req.AssignedTeam)
	if assignedTo == "" && assignedTeam == "" {
		return nil, utils.CreateValidationError("分配目标不能为空")
	}

	if actor.Role != models.UserRoleADMIN && actor.Role != models.UserRoleTEAM_LEAD {
		return nil, utils.CreateForbiddenError()
	}

	lead, err := s.findLiveLead(ctx, id)
	if err != nil {
		return nil, err
	}

	ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
	if err != nil {
		return nil, utils.CreateServerError("查询团队信息失败")
	}
	if !CanAccessLead(actor, lead, ledTeams) {
		return nil, utils.CreateForbiddenError()
	}
	if !CanAssignTo(actor, assignedTo, ledTeams) {
		return nil, utils.CreateForbiddenError()
	}
	if !CanAssignToTeam(actor, assignedTeam, ledTeams) {
		return nil, utils.CreateForbiddenError()
	}

	now := s.now()
	lead.AssignedTo = assignedTo
	lead.AssignedTeam = assignedTeam
	lead.AssignedBy = actor.ID
	lead.AssignedAt = &now
	lead.UpdatedAt = now

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("分配线索失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:       models.AuditActionLeadAssigned,
		ActorID:      actor.ID,
		ActorName:    actor.Username,
		TargetUserID: assignedTo,
		LeadID:       id,
		Details:      fmt.Sprintf("分配线索 [%s] 给用户 [%s] 团队 [%s]", lead.Name, assignedTo, assignedTeam),
	})

	return lead, nil
}

// ConvertToProject 把已成交的线索转为项目并归档，返回交给外部
// 任务服务的项目创建请求。仅converted状态可转。
func (s *LeadService) ConvertToProject(ctx context.Context, id string, actor models.Actor) (*models.ProjectRequest, error) {
	lead, err := s.getAccessibleLead(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if lead.Status != models.LeadStatusConverted {
		return nil, utils.CreateInvalidTransitionError("只有已成交的线索才能转为项目")
	}

	now := s.now()
	lead.Status = models.LeadStatusArchived
	lead.UpdatedAt = now

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("归档线索失败")
	}

	if err := s.history.Append(ctx, &models.LeadStatusHistory{
		LeadID:     id,
		Status:     models.LeadStatusArchived,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		Note:       "转为项目后归档",
		CreatedAt:  now,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": id}, "写入状态历史失败")
	}
	s.appendNote(ctx, id, "线索已转为项目并归档", models.LeadNoteTypeStatusChanged, actor, now)

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadConverted,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   fmt.Sprintf("线索 [%s] 转为项目", lead.Name),
	})

	return &models.ProjectRequest{
		LeadID:         id,
		LeadName:       lead.Name,
		Company:        lead.Company,
		AssignedTo:     lead.AssignedTo,
		EstimatedValue: lead.EstimatedValue,
		ActualValue:    lead.ActualValue,
		RequestedBy:    actor.ID,
		RequestedAt:    now,
	}, nil
}

// Escalate 升级线索给管理员处理，仅team_lead可操作，
// 并向每个admin各投递一条通知。
func (s *LeadService) Escalate(ctx context.Context, id string, req models.EscalateLeadRequest, actor models.Actor) (*models.Lead, error) {
	if actor.Role != models.UserRoleTEAM_LEAD {
		return nil, utils.CreateForbiddenError()
	}
	if req.Reason == "" {
		return nil, utils.CreateValidationError("升级原因不能为空")
	}

	lead, err := s.getAccessibleLead(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lead.EscalatedToAdmin = true
	lead.EscalatedAt = &now
	lead.EscalatedBy = actor.ID
	lead.EscalationReason = req.Reason
	lead.UpdatedAt = now

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("升级线索失败")
	}

	s.appendNote(ctx, id, "线索升级: "+req.Reason, models.LeadNoteTypeEscalation, actor, now)

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadEscalated,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   "升级原因: " + req.Reason,
	})

	// 向每个管理员各投递一条通知
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": id}, "查询管理员列表失败")
		return lead, nil
	}
	for _, admin := range admins {
		s.notifier.Notify(ctx, models.Notification{
			Type:     models.NotificationTypeLeadEscalated,
			Title:    "线索升级",
			Message:  fmt.Sprintf("%s 将线索 [%s] 升级处理: %s", actor.Username, lead.Name, req.Reason),
			UserID:   admin.ID.Hex(),
			SenderID: actor.ID,
			LeadID:   id,
			Priority: "high",
		})
	}

	return lead, nil
}

// SoftDelete 软删除线索，仅admin可操作，删除后立即从默认列表消失
func (s *LeadService) SoftDelete(ctx context.Context, id string, actor models.Actor) error {
	if !actor.IsAdmin() {
		return utils.CreateForbiddenError()
	}

	lead, err := s.findLiveLead(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	lead.IsDeleted = true
	lead.DeletedAt = &now
	lead.DeletedBy = actor.ID
	lead.UpdatedAt = now

	if err := s.leads.Update(ctx, lead); err != nil {
		return utils.CreateServerError("删除线索失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadDeleted,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   fmt.Sprintf("软删除线索 [%s]", lead.Name),
	})

	return nil
}

// Restore 恢复软删除的线索，仅admin可操作，超过恢复窗口拒绝
func (s *LeadService) Restore(ctx context.Context, id string, actor models.Actor) (*models.Lead, error) {
	if !actor.IsAdmin() {
		return nil, utils.CreateForbiddenError()
	}

	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, utils.CreateServerError("查询线索失败")
	}
	if lead == nil {
		return nil, utils.CreateNotFoundError("线索")
	}
	if !lead.IsDeleted || lead.DeletedAt == nil {
		return nil, utils.CreateValidationError("线索未被删除，无需恢复")
	}
	if s.now().Sub(*lead.DeletedAt) > s.recoveryWindow {
		return nil, utils.CreateRecoveryExpiredError()
	}

	lead.IsDeleted = false
	lead.DeletedAt = nil
	lead.DeletedBy = ""
	lead.UpdatedAt = s.now()

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, utils.CreateServerError("恢复线索失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadRestored,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
		Details:   fmt.Sprintf("恢复线索 [%s]", lead.Name),
	})

	return lead, nil
}

// AddNote 添加线索备注，权限与读取一致
func (s *LeadService) AddNote(ctx context.Context, id string, req models.AddLeadNoteRequest, actor models.Actor) (*models.LeadNote, error) {
	if _, err := s.getAccessibleLead(ctx, id, actor); err != nil {
		return nil, err
	}

	noteType := req.Type
	if noteType == "" {
		noteType = models.LeadNoteTypeGeneral
	}

	note := &models.LeadNote{
		LeadID:     id,
		Content:    req.Content,
		Type:       noteType,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		CreatedAt:  s.now(),
	}
	if err := s.notes.Append(ctx, note); err != nil {
		return nil, utils.CreateServerError("添加备注失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionLeadNoteAdded,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    id,
	})

	return note, nil
}

// findLiveLead 查找未删除的线索，缺失或已删除都按不存在处理
func (s *LeadService) findLiveLead(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, utils.CreateServerError("查询线索失败")
	}
	if lead == nil || lead.IsDeleted {
		return nil, utils.CreateNotFoundError("线索")
	}
	return lead, nil
}

// getAccessibleLead 查找线索并做可见性校验
func (s *LeadService) getAccessibleLead(ctx context.Context, id string, actor models.Actor) (*models.Lead, error) {
	lead, err := s.findLiveLead(ctx, id)
	if err != nil {
		return nil, err
	}

	ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
	if err != nil {
		return nil, utils.CreateServerError("查询团队信息失败")
	}
	if !CanAccessLead(actor, lead, ledTeams) {
		return nil, utils.CreateForbiddenError()
	}
	return lead, nil
}

// appendNote 追加一条线索备注，失败只记录日志
func (s *LeadService) appendNote(ctx context.Context, leadID, content string, noteType models.LeadNoteType, actor models.Actor, at time.Time) {
	if err := s.notes.Append(ctx, &models.LeadNote{
		LeadID:     leadID,
		Content:    content,
		Type:       noteType,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		CreatedAt:  at,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": leadID}, "追加线索备注失败")
	}
}

// conversionDays 按天向上取整计算成交耗时，最少0天
func conversionDays(createdAt, convertedAt time.Time) int {
	d := convertedAt.Sub(createdAt)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
