package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// FollowUpService 跟进任务管理。权限随所属线索走：能看到线索
// 才能看到它的跟进任务。线索缺失或已软删除的跟进任务从所有
// 读取路径中过滤掉。
type FollowUpService struct {
	followUps FollowUpStore
	leads     LeadStore
	notes     LeadNoteStore
	teams     TeamStore
	users     UserStore
	audit     *AuditService
	notifier  *NotificationService
	email     EmailSender
	now       Clock

	// 即将到期提醒的提前量
	lookahead time.Duration
}

// NewFollowUpService 创建跟进任务服务
func NewFollowUpService(
	followUps FollowUpStore,
	leads LeadStore,
	notes LeadNoteStore,
	teams TeamStore,
	users UserStore,
	audit *AuditService,
	notifier *NotificationService,
	email EmailSender,
	now Clock,
	lookahead time.Duration,
) *FollowUpService {
	return &FollowUpService{
		followUps: followUps,
		leads:     leads,
		notes:     notes,
		teams:     teams,
		users:     users,
		audit:     audit,
		notifier:  notifier,
		email:     email,
		now:       now,
		lookahead: lookahead,
	}
}

// Create 创建跟进任务。team_member只能给分配给自己的线索建任务；
// 同时更新线索的followUpDate并追加一条线索备注；邮件旁路尽力而为，
// 失败不影响创建。
func (s *FollowUpService) Create(ctx context.Context, req models.CreateFollowUpRequest, actor models.Actor) (*models.FollowUp, error) {
	leadID := utils.NormalizeRef(req.LeadID)
	if leadID == "" {
		return nil, utils.CreateValidationError("线索ID不能为空")
	}
	if req.Title == "" {
		return nil, utils.CreateValidationError("跟进标题不能为空")
	}
	if req.ScheduledDate.IsZero() {
		return nil, utils.CreateValidationError("计划时间不能为空")
	}

	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, utils.CreateServerError("查询线索失败")
	}
	if lead == nil || lead.IsDeleted {
		return nil, utils.CreateNotFoundError("线索")
	}

	if actor.Role == models.UserRoleTEAM_MEMBER {
		if lead.AssignedTo != actor.ID {
			return nil, utils.CreateForbiddenError()
		}
	} else {
		ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
		if err != nil {
			return nil, utils.CreateServerError("查询团队信息失败")
		}
		if !CanAccessLead(actor, lead, ledTeams) {
			return nil, utils.CreateForbiddenError()
		}
	}

	assignedTo := utils.NormalizeRef(req.AssignedTo)
	if assignedTo == "" {
		assignedTo = actor.ID
	}

	now := s.now()
	fu := &models.FollowUp{
		LeadID:        leadID,
		Title:         req.Title,
		Priority:      req.Priority,
		Status:        models.FollowUpStatusPending,
		AssignedTo:    assignedTo,
		ScheduledDate: req.ScheduledDate,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.followUps.Insert(ctx, fu); err != nil {
		return nil, utils.CreateServerError("创建跟进任务失败")
	}

	// 更新线索的下次跟进时间并追加备注，失败只记录日志不影响主流程
	lead.FollowUpDate = &req.ScheduledDate
	lead.UpdatedAt = now
	if err := s.leads.Update(ctx, lead); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": leadID}, "更新线索跟进时间失败")
	}
	if err := s.notes.Append(ctx, &models.LeadNote{
		LeadID:     leadID,
		Content:    fmt.Sprintf("创建跟进任务 [%s]，计划时间 %s", req.Title, req.ScheduledDate.Format("2006-01-02 15:04")),
		Type:       models.LeadNoteTypeFollowUp,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		CreatedAt:  now,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": leadID}, "追加线索备注失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionFollowUpScheduled,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    leadID,
		TaskID:    fu.ID.Hex(),
		Details:   fmt.Sprintf("为线索 [%s] 创建跟进任务 [%s]", lead.Name, req.Title),
	})

	// 邮件旁路: 异步发送，失败只记录日志
	go s.sendCreationEmail(assignedTo, lead, fu)

	return fu, nil
}

// sendCreationEmail 给被分配人发送跟进任务邮件，尽力而为
func (s *FollowUpService) sendCreationEmail(assignedTo string, lead *models.Lead, fu *models.FollowUp) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.Error().Interface("panic", r).Msg("发送跟进任务邮件时崩溃")
		}
	}()

	ctx := context.Background()
	user, err := s.users.FindByID(ctx, assignedTo)
	if err != nil || user == nil {
		utils.LogError(err, map[string]interface{}{"userId": assignedTo}, "查询跟进任务接收人失败")
		return
	}
	if err := s.email.SendFollowUpNotice(user, lead, fu); err != nil {
		utils.LogError(err, map[string]interface{}{
			"followUpId": fu.ID.Hex(),
			"userId":     assignedTo,
		}, "发送跟进任务邮件失败")
	}
}

// Complete 完成跟进任务
func (s *FollowUpService) Complete(ctx context.Context, id string, req models.CompleteFollowUpRequest, actor models.Actor) (*models.FollowUp, error) {
	fu, _, err := s.getAccessibleFollowUp(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if fu.Status != models.FollowUpStatusPending {
		return nil, utils.CreateInvalidTransitionError("只有待处理的跟进任务才能完成")
	}

	now := s.now()
	fu.Status = models.FollowUpStatusCompleted
	fu.CompletedAt = &now
	fu.CompletedBy = actor.ID
	fu.CompletionNotes = req.Notes
	fu.UpdatedAt = now

	if err := s.followUps.Update(ctx, fu); err != nil {
		return nil, utils.CreateServerError("完成跟进任务失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionFollowUpCompleted,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    fu.LeadID,
		TaskID:    id,
		Details:   req.Notes,
	})

	return fu, nil
}

// Reschedule 改期跟进任务。重置reminderSent，新的到期时间需要
// 重新提醒；overdueNotificationSent保持不变，不会对旧逾期重复通知。
func (s *FollowUpService) Reschedule(ctx context.Context, id string, req models.RescheduleFollowUpRequest, actor models.Actor) (*models.FollowUp, error) {
	if req.ScheduledDate.IsZero() {
		return nil, utils.CreateValidationError("新的计划时间不能为空")
	}

	fu, lead, err := s.getAccessibleFollowUp(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if fu.Status != models.FollowUpStatusPending {
		return nil, utils.CreateInvalidTransitionError("只有待处理的跟进任务才能改期")
	}

	now := s.now()
	oldDate := fu.ScheduledDate
	fu.ScheduledDate = req.ScheduledDate
	fu.ReminderSent = false
	fu.ReminderSentAt = nil
	fu.UpdatedAt = now

	if err := s.followUps.Update(ctx, fu); err != nil {
		return nil, utils.CreateServerError("改期跟进任务失败")
	}

	// 同步线索的下次跟进时间并留痕
	lead.FollowUpDate = &req.ScheduledDate
	lead.UpdatedAt = now
	if err := s.leads.Update(ctx, lead); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": fu.LeadID}, "更新线索跟进时间失败")
	}
	noteContent := fmt.Sprintf("跟进任务 [%s] 改期: %s -> %s",
		fu.Title, oldDate.Format("2006-01-02 15:04"), req.ScheduledDate.Format("2006-01-02 15:04"))
	if req.Notes != "" {
		noteContent += "（" + req.Notes + "）"
	}
	if err := s.notes.Append(ctx, &models.LeadNote{
		LeadID:     fu.LeadID,
		Content:    noteContent,
		Type:       models.LeadNoteTypeFollowUp,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		CreatedAt:  now,
	}); err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": fu.LeadID}, "追加线索备注失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionFollowUpRescheduled,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    fu.LeadID,
		TaskID:    id,
		Details:   noteContent,
	})

	return fu, nil
}

// Update 更新跟进任务的标题/优先级，改期必须走Reschedule
func (s *FollowUpService) Update(ctx context.Context, id string, req models.UpdateFollowUpRequest, actor models.Actor) (*models.FollowUp, error) {
	fu, _, err := s.getAccessibleFollowUp(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if fu.Status != models.FollowUpStatusPending {
		return nil, utils.CreateInvalidTransitionError("只有待处理的跟进任务才能编辑")
	}

	if req.Title != "" {
		fu.Title = req.Title
	}
	if req.Priority != "" {
		fu.Priority = req.Priority
	}
	fu.UpdatedAt = s.now()

	if err := s.followUps.Update(ctx, fu); err != nil {
		return nil, utils.CreateServerError("更新跟进任务失败")
	}
	return fu, nil
}

// Cancel 取消跟进任务
func (s *FollowUpService) Cancel(ctx context.Context, id string, actor models.Actor) (*models.FollowUp, error) {
	fu, _, err := s.getAccessibleFollowUp(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if fu.Status != models.FollowUpStatusPending {
		return nil, utils.CreateInvalidTransitionError("只有待处理的跟进任务才能取消")
	}

	fu.Status = models.FollowUpStatusCancelled
	fu.UpdatedAt = s.now()

	if err := s.followUps.Update(ctx, fu); err != nil {
		return nil, utils.CreateServerError("取消跟进任务失败")
	}

	s.audit.Append(ctx, models.AuditRecord{
		Action:    models.AuditActionFollowUpCancelled,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		LeadID:    fu.LeadID,
		TaskID:    id,
	})

	return fu, nil
}

// List 查询可见的跟进任务，线索缺失或已删除的任务被过滤掉
func (s *FollowUpService) List(ctx context.Context, status string, actor models.Actor) ([]models.FollowUp, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	fus, err := s.followUps.Find(ctx, filter)
	if err != nil {
		return nil, utils.CreateServerError("查询跟进任务失败")
	}
	return s.filterVisible(ctx, fus, actor)
}

// Upcoming 查询24小时内到期的待处理跟进任务
func (s *FollowUpService) Upcoming(ctx context.Context, actor models.Actor) ([]models.FollowUp, error) {
	now := s.now()
	fus, err := s.followUps.Find(ctx, bson.M{
		"status": models.FollowUpStatusPending,
		"scheduledDate": bson.M{
			"$gte": now,
			"$lte": now.Add(s.lookahead),
		},
	})
	if err != nil {
		return nil, utils.CreateServerError("查询即将到期的跟进任务失败")
	}
	return s.filterVisible(ctx, fus, actor)
}

// Overdue 查询已逾期的待处理跟进任务
func (s *FollowUpService) Overdue(ctx context.Context, actor models.Actor) ([]models.FollowUp, error) {
	fus, err := s.followUps.Find(ctx, bson.M{
		"status":        models.FollowUpStatusPending,
		"scheduledDate": bson.M{"$lt": s.now()},
	})
	if err != nil {
		return nil, utils.CreateServerError("查询逾期跟进任务失败")
	}
	return s.filterVisible(ctx, fus, actor)
}

// filterVisible 过滤读取结果: 线索必须存在、未删除，且操作人可见。
// 可见判断和单条操作(Complete/Reschedule)用同一条规则:
// 任务被分配人，或所属线索对操作人可见。
func (s *FollowUpService) filterVisible(ctx context.Context, fus []models.FollowUp, actor models.Actor) ([]models.FollowUp, error) {
	ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
	if err != nil {
		return nil, utils.CreateServerError("查询团队信息失败")
	}

	visible := make([]models.FollowUp, 0, len(fus))
	leadCache := make(map[string]*models.Lead)
	for _, fu := range fus {
		lead, ok := leadCache[fu.LeadID]
		if !ok {
			lead, err = s.leads.FindByID(ctx, fu.LeadID)
			if err != nil {
				utils.LogError(err, map[string]interface{}{"leadId": fu.LeadID}, "查询跟进任务所属线索失败")
				continue
			}
			leadCache[fu.LeadID] = lead
		}
		// 孤儿任务: 线索缺失或已软删除，不对外可见
		if lead == nil || lead.IsDeleted {
			continue
		}
		if fu.AssignedTo != actor.ID && !CanAccessLead(actor, lead, ledTeams) {
			continue
		}
		visible = append(visible, fu)
	}
	return visible, nil
}

// getAccessibleFollowUp 查找跟进任务并按所属线索做权限校验
func (s *FollowUpService) getAccessibleFollowUp(ctx context.Context, id string, actor models.Actor) (*models.FollowUp, *models.Lead, error) {
	fu, err := s.followUps.FindByID(ctx, id)
	if err != nil {
		return nil, nil, utils.CreateServerError("查询跟进任务失败")
	}
	if fu == nil {
		return nil, nil, utils.CreateNotFoundError("跟进任务")
	}

	lead, err := s.leads.FindByID(ctx, fu.LeadID)
	if err != nil {
		return nil, nil, utils.CreateServerError("查询线索失败")
	}
	if lead == nil || lead.IsDeleted {
		return nil, nil, utils.CreateNotFoundError("线索")
	}

	// 任务被分配人和所属线索可见的人都可操作，与列表可见性同一条规则
	if fu.AssignedTo == actor.ID {
		return fu, lead, nil
	}
	ledTeams, err := ledTeamsOf(ctx, s.teams, actor)
	if err != nil {
		return nil, nil, utils.CreateServerError("查询团队信息失败")
	}
	if !CanAccessLead(actor, lead, ledTeams) {
		return nil, nil, utils.CreateForbiddenError()
	}
	return fu, lead, nil
}
