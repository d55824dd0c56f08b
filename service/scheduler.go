package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"
)

// Sweeper 后台扫描器。按固定间隔扫描跟进任务，对即将到期和已逾期
// 的任务各投递一次通知。通知写入在前、标记置位在后，进程在两步之间
// 中断时下个周期会重发，投递语义是至少一次，不是恰好一次。
type Sweeper struct {
	followUps FollowUpStore
	leads     LeadStore
	notifier  *NotificationService
	audit     *AuditService
	now       Clock

	interval  time.Duration
	lookahead time.Duration
}

// NewSweeper 创建后台扫描器
func NewSweeper(
	followUps FollowUpStore,
	leads LeadStore,
	notifier *NotificationService,
	audit *AuditService,
	now Clock,
	interval, lookahead time.Duration,
) *Sweeper {
	return &Sweeper{
		followUps: followUps,
		leads:     leads,
		notifier:  notifier,
		audit:     audit,
		now:       now,
		interval:  interval,
		lookahead: lookahead,
	}
}

// SweepResult 单次扫描的统计
type SweepResult struct {
	UpcomingNotified int
	OverdueNotified  int
	Skipped          int
}

// Run 启动扫描循环，所有扫描都在同一个goroutine里执行，
// 单次扫描耗时过长只会顺延下一次，不会出现重叠
func (s *Sweeper) Run(ctx context.Context) {
	utils.Logger.Info().
		Dur("interval", s.interval).
		Dur("lookahead", s.lookahead).
		Msg("后台扫描器启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Logger.Info().Msg("后台扫描器退出")
			return
		case <-ticker.C:
			result := s.SweepOnce(ctx, s.now())
			utils.LogInfo(map[string]interface{}{
				"upcoming": result.UpcomingNotified,
				"overdue":  result.OverdueNotified,
				"skipped":  result.Skipped,
			}, "后台扫描完成")
		}
	}
}

// SweepOnce 执行一次扫描: 先跑即将到期检查，再跑逾期检查。
// 单条处理出错只记录日志并继续下一条。
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) SweepResult {
	var result SweepResult
	s.upcomingPass(ctx, now, &result)
	s.overduePass(ctx, now, &result)
	return result
}

// upcomingPass 即将到期检查: 待处理、未发提醒、计划时间落在
// [now, now+lookahead]内的任务，逐条投递"即将到期"通知后置位标记。
// 线索缺失或已删除的任务跳过且不置位，等线索恢复有效后自然补发。
func (s *Sweeper) upcomingPass(ctx context.Context, now time.Time, result *SweepResult) {
	fus, err := s.followUps.ListPendingInWindow(ctx, now, now.Add(s.lookahead))
	if err != nil {
		utils.LogError(err, nil, "查询即将到期的跟进任务失败")
		return
	}

	for _, fu := range fus {
		lead, ok := s.liveLead(ctx, fu.LeadID)
		if !ok {
			result.Skipped++
			continue
		}

		n := models.Notification{
			Type:       models.NotificationTypeFollowUpUpcoming,
			Title:      "跟进即将到期",
			Message:    fmt.Sprintf("线索 [%s] 的跟进任务 [%s] 将于 %s 到期", lead.Name, fu.Title, fu.ScheduledDate.Format("2006-01-02 15:04")),
			UserID:     fu.AssignedTo,
			LeadID:     fu.LeadID,
			FollowUpID: fu.ID.Hex(),
			Priority:   fu.Priority,
		}
		// 先写通知再置位标记，中间失败下个周期重发
		if err := s.notifier.Deliver(ctx, n); err != nil {
			utils.LogError(err, map[string]interface{}{"followUpId": fu.ID.Hex()}, "投递到期提醒失败")
			continue
		}
		if err := s.followUps.MarkReminderSent(ctx, fu.ID.Hex(), now); err != nil {
			utils.LogError(err, map[string]interface{}{"followUpId": fu.ID.Hex()}, "置位提醒标记失败")
			continue
		}
		result.UpcomingNotified++

		s.audit.Append(ctx, models.AuditRecord{
			Action:  models.AuditActionFollowUpReminder,
			ActorID: "system",
			LeadID:  fu.LeadID,
			TaskID:  fu.ID.Hex(),
			Details: "到期提醒",
		})
	}
}

// overduePass 逾期检查: 待处理、未发逾期通知、计划时间早于now的任务
func (s *Sweeper) overduePass(ctx context.Context, now time.Time, result *SweepResult) {
	fus, err := s.followUps.ListPendingOverdue(ctx, now)
	if err != nil {
		utils.LogError(err, nil, "查询逾期跟进任务失败")
		return
	}

	for _, fu := range fus {
		lead, ok := s.liveLead(ctx, fu.LeadID)
		if !ok {
			result.Skipped++
			continue
		}

		n := models.Notification{
			Type:       models.NotificationTypeFollowUpOverdue,
			Title:      "跟进已逾期",
			Message:    fmt.Sprintf("线索 [%s] 的跟进任务 [%s] 已于 %s 逾期", lead.Name, fu.Title, fu.ScheduledDate.Format("2006-01-02 15:04")),
			UserID:     fu.AssignedTo,
			LeadID:     fu.LeadID,
			FollowUpID: fu.ID.Hex(),
			Priority:   "high",
		}
		if err := s.notifier.Deliver(ctx, n); err != nil {
			utils.LogError(err, map[string]interface{}{"followUpId": fu.ID.Hex()}, "投递逾期通知失败")
			continue
		}
		if err := s.followUps.MarkOverdueNotified(ctx, fu.ID.Hex()); err != nil {
			utils.LogError(err, map[string]interface{}{"followUpId": fu.ID.Hex()}, "置位逾期标记失败")
			continue
		}
		result.OverdueNotified++

		s.audit.Append(ctx, models.AuditRecord{
			Action:  models.AuditActionFollowUpReminder,
			ActorID: "system",
			LeadID:  fu.LeadID,
			TaskID:  fu.ID.Hex(),
			Details: "逾期通知",
		})
	}
}

// liveLead 查找有效线索，缺失、已删除或查询出错都视为无效
func (s *Sweeper) liveLead(ctx context.Context, leadID string) (*models.Lead, bool) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"leadId": leadID}, "扫描时查询线索失败")
		return nil, false
	}
	if lead == nil || lead.IsDeleted {
		return nil, false
	}
	return lead, true
}
