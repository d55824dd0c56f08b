package service

import (
	"context"
	"testing"
	"time"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("创建成功并同步线索跟进时间", func(t *testing.T) {
		env := newTestEnv()
		lead := env.mustCreateLead(models.Lead{Name: "回访", AssignedTo: "m1"})
		scheduled := env.now.Add(48 * time.Hour)

		fu, err := env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			LeadID:        lead.ID.Hex(),
			Title:         "季度回访",
			ScheduledDate: scheduled,
		}, memberActor("m1"))
		require.NoError(t, err)
		assert.Equal(t, models.FollowUpStatusPending, fu.Status)
		// 未指定被分配人时默认为操作人
		assert.Equal(t, "m1", fu.AssignedTo)
		assert.False(t, fu.ReminderSent)

		stored, _ := env.leads.FindByID(ctx, lead.ID.Hex())
		require.NotNil(t, stored.FollowUpDate)
		assert.Equal(t, scheduled, *stored.FollowUpDate)

		notes := env.notes.byLead(lead.ID.Hex())
		require.Len(t, notes, 1)
		assert.Equal(t, models.LeadNoteTypeFollowUp, notes[0].Type)

		assert.Len(t, env.audits.byAction(models.AuditActionFollowUpScheduled), 1)
	})

	t.Run("team_member只能给自己的线索建任务", func(t *testing.T) {
		env := newTestEnv()
		lead := env.mustCreateLead(models.Lead{Name: "别人的", AssignedTo: "other"})

		_, err := env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			LeadID:        lead.ID.Hex(),
			Title:         "越权",
			ScheduledDate: env.now.Add(time.Hour),
		}, memberActor("m1"))
		assert.True(t, utils.IsErrorCode(err, "FORBIDDEN"))
	})

	t.Run("已删除线索不能建任务", func(t *testing.T) {
		env := newTestEnv()
		lead := env.mustCreateLead(models.Lead{Name: "已删", IsDeleted: true})

		_, err := env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			LeadID:        lead.ID.Hex(),
			Title:         "无主",
			ScheduledDate: env.now.Add(time.Hour),
		}, adminActor("admin1"))
		assert.True(t, utils.IsErrorCode(err, "RESOURCE_NOT_FOUND"))
	})

	t.Run("必填字段校验", func(t *testing.T) {
		env := newTestEnv()
		lead := env.mustCreateLead(models.Lead{Name: "校验"})
		actor := adminActor("admin1")

		_, err := env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			Title: "缺线索", ScheduledDate: env.now,
		}, actor)
		assert.True(t, utils.IsErrorCode(err, "VALIDATION_ERROR"))

		_, err = env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			LeadID: lead.ID.Hex(), ScheduledDate: env.now,
		}, actor)
		assert.True(t, utils.IsErrorCode(err, "VALIDATION_ERROR"))

		_, err = env.followUpSvc.Create(ctx, models.CreateFollowUpRequest{
			LeadID: lead.ID.Hex(), Title: "缺时间",
		}, actor)
		assert.True(t, utils.IsErrorCode(err, "VALIDATION_ERROR"))
	})
}

func TestFollowUpComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	lead := env.mustCreateLead(models.Lead{Name: "完成", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "拜访", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})

	completed, err := env.followUpSvc.Complete(ctx, fu.ID.Hex(),
		models.CompleteFollowUpRequest{Notes: "已签到访"}, memberActor("m1"))
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusCompleted, completed.Status)
	assert.Equal(t, "m1", completed.CompletedBy)
	require.NotNil(t, completed.CompletedAt)

	// 已完成的任务不能再次完成
	_, err = env.followUpSvc.Complete(ctx, fu.ID.Hex(),
		models.CompleteFollowUpRequest{}, memberActor("m1"))
	assert.True(t, utils.IsErrorCode(err, "INVALID_TRANSITION"))

	assert.Len(t, env.audits.byAction(models.AuditActionFollowUpCompleted), 1)
}

func TestFollowUpReschedule(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	lead := env.mustCreateLead(models.Lead{Name: "改期", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "再约", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})

	// 先让扫描器把提醒发出去
	result := env.sweeper.SweepOnce(ctx, env.now)
	require.Equal(t, 1, result.UpcomingNotified)

	newDate := env.now.Add(72 * time.Hour)
	rescheduled, err := env.followUpSvc.Reschedule(ctx, fu.ID.Hex(),
		models.RescheduleFollowUpRequest{ScheduledDate: newDate, Notes: "客户出差"}, memberActor("m1"))
	require.NoError(t, err)
	assert.Equal(t, newDate, rescheduled.ScheduledDate)
	// 改期重置提醒标记,新的到期时间重新提醒
	assert.False(t, rescheduled.ReminderSent)
	assert.Nil(t, rescheduled.ReminderSentAt)
	// 状态保持待处理，扫描器才能继续选中它
	assert.Equal(t, models.FollowUpStatusPending, rescheduled.Status)

	stored, _ := env.leads.FindByID(ctx, lead.ID.Hex())
	require.NotNil(t, stored.FollowUpDate)
	assert.Equal(t, newDate, *stored.FollowUpDate)

	// 新时间进入窗口后再次提醒
	env.advance(50 * time.Hour)
	result = env.sweeper.SweepOnce(ctx, env.now)
	assert.Equal(t, 1, result.UpcomingNotified)
	assert.Len(t, env.notifs.ofType(models.NotificationTypeFollowUpUpcoming), 2)

	assert.Len(t, env.audits.byAction(models.AuditActionFollowUpRescheduled), 1)
}

// 改期不影响逾期标记，旧逾期不会被重复通知
func TestFollowUpRescheduleKeepsOverdueFlag(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	lead := env.mustCreateLead(models.Lead{Name: "逾期改期", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "迟到", AssignedTo: "m1",
		ScheduledDate: env.now.Add(-time.Hour),
	})

	result := env.sweeper.SweepOnce(ctx, env.now)
	require.Equal(t, 1, result.OverdueNotified)

	_, err := env.followUpSvc.Reschedule(ctx, fu.ID.Hex(),
		models.RescheduleFollowUpRequest{ScheduledDate: env.now.Add(time.Hour)}, memberActor("m1"))
	require.NoError(t, err)

	stored, _ := env.followUps.FindByID(ctx, fu.ID.Hex())
	assert.True(t, stored.OverdueNotificationSent)

	// 后续扫描不会对旧逾期重复通知
	result = env.sweeper.SweepOnce(ctx, env.now)
	assert.Equal(t, 0, result.OverdueNotified)
	assert.Len(t, env.notifs.ofType(models.NotificationTypeFollowUpOverdue), 1)
}

func TestFollowUpCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	lead := env.mustCreateLead(models.Lead{Name: "取消", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "不去了", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})

	cancelled, err := env.followUpSvc.Cancel(ctx, fu.ID.Hex(), memberActor("m1"))
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusCancelled, cancelled.Status)

	// 取消后不再被扫描选中
	result := env.sweeper.SweepOnce(ctx, env.now)
	assert.Equal(t, 0, result.UpcomingNotified)

	// 也不能再改期
	_, err = env.followUpSvc.Reschedule(ctx, fu.ID.Hex(),
		models.RescheduleFollowUpRequest{ScheduledDate: env.now.Add(time.Hour)}, memberActor("m1"))
	assert.True(t, utils.IsErrorCode(err, "INVALID_TRANSITION"))
}

func TestFollowUpVisibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mine := env.mustCreateLead(models.Lead{Name: "我的", AssignedTo: "m1"})
	others := env.mustCreateLead(models.Lead{Name: "别人的", AssignedTo: "m2"})
	deleted := env.mustCreateLead(models.Lead{Name: "已删", AssignedTo: "m1", IsDeleted: true})

	env.mustCreateFollowUp(models.FollowUp{
		LeadID: mine.ID.Hex(), Title: "可见", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})
	env.mustCreateFollowUp(models.FollowUp{
		LeadID: others.ID.Hex(), Title: "不可见", AssignedTo: "m2",
		ScheduledDate: env.now.Add(time.Hour),
	})
	env.mustCreateFollowUp(models.FollowUp{
		LeadID: deleted.ID.Hex(), Title: "孤儿", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})
	env.mustCreateFollowUp(models.FollowUp{
		LeadID: hexID("missing"), Title: "线索缺失", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})

	t.Run("team_member只看到自己线索的有效任务", func(t *testing.T) {
		fus, err := env.followUpSvc.List(ctx, "", memberActor("m1"))
		require.NoError(t, err)
		require.Len(t, fus, 1)
		assert.Equal(t, "可见", fus[0].Title)
	})

	t.Run("admin也看不到孤儿任务", func(t *testing.T) {
		fus, err := env.followUpSvc.List(ctx, "", adminActor("admin1"))
		require.NoError(t, err)
		assert.Len(t, fus, 2)
	})

	t.Run("Upcoming同样过滤孤儿任务", func(t *testing.T) {
		fus, err := env.followUpSvc.Upcoming(ctx, adminActor("admin1"))
		require.NoError(t, err)
		assert.Len(t, fus, 2)
	})

	t.Run("Overdue按当前时间筛选", func(t *testing.T) {
		fus, err := env.followUpSvc.Overdue(ctx, adminActor("admin1"))
		require.NoError(t, err)
		assert.Empty(t, fus)

		env.advance(2 * time.Hour)
		fus, err = env.followUpSvc.Overdue(ctx, adminActor("admin1"))
		require.NoError(t, err)
		assert.Len(t, fus, 2)
	})
}

func TestFollowUpListUpcomingSamePredicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// m1的线索上有一条分配给m2的任务：
	// 两人都应在List和Upcoming里看到它，且m2可操作
	lead := env.mustCreateLead(models.Lead{Name: "交叉分配", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "交叉任务", AssignedTo: "m2",
		ScheduledDate: env.now.Add(time.Hour),
	})

	for _, actor := range []models.Actor{memberActor("m1"), memberActor("m2")} {
		listed, err := env.followUpSvc.List(ctx, "", actor)
		require.NoError(t, err)
		upcoming, err := env.followUpSvc.Upcoming(ctx, actor)
		require.NoError(t, err)
		require.Len(t, listed, 1, "actor %s", actor.ID)
		require.Len(t, upcoming, 1, "actor %s", actor.ID)
		assert.Equal(t, listed[0].ID, upcoming[0].ID)
	}

	// 不相关成员在任何读取路径都看不到
	listed, err := env.followUpSvc.List(ctx, "", memberActor("m3"))
	require.NoError(t, err)
	assert.Empty(t, listed)
	upcoming, err := env.followUpSvc.Upcoming(ctx, memberActor("m3"))
	require.NoError(t, err)
	assert.Empty(t, upcoming)

	// 列表里可见的任务一定可操作
	done, err := env.followUpSvc.Complete(ctx, fu.ID.Hex(),
		models.CompleteFollowUpRequest{}, memberActor("m2"))
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusCompleted, done.Status)
}

func TestFollowUpUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	lead := env.mustCreateLead(models.Lead{Name: "编辑", AssignedTo: "m1"})
	fu := env.mustCreateFollowUp(models.FollowUp{
		LeadID: lead.ID.Hex(), Title: "旧标题", Priority: "low", AssignedTo: "m1",
		ScheduledDate: env.now.Add(time.Hour),
	})

	updated, err := env.followUpSvc.Update(ctx, fu.ID.Hex(),
		models.UpdateFollowUpRequest{Title: "新标题", Priority: "high"}, memberActor("m1"))
	require.NoError(t, err)
	assert.Equal(t, "新标题", updated.Title)
	assert.Equal(t, "high", updated.Priority)
	// 编辑不影响计划时间
	assert.Equal(t, fu.ScheduledDate, updated.ScheduledDate)
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	actor := memberActor("m1")

	env.notifSvc.Notify(ctx, models.Notification{
		Type: models.NotificationTypeFollowUpUpcoming, UserID: "m1", Title: "a",
	})
	env.notifSvc.Notify(ctx, models.Notification{
		Type: models.NotificationTypeFollowUpOverdue, UserID: "m1", Title: "b",
	})
	env.notifSvc.Notify(ctx, models.Notification{
		Type: models.NotificationTypeFollowUpUpcoming, UserID: "m2", Title: "c",
	})

	notifs, err := env.notifSvc.ListForUser(ctx, actor, false)
	require.NoError(t, err)
	require.Len(t, notifs, 2)

	require.NoError(t, env.notifSvc.MarkRead(ctx, notifs[0].ID.Hex(), actor))

	unread, err := env.notifSvc.ListForUser(ctx, actor, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	// 不是接收人不能标记
	err = env.notifSvc.MarkRead(ctx, notifs[1].ID.Hex(), memberActor("m2"))
	assert.True(t, utils.IsErrorCode(err, "RESOURCE_NOT_FOUND"))
}
