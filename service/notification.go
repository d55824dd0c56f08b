package service

import (
	"context"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"
)

// NotificationService 通知收件箱。业务操作产生的通知写入失败
// 只记录日志，不影响主流程；后台扫描的写入失败由扫描器自己处理，
// 以保证至少一次投递。
type NotificationService struct {
	store NotificationStore
	now   Clock
}

// NewNotificationService 创建通知服务
func NewNotificationService(store NotificationStore, now Clock) *NotificationService {
	return &NotificationService{store: store, now: now}
}

// Notify 投递一条通知，失败时只记录日志
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) {
	if err := s.Deliver(ctx, n); err != nil {
		utils.LogError(err, map[string]interface{}{
			"type":   n.Type,
			"userId": n.UserID,
			"leadId": n.LeadID,
		}, "写入通知失败")
	}
}

// Deliver 投递一条通知并返回错误，供需要感知失败的调用方使用
func (s *NotificationService) Deliver(ctx context.Context, n models.Notification) error {
	n.CreatedAt = s.now()
	n.IsRead = false
	return s.store.Insert(ctx, &n)
}

// ListForUser 查询某用户的通知
func (s *NotificationService) ListForUser(ctx context.Context, actor models.Actor, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListForUser(ctx, actor.ID, unreadOnly)
}

// MarkRead 标记通知已读，仅接收人可操作
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor models.Actor) error {
	matched, err := s.store.MarkRead(ctx, id, actor.ID)
	if err != nil {
		return utils.CreateServerError("标记通知已读失败")
	}
	if !matched {
		return utils.CreateNotFoundError("通知")
	}
	return nil
}
