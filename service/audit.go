package service

import (
	"context"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// maxAuditResults 审计查询单次返回上限
const maxAuditResults = 100

// AuditService 审计记录器。写入失败不影响触发它的业务操作，
// 只记录日志后继续。
type AuditService struct {
	store AuditStore
	now   Clock
}

// NewAuditService 创建审计记录器
func NewAuditService(store AuditStore, now Clock) *AuditService {
	return &AuditService{store: store, now: now}
}

// Append 追加一条审计记录，失败时只记录日志，不向调用方传播
func (s *AuditService) Append(ctx context.Context, rec models.AuditRecord) {
	rec.CreatedAt = s.now()
	if err := s.store.Insert(ctx, &rec); err != nil {
		utils.LogError(err, map[string]interface{}{
			"action":  rec.Action,
			"actorId": rec.ActorID,
			"leadId":  rec.LeadID,
		}, "写入审计记录失败")
	}
}

// ByLead 查询某条线索的审计记录，按时间倒序，最多100条
func (s *AuditService) ByLead(ctx context.Context, leadID string) ([]models.AuditRecord, error) {
	return s.store.Find(ctx, bson.M{"leadId": leadID}, maxAuditResults)
}

// ByUser 查询某个操作人的审计记录，按时间倒序，最多100条
func (s *AuditService) ByUser(ctx context.Context, userID string) ([]models.AuditRecord, error) {
	return s.store.Find(ctx, bson.M{"actorId": userID}, maxAuditResults)
}

// ByTask 查询某个跟进任务的审计记录，按时间倒序，最多100条
func (s *AuditService) ByTask(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	return s.store.Find(ctx, bson.M{"taskId": taskID}, maxAuditResults)
}
