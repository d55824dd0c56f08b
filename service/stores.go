package service

import (
	"context"
	"time"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Clock 注入的时钟，便于测试时固定时间
type Clock func() time.Time

// LeadStore 线索存储
type LeadStore interface {
	Insert(ctx context.Context, lead *models.Lead) error
	// FindByID 按ID查找线索，不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	// Update 按ID整文档替换（可变字段部分），最后写入者胜出
	Update(ctx context.Context, lead *models.Lead) error
	// Find 按过滤条件查找线索，按lastUpdate倒序
	Find(ctx context.Context, filter bson.M) ([]models.Lead, error)
}

// LeadNoteStore 线索备注存储，只增不改
type LeadNoteStore interface {
	Append(ctx context.Context, note *models.LeadNote) error
	ListByLead(ctx context.Context, leadID string) ([]models.LeadNote, error)
}

// LeadHistoryStore 线索状态历史存储，只增不改
type LeadHistoryStore interface {
	Append(ctx context.Context, entry *models.LeadStatusHistory) error
	ListByLead(ctx context.Context, leadID string) ([]models.LeadStatusHistory, error)
}

// FollowUpStore 跟进任务存储
type FollowUpStore interface {
	Insert(ctx context.Context, fu *models.FollowUp) error
	// FindByID 按ID查找，不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*models.FollowUp, error)
	Update(ctx context.Context, fu *models.FollowUp) error
	Find(ctx context.Context, filter bson.M) ([]models.FollowUp, error)
	// ListPendingInWindow 查找待处理、未发提醒、计划时间落在[from, to]内的任务
	ListPendingInWindow(ctx context.Context, from, to time.Time) ([]models.FollowUp, error)
	// ListPendingOverdue 查找待处理、未发逾期通知、计划时间早于now的任务
	ListPendingOverdue(ctx context.Context, now time.Time) ([]models.FollowUp, error)
	// MarkReminderSent 单调置位提醒标记
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	// MarkOverdueNotified 单调置位逾期通知标记
	MarkOverdueNotified(ctx context.Context, id string) error
}

// NotificationStore 通知存储
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	// MarkRead 仅接收人可标记已读，返回是否命中
	MarkRead(ctx context.Context, id, userID string) (bool, error)
}

// AuditStore 审计记录存储，只增不改不删
type AuditStore interface {
	Insert(ctx context.Context, rec *models.AuditRecord) error
	Find(ctx context.Context, filter bson.M, limit int64) ([]models.AuditRecord, error)
}

// TeamStore 团队存储（外部协作方维护，本服务只读）
type TeamStore interface {
	// FindByID 按ID查找团队，不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*models.Team, error)
	// TeamsLedBy 查找某用户担任负责人的所有团队
	TeamsLedBy(ctx context.Context, userID string) ([]models.Team, error)
}

// UserStore 用户存储（外部协作方维护，本服务只读）
type UserStore interface {
	// FindByID 按ID查找用户，不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}
