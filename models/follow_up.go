package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowUpStatus 跟进任务状态枚举
type FollowUpStatus string

const (
	FollowUpStatusPending     FollowUpStatus = "pending"     // 待处理
	FollowUpStatusCompleted   FollowUpStatus = "completed"   // 已完成
	FollowUpStatusCancelled   FollowUpStatus = "cancelled"   // 已取消
	FollowUpStatusRescheduled FollowUpStatus = "rescheduled" // 已改期
)

// IsValid 判断状态是否合法
func (s FollowUpStatus) IsValid() bool {
	switch s {
	case FollowUpStatusPending, FollowUpStatusCompleted,
		FollowUpStatusCancelled, FollowUpStatusRescheduled:
		return true
	}
	return false
}

// FollowUp 跟进任务
// 提醒标记只从false变true，不会回退；改期时重置reminderSent，
// 新的到期时间需要重新提醒，overdueNotificationSent保持不变。
type FollowUp struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	LeadID        string             `bson:"leadId" json:"leadId"`
	Title         string             `bson:"title" json:"title"`
	Priority      string             `bson:"priority,omitempty" json:"priority,omitempty"`
	Status        FollowUpStatus     `bson:"status" json:"status"`
	AssignedTo    string             `bson:"assignedTo" json:"assignedTo"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"`

	// 提醒标记
	ReminderSent            bool       `bson:"reminderSent" json:"reminderSent"`
	ReminderSentAt          *time.Time `bson:"reminderSentAt,omitempty" json:"reminderSentAt,omitempty"`
	OverdueNotificationSent bool       `bson:"overdueNotificationSent" json:"overdueNotificationSent"`

	// 完成信息
	CompletedAt    *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedBy    string     `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CompletionNotes string    `bson:"completionNotes,omitempty" json:"completionNotes,omitempty"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// 各种请求结构
type (
	// CreateFollowUpRequest 创建跟进任务请求
	CreateFollowUpRequest struct {
		LeadID        string    `json:"leadId" binding:"required"`
		Title         string    `json:"title" binding:"required"`
		Priority      string    `json:"priority"`
		AssignedTo    string    `json:"assignedTo"` // 省略时默认为操作人
		ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
	}

	// CompleteFollowUpRequest 完成跟进任务请求
	CompleteFollowUpRequest struct {
		Notes string `json:"notes"`
	}

	// UpdateFollowUpRequest 更新跟进任务请求
	UpdateFollowUpRequest struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
	}

	// RescheduleFollowUpRequest 改期跟进任务请求
	RescheduleFollowUpRequest struct {
		ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
		Notes         string    `json:"notes"`
	}
)
