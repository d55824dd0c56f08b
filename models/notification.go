package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeFollowUpUpcoming NotificationType = "follow_up_upcoming" // 跟进即将到期
	NotificationTypeFollowUpOverdue  NotificationType = "follow_up_overdue"  // 跟进已逾期
	NotificationTypeLeadEscalated    NotificationType = "lead_escalated"     // 线索升级
)

// Notification 站内通知
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Type       NotificationType   `bson:"type" json:"type"`
	Title      string             `bson:"title" json:"title"`
	Message    string             `bson:"message" json:"message"`
	UserID     string             `bson:"userId" json:"userId"` // 接收人
	SenderID   string             `bson:"senderId,omitempty" json:"senderId,omitempty"`
	LeadID     string             `bson:"leadId,omitempty" json:"leadId,omitempty"`
	FollowUpID string             `bson:"followUpId,omitempty" json:"followUpId,omitempty"`
	IsRead     bool               `bson:"isRead" json:"isRead"`
	Priority   string             `bson:"priority,omitempty" json:"priority,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
