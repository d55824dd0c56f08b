package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction 审计动作标签
type AuditAction string

const (
	AuditActionLeadCreated         AuditAction = "lead_created"
	AuditActionLeadUpdated         AuditAction = "lead_updated"
	AuditActionLeadStatusChanged   AuditAction = "lead_status_changed"
	AuditActionLeadAssigned        AuditAction = "lead_assigned"
	AuditActionLeadEscalated       AuditAction = "lead_escalated"
	AuditActionLeadDeleted         AuditAction = "lead_deleted"
	AuditActionLeadRestored        AuditAction = "lead_restored"
	AuditActionLeadConverted       AuditAction = "lead_converted_to_project"
	AuditActionLeadNoteAdded       AuditAction = "lead_note_added"
	AuditActionFollowUpScheduled   AuditAction = "follow_up_scheduled"
	AuditActionFollowUpCompleted   AuditAction = "follow_up_completed"
	AuditActionFollowUpRescheduled AuditAction = "follow_up_rescheduled"
	AuditActionFollowUpCancelled   AuditAction = "follow_up_cancelled"
	AuditActionFollowUpReminder    AuditAction = "follow_up_reminder_sent"
)

// AuditRecord 审计记录，只增不改不删
type AuditRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Action       AuditAction        `bson:"action" json:"action"`
	ActorID      string             `bson:"actorId" json:"actorId"`
	ActorName    string             `bson:"actorName,omitempty" json:"actorName,omitempty"`
	TargetUserID string             `bson:"targetUserId,omitempty" json:"targetUserId,omitempty"`
	LeadID       string             `bson:"leadId,omitempty" json:"leadId,omitempty"`
	TaskID       string             `bson:"taskId,omitempty" json:"taskId,omitempty"`
	Details      string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
