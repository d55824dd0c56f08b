package service

import (
	"time"

	"github.com/BerniceZTT/lead_end/config"
)

// Services 服务集合，main初始化后注入controllers
type Services struct {
	Leads         *LeadService
	FollowUps     *FollowUpService
	Notifications *NotificationService
	Audit         *AuditService
	Sweeper       *Sweeper
}

// Stores 各存储实现的集合
type Stores struct {
	Leads         LeadStore
	Notes         LeadNoteStore
	History       LeadHistoryStore
	FollowUps     FollowUpStore
	Notifications NotificationStore
	Audit         AuditStore
	Teams         TeamStore
	Users         UserStore
}

// NewServices 按配置组装全部服务
func NewServices(cfg *config.Config, stores Stores) *Services {
	now := time.Now

	var email EmailSender = NoopEmailSender{}
	if cfg.SMTPHost != "" {
		email = NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}

	audit := NewAuditService(stores.Audit, now)
	notifier := NewNotificationService(stores.Notifications, now)

	return &Services{
		Audit:         audit,
		Notifications: notifier,
		Leads: NewLeadService(
			stores.Leads, stores.Notes, stores.History,
			stores.Teams, stores.Users,
			audit, notifier, now, cfg.RecoveryWindowDays,
		),
		FollowUps: NewFollowUpService(
			stores.FollowUps, stores.Leads, stores.Notes,
			stores.Teams, stores.Users,
			audit, notifier, email, now, cfg.ReminderLookahead,
		),
		Sweeper: NewSweeper(
			stores.FollowUps, stores.Leads,
			notifier, audit, now,
			cfg.SweepInterval, cfg.ReminderLookahead,
		),
	}
}
