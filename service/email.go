package service

import (
	"fmt"

	"github.com/BerniceZTT/lead_end/models"
	"github.com/BerniceZTT/lead_end/utils"

	"gopkg.in/gomail.v2"
)

// EmailSender 跟进任务创建后的外部邮件旁路，发送失败不影响主流程
type EmailSender interface {
	SendFollowUpNotice(to *models.User, lead *models.Lead, fu *models.FollowUp) error
}

// SMTPEmailSender 基于SMTP的邮件发送器
type SMTPEmailSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPEmailSender 创建SMTP邮件发送器
func NewSMTPEmailSender(host string, port int, user, pass string) *SMTPEmailSender {
	return &SMTPEmailSender{
		Host: host,
		Port: port,
		User: user,
		Pass: pass,
		From: user,
	}
}

// SendFollowUpNotice 发送跟进任务通知邮件
func (s *SMTPEmailSender) SendFollowUpNotice(to *models.User, lead *models.Lead, fu *models.FollowUp) error {
	if to == nil || to.Email == "" {
		return fmt.Errorf("接收人邮箱为空")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", fmt.Sprintf("新的跟进任务: %s", fu.Title))
	m.SetBody("text/plain", fmt.Sprintf(
		"%s 您好:\n\n线索 [%s] 有一个新的跟进任务 [%s]，计划时间 %s，请及时处理。\n",
		to.Username, lead.Name, fu.Title, fu.ScheduledDate.Format("2006-01-02 15:04"),
	))

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

// NoopEmailSender 未配置SMTP时的空实现
type NoopEmailSender struct{}

// SendFollowUpNotice 只记录日志，不实际发送
func (NoopEmailSender) SendFollowUpNotice(to *models.User, lead *models.Lead, fu *models.FollowUp) error {
	utils.LogInfo(map[string]interface{}{
		"leadId":     fu.LeadID,
		"followUpId": fu.ID.Hex(),
	}, "未配置SMTP，跳过跟进任务邮件")
	return nil
}
