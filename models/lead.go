package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus 线索状态枚举
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"       // 新建
	LeadStatusContacted LeadStatus = "contacted" // 已联系
	LeadStatusQualified LeadStatus = "qualified" // 已确认意向
	LeadStatusProposal  LeadStatus = "proposal"  // 方案报价
	LeadStatusConverted LeadStatus = "converted" // 已成交
	LeadStatusLost      LeadStatus = "lost"      // 已流失
	LeadStatusArchived  LeadStatus = "archived"  // 已归档
)

// IsValid 判断状态是否合法
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusConverted, LeadStatusLost, LeadStatusArchived:
		return true
	}
	return false
}

// leadStatusTransitions 状态流转表，归档只能通过转项目操作进入
var leadStatusTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:       {LeadStatusContacted, LeadStatusQualified, LeadStatusProposal, LeadStatusLost},
	LeadStatusContacted: {LeadStatusQualified, LeadStatusProposal, LeadStatusConverted, LeadStatusLost},
	LeadStatusQualified: {LeadStatusProposal, LeadStatusConverted, LeadStatusLost},
	LeadStatusProposal:  {LeadStatusConverted, LeadStatusLost},
	LeadStatusConverted: {LeadStatusArchived},
	LeadStatusLost:      {},
	LeadStatusArchived:  {},
}

// CanTransitionTo 判断状态能否流转到目标状态
func (s LeadStatus) CanTransitionTo(target LeadStatus) bool {
	for _, t := range leadStatusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal 判断是否为终态
func (s LeadStatus) IsTerminal() bool {
	return len(leadStatusTransitions[s]) == 0
}

// LeadNoteType 线索备注类型
type LeadNoteType string

const (
	LeadNoteTypeGeneral       LeadNoteType = "general"
	LeadNoteTypeStatusChanged LeadNoteType = "status_changed"
	LeadNoteTypeEscalation    LeadNoteType = "escalation"
	LeadNoteTypeFollowUp      LeadNoteType = "follow_up"
)

// Lead 销售线索
type Lead struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Company       string             `bson:"company,omitempty" json:"company,omitempty"`
	ContactPerson string             `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
	ContactPhone  string             `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	ContactEmail  string             `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	Source        string             `bson:"source,omitempty" json:"source,omitempty"`
	Status        LeadStatus         `bson:"status" json:"status"`
	Priority      string             `bson:"priority,omitempty" json:"priority,omitempty"`

	// 分配信息
	AssignedTo   string     `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedTeam string     `bson:"assignedTeam,omitempty" json:"assignedTeam,omitempty"`
	AssignedBy   string     `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	AssignedAt   *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	// 金额
	EstimatedValue float64 `bson:"estimatedValue,omitempty" json:"estimatedValue,omitempty"`
	ActualValue    float64 `bson:"actualValue,omitempty" json:"actualValue,omitempty"`

	// 流失原因，进入lost状态时必填
	LostReason string `bson:"lostReason,omitempty" json:"lostReason,omitempty"`

	// 升级信息
	EscalatedToAdmin bool       `bson:"escalatedToAdmin" json:"escalatedToAdmin"`
	EscalatedAt      *time.Time `bson:"escalatedAt,omitempty" json:"escalatedAt,omitempty"`
	EscalatedBy      string     `bson:"escalatedBy,omitempty" json:"escalatedBy,omitempty"`
	EscalationReason string     `bson:"escalationReason,omitempty" json:"escalationReason,omitempty"`

	// 软删除信息
	IsDeleted bool       `bson:"isDeleted" json:"isDeleted"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy string     `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`

	// 成交信息，仅在首次进入converted状态时写入一次
	ConvertedAt        *time.Time `bson:"convertedAt,omitempty" json:"convertedAt,omitempty"`
	ActualCloseDate    *time.Time `bson:"actualCloseDate,omitempty" json:"actualCloseDate,omitempty"`
	ConversionDuration int        `bson:"conversionDuration,omitempty" json:"conversionDuration,omitempty"` // 天

	FollowUpDate *time.Time `bson:"followUpDate,omitempty" json:"followUpDate,omitempty"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsActive 判断线索是否有效（未软删除）
func (l *Lead) IsActive() bool {
	return !l.IsDeleted
}

// LeadNote 线索备注，按leadId追加，只增不改
type LeadNote struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	LeadID     string             `bson:"leadId" json:"leadId"`
	Content    string             `bson:"content" json:"content"`
	Type       LeadNoteType       `bson:"type" json:"type"`
	AuthorID   string             `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// LeadStatusHistory 线索状态变更历史，按leadId追加，只增不改
type LeadStatusHistory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	LeadID     string             `bson:"leadId" json:"leadId"`
	Status     LeadStatus         `bson:"status" json:"status"`
	AuthorID   string             `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ProjectRequest 转项目请求，交给外部任务服务创建项目
type ProjectRequest struct {
	LeadID         string    `json:"leadId"`
	LeadName       string    `json:"leadName"`
	Company        string    `json:"company,omitempty"`
	AssignedTo     string    `json:"assignedTo,omitempty"`
	EstimatedValue float64   `json:"estimatedValue,omitempty"`
	ActualValue    float64   `json:"actualValue,omitempty"`
	RequestedBy    string    `json:"requestedBy"`
	RequestedAt    time.Time `json:"requestedAt"`
}

// 各种请求结构
type (
	// CreateLeadRequest 创建线索请求
	CreateLeadRequest struct {
		Name           string  `json:"name" binding:"required"`
		Company        string  `json:"company"`
		ContactPerson  string  `json:"contactPerson"`
		ContactPhone   string  `json:"contactPhone"`
		ContactEmail   string  `json:"contactEmail"`
		Source         string  `json:"source"`
		Priority       string  `json:"priority"`
		EstimatedValue float64 `json:"estimatedValue"`
		AssignedTo     string  `json:"assignedTo"`
		AssignedTeam   string  `json:"assignedTeam"`
	}

	// UpdateLeadRequest 更新线索基本信息请求
	UpdateLeadRequest struct {
		Name           string  `json:"name"`
		Company        string  `json:"company"`
		ContactPerson  string  `json:"contactPerson"`
		ContactPhone   string  `json:"contactPhone"`
		ContactEmail   string  `json:"contactEmail"`
		Priority       string  `json:"priority"`
		EstimatedValue float64 `json:"estimatedValue"`
		ActualValue    float64 `json:"actualValue"`
	}

	// UpdateLeadStatusRequest 更新线索状态请求
	UpdateLeadStatusRequest struct {
		Status LeadStatus `json:"status" binding:"required"`
		Note   string     `json:"note"`
		Reason string     `json:"reason"` // 进入lost状态时必填
	}

	// AssignLeadRequest 分配线索请求
	AssignLeadRequest struct {
		AssignedTo   string `json:"assignedTo"`
		AssignedTeam string `json:"assignedTeam"`
	}

	// EscalateLeadRequest 升级线索请求
	EscalateLeadRequest struct {
		Reason string `json:"reason" binding:"required"`
	}

	// AddLeadNoteRequest 添加线索备注请求
	AddLeadNoteRequest struct {
		Content string       `json:"content" binding:"required"`
		Type    LeadNoteType `json:"type"`
	}
)
