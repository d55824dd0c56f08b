package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole 用户角色枚举
type UserRole string

const (
	UserRoleADMIN       UserRole = "admin"       // 管理员
	UserRoleTEAM_LEAD   UserRole = "team_lead"   // 团队负责人
	UserRoleTEAM_MEMBER UserRole = "team_member" // 团队成员
)

// IsValid 判断角色是否合法
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleADMIN, UserRoleTEAM_LEAD, UserRoleTEAM_MEMBER:
		return true
	}
	return false
}

// Actor 当前操作人，由认证中间件解析后显式传入每个服务方法
type Actor struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// IsAdmin 判断操作人是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleADMIN
}

// User 用户类型（由外部用户服务维护，本服务只读）
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"` // 不返回密码
	Phone     string             `bson:"phone" json:"phone"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Role      UserRole           `bson:"role" json:"role"`
	TeamID    string             `bson:"teamId,omitempty" json:"teamId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Team 团队类型（由外部团队服务维护，本服务只读）
type Team struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	LeaderID  string             `bson:"leaderId" json:"leaderId"`
	MemberIDs []string           `bson:"memberIds" json:"memberIds"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasMember 判断用户是否为团队成员
func (t *Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
