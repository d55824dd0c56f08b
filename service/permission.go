package service

import (
	"context"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
)

// 权限解析器。单条访问判断和列表查询过滤必须来自同一套规则，
// 两边不一致会导致详情页和列表页可见范围出现偏差，是重点测试对象。
//
// 规则:
//   - admin: 不受限制
//   - team_lead: 线索由自己创建，或分配给自己负责的团队，
//     或分配给自己负责团队的成员
//   - team_member: 线索分配给自己

// CanAccessLead 判断操作人能否查看/操作某条线索
// ledTeams 为操作人担任负责人的团队列表，admin和team_member传nil即可
func CanAccessLead(actor models.Actor, lead *models.Lead, ledTeams []models.Team) bool {
	if lead == nil {
		return false
	}

	switch actor.Role {
	case models.UserRoleADMIN:
		return true
	case models.UserRoleTEAM_LEAD:
		if lead.CreatedBy == actor.ID {
			return true
		}
		for _, team := range ledTeams {
			if lead.AssignedTeam != "" && lead.AssignedTeam == team.ID.Hex() {
				return true
			}
			if lead.AssignedTo != "" && team.HasMember(lead.AssignedTo) {
				return true
			}
		}
		return false
	case models.UserRoleTEAM_MEMBER:
		return lead.AssignedTo != "" && lead.AssignedTo == actor.ID
	}

	return false
}

// LeadScopeFilter 构造与 CanAccessLead 同规则的查询过滤条件
func LeadScopeFilter(actor models.Actor, ledTeams []models.Team) bson.M {
	switch actor.Role {
	case models.UserRoleADMIN:
		return bson.M{}
	case models.UserRoleTEAM_LEAD:
		teamIDs := make([]string, 0, len(ledTeams))
		memberIDs := make([]string, 0)
		for _, team := range ledTeams {
			teamIDs = append(teamIDs, team.ID.Hex())
			memberIDs = append(memberIDs, team.MemberIDs...)
		}
		return bson.M{
			"$or": []bson.M{
				{"createdBy": actor.ID},
				{"assignedTeam": bson.M{"$in": teamIDs}},
				{"assignedTo": bson.M{"$in": memberIDs}},
			},
		}
	case models.UserRoleTEAM_MEMBER:
		return bson.M{"assignedTo": actor.ID}
	}

	// 未知角色什么都看不到
	return bson.M{"_id": nil}
}

// CanAssignTo 判断操作人能否把线索分配给目标用户
// team_lead只能分配给自己负责团队的成员
func CanAssignTo(actor models.Actor, targetUserID string, ledTeams []models.Team) bool {
	switch actor.Role {
	case models.UserRoleADMIN:
		return true
	case models.UserRoleTEAM_LEAD:
		if targetUserID == "" {
			return true
		}
		for _, team := range ledTeams {
			if team.HasMember(targetUserID) {
				return true
			}
		}
		return false
	}
	return false
}

// CanAssignToTeam 判断操作人能否把线索分配给目标团队
func CanAssignToTeam(actor models.Actor, teamID string, ledTeams []models.Team) bool {
	switch actor.Role {
	case models.UserRoleADMIN:
		return true
	case models.UserRoleTEAM_LEAD:
		if teamID == "" {
			return true
		}
		for _, team := range ledTeams {
			if team.ID.Hex() == teamID {
				return true
			}
		}
		return false
	}
	return false
}

// ledTeamsOf 查询操作人负责的团队，仅team_lead需要
func ledTeamsOf(ctx context.Context, teams TeamStore, actor models.Actor) ([]models.Team, error) {
	if actor.Role != models.UserRoleTEAM_LEAD {
		return nil, nil
	}
	return teams.TeamsLedBy(ctx, actor.ID)
}
