package service

import (
	"fmt"
	"testing"

	"github.com/BerniceZTT/lead_end/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanAccessLead(t *testing.T) {
	team := newTeam(hexID("team1"), "lead1", "member1", "member2")
	ledTeams := []models.Team{team}

	leadByActor := &models.Lead{CreatedBy: "lead1"}
	leadForTeam := &models.Lead{CreatedBy: "someone", AssignedTeam: team.ID.Hex()}
	leadForMember := &models.Lead{CreatedBy: "someone", AssignedTo: "member1"}
	leadOutside := &models.Lead{CreatedBy: "someone", AssignedTo: "outsider"}

	t.Run("admin不受限制", func(t *testing.T) {
		actor := adminActor("admin1")
		for _, lead := range []*models.Lead{leadByActor, leadForTeam, leadForMember, leadOutside} {
			assert.True(t, CanAccessLead(actor, lead, nil))
		}
	})

	t.Run("team_lead三种可见途径", func(t *testing.T) {
		actor := leadActor("lead1")
		assert.True(t, CanAccessLead(actor, leadByActor, ledTeams))
		assert.True(t, CanAccessLead(actor, leadForTeam, ledTeams))
		assert.True(t, CanAccessLead(actor, leadForMember, ledTeams))
		assert.False(t, CanAccessLead(actor, leadOutside, ledTeams))
	})

	t.Run("team_member只能看分配给自己的", func(t *testing.T) {
		actor := memberActor("member1")
		assert.True(t, CanAccessLead(actor, leadForMember, nil))
		assert.False(t, CanAccessLead(actor, leadByActor, nil))
		assert.False(t, CanAccessLead(actor, leadForTeam, nil))
		assert.False(t, CanAccessLead(actor, leadOutside, nil))
	})

	t.Run("未分配的线索对team_member不可见", func(t *testing.T) {
		actor := memberActor("member1")
		assert.False(t, CanAccessLead(actor, &models.Lead{CreatedBy: "someone"}, nil))
	})

	t.Run("空线索不可见", func(t *testing.T) {
		assert.False(t, CanAccessLead(adminActor("admin1"), nil, nil))
	})

	t.Run("未知角色不可见", func(t *testing.T) {
		actor := models.Actor{ID: "x", Role: "guest"}
		assert.False(t, CanAccessLead(actor, leadForMember, nil))
	})
}

// 单条访问判断和列表查询过滤必须给出同一份可见范围，
// 这里对角色×线索的组合逐一比对两边的结论。
func TestScopeFilterAgreesWithCanAccessLead(t *testing.T) {
	team := newTeam(hexID("team1"), "lead1", "member1", "member2")
	otherTeam := newTeam(hexID("team2"), "otherlead", "member3")

	leads := []*models.Lead{
		{ID: primitive.NewObjectID(), CreatedBy: "lead1"},
		{ID: primitive.NewObjectID(), CreatedBy: "admin1", AssignedTeam: team.ID.Hex()},
		{ID: primitive.NewObjectID(), CreatedBy: "admin1", AssignedTo: "member1"},
		{ID: primitive.NewObjectID(), CreatedBy: "admin1", AssignedTo: "member2", AssignedTeam: otherTeam.ID.Hex()},
		{ID: primitive.NewObjectID(), CreatedBy: "otherlead", AssignedTo: "member3"},
		{ID: primitive.NewObjectID(), CreatedBy: "admin1"},
		{ID: primitive.NewObjectID(), CreatedBy: "lead1", AssignedTo: "member3"},
	}

	actors := []struct {
		actor    models.Actor
		ledTeams []models.Team
	}{
		{adminActor("admin1"), nil},
		{leadActor("lead1"), []models.Team{team}},
		{leadActor("otherlead"), []models.Team{otherTeam}},
		{leadActor("idlelead"), nil},
		{memberActor("member1"), nil},
		{memberActor("member3"), nil},
		{models.Actor{ID: "x", Role: "guest"}, nil},
	}

	for _, a := range actors {
		filter := LeadScopeFilter(a.actor, a.ledTeams)
		for i, lead := range leads {
			name := fmt.Sprintf("%s/%s/lead%d", a.actor.Role, a.actor.ID, i)
			assert.Equal(t,
				CanAccessLead(a.actor, lead, a.ledTeams),
				matchLeadFilter(filter, lead),
				name)
		}
	}
}

func TestCanAssignTo(t *testing.T) {
	team := newTeam(hexID("team1"), "lead1", "member1")
	ledTeams := []models.Team{team}

	assert.True(t, CanAssignTo(adminActor("admin1"), "anyone", nil))
	assert.True(t, CanAssignTo(leadActor("lead1"), "member1", ledTeams))
	assert.False(t, CanAssignTo(leadActor("lead1"), "outsider", ledTeams))
	// 只分配团队不指定个人时放行
	assert.True(t, CanAssignTo(leadActor("lead1"), "", ledTeams))
	assert.False(t, CanAssignTo(memberActor("member1"), "member1", nil))
}

func TestCanAssignToTeam(t *testing.T) {
	team := newTeam(hexID("team1"), "lead1", "member1")
	ledTeams := []models.Team{team}

	assert.True(t, CanAssignToTeam(adminActor("admin1"), hexID("team2"), nil))
	assert.True(t, CanAssignToTeam(leadActor("lead1"), team.ID.Hex(), ledTeams))
	assert.False(t, CanAssignToTeam(leadActor("lead1"), hexID("team2"), ledTeams))
	assert.True(t, CanAssignToTeam(leadActor("lead1"), "", ledTeams))
	assert.False(t, CanAssignToTeam(memberActor("member1"), team.ID.Hex(), nil))
}
