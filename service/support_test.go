package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 服务层测试用的内存存储实现。Find系列方法用 matchLeadFilter /
// matchFollowUpFilter 解释服务层实际生成的过滤条件，保证列表过滤
// 和单条判断走的是同一份数据。

type memLeadStore struct {
	mu         sync.Mutex
	leads      map[string]*models.Lead
	failUpdate bool
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: make(map[string]*models.Lead)}
}

func (s *memLeadStore) Insert(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead.ID = primitive.NewObjectID()
	clone := *lead
	s.leads[lead.ID.Hex()] = &clone
	return nil
}

func (s *memLeadStore) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	clone := *lead
	return &clone, nil
}

func (s *memLeadStore) Update(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return fmt.Errorf("模拟存储故障")
	}
	clone := *lead
	s.leads[lead.ID.Hex()] = &clone
	return nil
}

func (s *memLeadStore) Find(ctx context.Context, filter bson.M) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Lead
	for _, lead := range s.leads {
		if matchLeadFilter(filter, lead) {
			result = append(result, *lead)
		}
	}
	return result, nil
}

// matchLeadFilter 解释服务层生成的线索查询条件
func matchLeadFilter(filter bson.M, lead *models.Lead) bool {
	for key, value := range filter {
		switch key {
		case "$or":
			if !matchAny(value.([]bson.M), lead) {
				return false
			}
		case "$and":
			for _, sub := range value.([]bson.M) {
				if !matchLeadFilter(sub, lead) {
					return false
				}
			}
		default:
			if !matchLeadField(key, value, lead) {
				return false
			}
		}
	}
	return true
}

func matchAny(clauses []bson.M, lead *models.Lead) bool {
	for _, clause := range clauses {
		if matchLeadFilter(clause, lead) {
			return true
		}
	}
	return false
}

func matchLeadField(key string, value interface{}, lead *models.Lead) bool {
	actual := leadFieldValue(key, lead)

	switch v := value.(type) {
	case bson.M:
		if in, ok := v["$in"]; ok {
			for _, candidate := range in.([]string) {
				if actual == candidate {
					return true
				}
			}
			return false
		}
		if re, ok := v["$regex"]; ok {
			s, _ := actual.(string)
			return strings.Contains(strings.ToLower(s), strings.ToLower(re.(string)))
		}
		return false
	default:
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", value)
	}
}

func leadFieldValue(key string, lead *models.Lead) interface{} {
	switch key {
	case "_id":
		return lead.ID.Hex()
	case "createdBy":
		return lead.CreatedBy
	case "assignedTo":
		return lead.AssignedTo
	case "assignedTeam":
		return lead.AssignedTeam
	case "isDeleted":
		return lead.IsDeleted
	case "status":
		return string(lead.Status)
	case "priority":
		return lead.Priority
	case "name":
		return lead.Name
	case "company":
		return lead.Company
	case "contactPerson":
		return lead.ContactPerson
	}
	return nil
}

type memNoteStore struct {
	mu         sync.Mutex
	notes      []models.LeadNote
	failAppend bool
}

func (s *memNoteStore) Append(ctx context.Context, note *models.LeadNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return fmt.Errorf("模拟存储故障")
	}
	note.ID = primitive.NewObjectID()
	s.notes = append(s.notes, *note)
	return nil
}

func (s *memNoteStore) ListByLead(ctx context.Context, leadID string) ([]models.LeadNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.LeadNote
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].LeadID == leadID {
			result = append(result, s.notes[i])
		}
	}
	return result, nil
}

func (s *memNoteStore) byLead(leadID string) []models.LeadNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.LeadNote
	for _, n := range s.notes {
		if n.LeadID == leadID {
			result = append(result, n)
		}
	}
	return result
}

type memHistoryStore struct {
	mu      sync.Mutex
	entries []models.LeadStatusHistory
}

func (s *memHistoryStore) Append(ctx context.Context, entry *models.LeadStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memHistoryStore) ListByLead(ctx context.Context, leadID string) ([]models.LeadStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.LeadStatusHistory
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].LeadID == leadID {
			result = append(result, s.entries[i])
		}
	}
	return result, nil
}

func (s *memHistoryStore) byLead(leadID string) []models.LeadStatusHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.LeadStatusHistory
	for _, e := range s.entries {
		if e.LeadID == leadID {
			result = append(result, e)
		}
	}
	return result
}

type memFollowUpStore struct {
	mu               sync.Mutex
	fus              map[string]*models.FollowUp
	failMarkReminder bool
	failMarkOverdue  bool
}

func newMemFollowUpStore() *memFollowUpStore {
	return &memFollowUpStore{fus: make(map[string]*models.FollowUp)}
}

func (s *memFollowUpStore) Insert(ctx context.Context, fu *models.FollowUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fu.ID = primitive.NewObjectID()
	clone := *fu
	s.fus[fu.ID.Hex()] = &clone
	return nil
}

func (s *memFollowUpStore) FindByID(ctx context.Context, id string) (*models.FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fu, ok := s.fus[id]
	if !ok {
		return nil, nil
	}
	clone := *fu
	return &clone, nil
}

func (s *memFollowUpStore) Update(ctx context.Context, fu *models.FollowUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *fu
	s.fus[fu.ID.Hex()] = &clone
	return nil
}

func (s *memFollowUpStore) Find(ctx context.Context, filter bson.M) ([]models.FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.FollowUp
	for _, fu := range s.fus {
		if matchFollowUpFilter(filter, fu) {
			result = append(result, *fu)
		}
	}
	return result, nil
}

func matchFollowUpFilter(filter bson.M, fu *models.FollowUp) bool {
	for key, value := range filter {
		switch key {
		case "status":
			if fmt.Sprintf("%v", value) != string(fu.Status) {
				return false
			}
		case "assignedTo":
			if value.(string) != fu.AssignedTo {
				return false
			}
		case "reminderSent":
			if value.(bool) != fu.ReminderSent {
				return false
			}
		case "overdueNotificationSent":
			if value.(bool) != fu.OverdueNotificationSent {
				return false
			}
		case "scheduledDate":
			cond := value.(bson.M)
			if from, ok := cond["$gte"]; ok && fu.ScheduledDate.Before(from.(time.Time)) {
				return false
			}
			if to, ok := cond["$lte"]; ok && fu.ScheduledDate.After(to.(time.Time)) {
				return false
			}
			if before, ok := cond["$lt"]; ok && !fu.ScheduledDate.Before(before.(time.Time)) {
				return false
			}
		}
	}
	return true
}

func (s *memFollowUpStore) ListPendingInWindow(ctx context.Context, from, to time.Time) ([]models.FollowUp, error) {
	return s.Find(ctx, bson.M{
		"status":        models.FollowUpStatusPending,
		"reminderSent":  false,
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	})
}

func (s *memFollowUpStore) ListPendingOverdue(ctx context.Context, now time.Time) ([]models.FollowUp, error) {
	return s.Find(ctx, bson.M{
		"status":                  models.FollowUpStatusPending,
		"overdueNotificationSent": false,
		"scheduledDate":           bson.M{"$lt": now},
	})
}

func (s *memFollowUpStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkReminder {
		return fmt.Errorf("模拟存储故障")
	}
	fu, ok := s.fus[id]
	if !ok {
		return fmt.Errorf("跟进任务不存在")
	}
	fu.ReminderSent = true
	fu.ReminderSentAt = &at
	return nil
}

func (s *memFollowUpStore) MarkOverdueNotified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkOverdue {
		return fmt.Errorf("模拟存储故障")
	}
	fu, ok := s.fus[id]
	if !ok {
		return fmt.Errorf("跟进任务不存在")
	}
	fu.OverdueNotificationSent = true
	return nil
}

type memNotificationStore struct {
	mu         sync.Mutex
	items      []models.Notification
	failInsert bool
}

func (s *memNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return fmt.Errorf("模拟存储故障")
	}
	n.ID = primitive.NewObjectID()
	s.items = append(s.items, *n)
	return nil
}

func (s *memNotificationStore) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for _, n := range s.items {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (s *memNotificationStore) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.items {
		if n.ID.Hex() == id && n.UserID == userID {
			s.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *memNotificationStore) ofType(t models.NotificationType) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for _, n := range s.items {
		if n.Type == t {
			result = append(result, n)
		}
	}
	return result
}

type memAuditStore struct {
	mu         sync.Mutex
	records    []models.AuditRecord
	failInsert bool
}

func (s *memAuditStore) Insert(ctx context.Context, rec *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return fmt.Errorf("模拟存储故障")
	}
	rec.ID = primitive.NewObjectID()
	s.records = append(s.records, *rec)
	return nil
}

func (s *memAuditStore) Find(ctx context.Context, filter bson.M, limit int64) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.AuditRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if leadID, ok := filter["leadId"]; ok && rec.LeadID != leadID.(string) {
			continue
		}
		if actorID, ok := filter["actorId"]; ok && rec.ActorID != actorID.(string) {
			continue
		}
		if taskID, ok := filter["taskId"]; ok && rec.TaskID != taskID.(string) {
			continue
		}
		result = append(result, rec)
		if int64(len(result)) >= limit {
			break
		}
	}
	return result, nil
}

func (s *memAuditStore) byAction(action models.AuditAction) []models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.AuditRecord
	for _, rec := range s.records {
		if rec.Action == action {
			result = append(result, rec)
		}
	}
	return result
}

type memTeamStore struct {
	teams []models.Team
}

func (s *memTeamStore) FindByID(ctx context.Context, id string) (*models.Team, error) {
	for i := range s.teams {
		if s.teams[i].ID.Hex() == id {
			return &s.teams[i], nil
		}
	}
	return nil, nil
}

func (s *memTeamStore) TeamsLedBy(ctx context.Context, userID string) ([]models.Team, error) {
	var result []models.Team
	for _, team := range s.teams {
		if team.LeaderID == userID {
			result = append(result, team)
		}
	}
	return result, nil
}

type memUserStore struct {
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (s *memUserStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	var result []models.User
	for _, user := range s.users {
		if user.Role == models.UserRoleADMIN {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (s *memUserStore) add(id string, role models.UserRole, name string) {
	objID, _ := primitive.ObjectIDFromHex(id)
	s.users[id] = &models.User{ID: objID, Username: name, Role: role}
}

// testEnv 一套完整的内存服务环境
type testEnv struct {
	leads     *memLeadStore
	notes     *memNoteStore
	history   *memHistoryStore
	followUps *memFollowUpStore
	notifs    *memNotificationStore
	audits    *memAuditStore
	teams     *memTeamStore
	users     *memUserStore

	now time.Time

	leadSvc     *LeadService
	followUpSvc *FollowUpService
	notifSvc    *NotificationService
	auditSvc    *AuditService
	sweeper     *Sweeper
}

func newTestEnv() *testEnv {
	env := &testEnv{
		leads:     newMemLeadStore(),
		notes:     &memNoteStore{},
		history:   &memHistoryStore{},
		followUps: newMemFollowUpStore(),
		notifs:    &memNotificationStore{},
		audits:    &memAuditStore{},
		teams:     &memTeamStore{},
		users:     newMemUserStore(),
		now:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return env.now }
	env.auditSvc = NewAuditService(env.audits, clock)
	env.notifSvc = NewNotificationService(env.notifs, clock)
	env.leadSvc = NewLeadService(
		env.leads, env.notes, env.history, env.teams, env.users,
		env.auditSvc, env.notifSvc, clock, 60,
	)
	env.followUpSvc = NewFollowUpService(
		env.followUps, env.leads, env.notes, env.teams, env.users,
		env.auditSvc, env.notifSvc, NoopEmailSender{}, clock, 24*time.Hour,
	)
	env.sweeper = NewSweeper(
		env.followUps, env.leads, env.notifSvc, env.auditSvc,
		clock, 15*time.Minute, 24*time.Hour,
	)
	return env
}

// advance 前移测试时钟
func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
}

// mustCreateLead 直接塞入一条线索
func (env *testEnv) mustCreateLead(lead models.Lead) *models.Lead {
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = env.now
	}
	lead.UpdatedAt = env.now
	_ = env.leads.Insert(context.Background(), &lead)
	return &lead
}

// mustCreateFollowUp 直接塞入一条跟进任务
func (env *testEnv) mustCreateFollowUp(fu models.FollowUp) *models.FollowUp {
	if fu.Status == "" {
		fu.Status = models.FollowUpStatusPending
	}
	fu.CreatedAt = env.now
	fu.UpdatedAt = env.now
	_ = env.followUps.Insert(context.Background(), &fu)
	return &fu
}

func adminActor(id string) models.Actor {
	return models.Actor{ID: id, Username: "admin-" + id, Role: models.UserRoleADMIN}
}

func leadActor(id string) models.Actor {
	return models.Actor{ID: id, Username: "lead-" + id, Role: models.UserRoleTEAM_LEAD}
}

func memberActor(id string) models.Actor {
	return models.Actor{ID: id, Username: "member-" + id, Role: models.UserRoleTEAM_MEMBER}
}

func newTeam(id string, leaderID string, memberIDs ...string) models.Team {
	objID, _ := primitive.ObjectIDFromHex(id)
	return models.Team{ID: objID, Name: "team-" + id, LeaderID: leaderID, MemberIDs: memberIDs}
}

// hexID 生成固定长度的合法ObjectID十六进制串
func hexID(seed string) string {
	const hexChars = "0123456789abcdef"
	result := make([]byte, 24)
	for i := range result {
		result[i] = hexChars[int(seed[i%len(seed)])%len(hexChars)]
	}
	return string(result)
}
