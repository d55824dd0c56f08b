package repository

import (
	"context"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationStore 通知存储的MongoDB实现
type MongoNotificationStore struct{}

// NewMongoNotificationStore 创建通知存储
func NewMongoNotificationStore() *MongoNotificationStore {
	return &MongoNotificationStore{}
}

// Insert 写入通知。通知投递承诺至少一次，瞬时故障走重试
func (s *MongoNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	result, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(NotificationsCollection).InsertOne(ctx, n)
	}, 3)
	if err != nil {
		return err
	}
	n.ID = result.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoNotificationStore) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["isRead"] = false
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := Collection(NotificationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式非法的ID按未命中处理
		return false, nil
	}

	// 只有接收人命中过滤条件，其他人标记不生效
	result, err := Collection(NotificationsCollection).UpdateOne(ctx,
		bson.M{"_id": objID, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// MongoAuditStore 审计记录存储的MongoDB实现
type MongoAuditStore struct{}

// NewMongoAuditStore 创建审计记录存储
func NewMongoAuditStore() *MongoAuditStore {
	return &MongoAuditStore{}
}

// Insert 追加审计记录，瞬时故障走重试，尽量不丢审计
func (s *MongoAuditStore) Insert(ctx context.Context, rec *models.AuditRecord) error {
	result, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(AuditRecordsCollection).InsertOne(ctx, rec)
	}, 3)
	if err != nil {
		return err
	}
	rec.ID = result.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoAuditStore) Find(ctx context.Context, filter bson.M, limit int64) ([]models.AuditRecord, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(limit)
	cursor, err := Collection(AuditRecordsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MongoTeamStore 团队存储的MongoDB实现（只读）
type MongoTeamStore struct{}

// NewMongoTeamStore 创建团队存储
func NewMongoTeamStore() *MongoTeamStore {
	return &MongoTeamStore{}
}

func (s *MongoTeamStore) FindByID(ctx context.Context, id string) (*models.Team, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式非法的ID按不存在处理
		return nil, nil
	}

	var team models.Team
	err = Collection(TeamsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (s *MongoTeamStore) TeamsLedBy(ctx context.Context, userID string) ([]models.Team, error) {
	cursor, err := Collection(TeamsCollection).Find(ctx, bson.M{"leaderId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// MongoUserStore 用户存储的MongoDB实现（只读）
type MongoUserStore struct{}

// NewMongoUserStore 创建用户存储
func NewMongoUserStore() *MongoUserStore {
	return &MongoUserStore{}
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式非法的ID按不存在处理
		return nil, nil
	}

	var user models.User
	err = Collection(UsersCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	cursor, err := Collection(UsersCollection).Find(ctx, bson.M{"role": models.UserRoleADMIN})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
