package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFollowUpStore 跟进任务存储的MongoDB实现
type MongoFollowUpStore struct{}

// NewMongoFollowUpStore 创建跟进任务存储
func NewMongoFollowUpStore() *MongoFollowUpStore {
	return &MongoFollowUpStore{}
}

func (s *MongoFollowUpStore) Insert(ctx context.Context, fu *models.FollowUp) error {
	result, err := Collection(FollowUpsCollection).InsertOne(ctx, fu)
	if err != nil {
		return err
	}
	fu.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoFollowUpStore) FindByID(ctx context.Context, id string) (*models.FollowUp, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式非法的ID按不存在处理
		return nil, nil
	}

	var fu models.FollowUp
	err = Collection(FollowUpsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&fu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &fu, nil
}

func (s *MongoFollowUpStore) Update(ctx context.Context, fu *models.FollowUp) error {
	_, err := Collection(FollowUpsCollection).ReplaceOne(ctx, bson.M{"_id": fu.ID}, fu)
	return err
}

func (s *MongoFollowUpStore) Find(ctx context.Context, filter bson.M) ([]models.FollowUp, error) {
	opts := options.Find().SetSort(bson.M{"scheduledDate": 1})
	cursor, err := Collection(FollowUpsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var fus []models.FollowUp
	if err := cursor.All(ctx, &fus); err != nil {
		return nil, err
	}
	return fus, nil
}

func (s *MongoFollowUpStore) ListPendingInWindow(ctx context.Context, from, to time.Time) ([]models.FollowUp, error) {
	return s.Find(ctx, bson.M{
		"status":       models.FollowUpStatusPending,
		"reminderSent": false,
		"scheduledDate": bson.M{
			"$gte": from,
			"$lte": to,
		},
	})
}

func (s *MongoFollowUpStore) ListPendingOverdue(ctx context.Context, now time.Time) ([]models.FollowUp, error) {
	return s.Find(ctx, bson.M{
		"status":                  models.FollowUpStatusPending,
		"overdueNotificationSent": false,
		"scheduledDate":           bson.M{"$lt": now},
	})
}

func (s *MongoFollowUpStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("无效的ID格式: %w", err)
	}

	_, err = Collection(FollowUpsCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"reminderSent":   true,
			"reminderSentAt": at,
			"updatedAt":      at,
		}},
	)
	return err
}

func (s *MongoFollowUpStore) MarkOverdueNotified(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("无效的ID格式: %w", err)
	}

	_, err = Collection(FollowUpsCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"overdueNotificationSent": true,
			"updatedAt":               time.Now(),
		}},
	)
	return err
}
