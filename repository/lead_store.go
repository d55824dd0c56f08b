package repository

import (
	"context"

	"github.com/BerniceZTT/lead_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLeadStore 线索存储的MongoDB实现
type MongoLeadStore struct{}

// NewMongoLeadStore 创建线索存储
func NewMongoLeadStore() *MongoLeadStore {
	return &MongoLeadStore{}
}

func (s *MongoLeadStore) Insert(ctx context.Context, lead *models.Lead) error {
	result, err := Collection(LeadsCollection).InsertOne(ctx, lead)
	if err != nil {
		return err
	}
	lead.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoLeadStore) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 格式非法的ID按不存在处理
		return nil, nil
	}

	var lead models.Lead
	err = Collection(LeadsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&lead)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

func (s *MongoLeadStore) Update(ctx context.Context, lead *models.Lead) error {
	_, err := Collection(LeadsCollection).ReplaceOne(ctx, bson.M{"_id": lead.ID}, lead)
	return err
}

func (s *MongoLeadStore) Find(ctx context.Context, filter bson.M) ([]models.Lead, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	cursor, err := Collection(LeadsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var leads []models.Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// MongoLeadNoteStore 线索备注存储的MongoDB实现
type MongoLeadNoteStore struct{}

// NewMongoLeadNoteStore 创建线索备注存储
func NewMongoLeadNoteStore() *MongoLeadNoteStore {
	return &MongoLeadNoteStore{}
}

func (s *MongoLeadNoteStore) Append(ctx context.Context, note *models.LeadNote) error {
	result, err := Collection(LeadNotesCollection).InsertOne(ctx, note)
	if err != nil {
		return err
	}
	note.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoLeadNoteStore) ListByLead(ctx context.Context, leadID string) ([]models.LeadNote, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := Collection(LeadNotesCollection).Find(ctx, bson.M{"leadId": leadID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []models.LeadNote
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// MongoLeadHistoryStore 线索状态历史存储的MongoDB实现
type MongoLeadHistoryStore struct{}

// NewMongoLeadHistoryStore 创建状态历史存储
func NewMongoLeadHistoryStore() *MongoLeadHistoryStore {
	return &MongoLeadHistoryStore{}
}

func (s *MongoLeadHistoryStore) Append(ctx context.Context, entry *models.LeadStatusHistory) error {
	result, err := Collection(LeadStatusHistoryCollection).InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	entry.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoLeadHistoryStore) ListByLead(ctx context.Context, leadID string) ([]models.LeadStatusHistory, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := Collection(LeadStatusHistoryCollection).Find(ctx, bson.M{"leadId": leadID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LeadStatusHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
