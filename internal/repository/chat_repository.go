package repository

import (
	"context"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("messages")}
}

func (r *ChatRepository) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, apperrors.Transientf("failed to save message: %v", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// GetRoomHistory returns the room's messages oldest first.
func (r *ChatRepository) GetRoomHistory(ctx context.Context, roomID string, limit int64) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch chat history: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, apperrors.Transientf("failed to decode chat history: %v", err)
	}
	return messages, nil
}

// DeleteAllMessages wipes the collection. Administrative use only.
func (r *ChatRepository) DeleteAllMessages(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Transientf("failed to delete messages: %v", err)
	}
	return result.DeletedCount, nil
}
