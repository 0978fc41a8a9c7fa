package services

import (
	"context"
	"strings"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/sirupsen/logrus"
)

const chatHistoryLimit = 100

// MessageStore persists direct messages. Implemented by
// repository.ChatRepository.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetRoomHistory(ctx context.Context, roomID string, limit int64) ([]models.Message, error)
}

// ChatService persists and retrieves direct messages between friends.
type ChatService struct {
	repo  MessageStore
	users ProfileReader
}

func NewChatService(repo MessageStore, users ProfileReader) *ChatService {
	return &ChatService{repo: repo, users: users}
}

// SendDirectMessage stores a message from sender to receiver. Only
// established friends may exchange messages.
func (s *ChatService) SendDirectMessage(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validationf("message text is empty")
	}
	if senderID == receiverID {
		return nil, apperrors.ErrSelfRelationship
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !sender.HasFriend(receiverID) {
		return nil, apperrors.Permissionf("users %s and %s are not friends", senderID, receiverID)
	}

	msg := &models.Message{
		RoomID:     models.DirectRoomID(senderID, receiverID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  time.Now(),
	}

	saved, err := s.repo.SaveMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"room":   saved.RoomID,
		"sender": senderID,
	}).Debug("Message stored")
	return saved, nil
}

// GetHistory returns the recent conversation between two friends,
// oldest first.
func (s *ChatService) GetHistory(ctx context.Context, userID, friendID string) ([]models.Message, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasFriend(friendID) {
		return nil, apperrors.Permissionf("users %s and %s are not friends", userID, friendID)
	}
	return s.repo.GetRoomHistory(ctx, models.DirectRoomID(userID, friendID), chatHistoryLimit)
}
