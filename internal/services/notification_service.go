package services

import (
	"context"
	"fmt"

	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService records and serves in-app notifications.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// NotifyFriendEvent records a notification for a relationship event.
// Delivery is best effort; failures are logged, never propagated.
func (s *NotificationService) NotifyFriendEvent(ctx context.Context, userUID, eventType, actorUID, actorNickname string) {
	var title, message string
	switch eventType {
	case "friend_request":
		title = "New friend request"
		message = fmt.Sprintf("%s sent you a friend request.", actorNickname)
	case "request_accepted":
		title = "Friend request accepted"
		message = fmt.Sprintf("%s accepted your friend request.", actorNickname)
	default:
		title = "Friend update"
		message = fmt.Sprintf("%s: %s", actorNickname, eventType)
	}

	notif := &models.Notification{
		UserID:   userUID,
		Type:     eventType,
		Title:    title,
		Message:  message,
		ActorUID: actorUID,
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		logrus.WithFields(logrus.Fields{
			"user": userUID,
			"type": eventType,
		}).WithError(err).Warn("Failed to store notification")
	}
}

// GetUserNotifications lists unexpired notifications, newest first.
func (s *NotificationService) GetUserNotifications(ctx context.Context, uid string) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, uid)
}

// MarkAsRead flags a single notification as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// DeleteNotification removes a single notification.
func (s *NotificationService) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.DeleteNotification(ctx, id)
}

// DeleteExpiredNotifications purges notifications past their expiry.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	return s.repo.DeleteExpiredNotifications(ctx)
}
