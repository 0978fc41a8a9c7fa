package services

import (
	"context"

	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
)

// WipeReport tallies what a full data reset removed.
type WipeReport struct {
	Users         int64 `json:"users"`
	Accounts      int64 `json:"accounts"`
	Messages      int64 `json:"messages"`
	Notifications int64 `json:"notifications"`
}

// AdminService performs destructive maintenance operations.
type AdminService struct {
	users         *repository.UserRepository
	accounts      *repository.AccountRepository
	messages      *repository.ChatRepository
	notifications *repository.NotificationRepository
}

func NewAdminService(users *repository.UserRepository, accounts *repository.AccountRepository, messages *repository.ChatRepository, notifications *repository.NotificationRepository) *AdminService {
	return &AdminService{
		users:         users,
		accounts:      accounts,
		messages:      messages,
		notifications: notifications,
	}
}

// DeleteAllData wipes every collection. Dev/test environments only;
// the handler gates this behind the admin role.
func (s *AdminService) DeleteAllData(ctx context.Context) (*WipeReport, error) {
	report := &WipeReport{}
	var err error

	if report.Users, err = s.users.DeleteAllUsers(ctx); err != nil {
		return nil, err
	}
	if report.Accounts, err = s.accounts.DeleteAllAccounts(ctx); err != nil {
		return nil, err
	}
	if report.Messages, err = s.messages.DeleteAllMessages(ctx); err != nil {
		return nil, err
	}
	if report.Notifications, err = s.notifications.DeleteAllNotifications(ctx); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"users":    report.Users,
		"accounts": report.Accounts,
	}).Warn("All application data deleted")
	return report, nil
}
