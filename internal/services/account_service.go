package services

import (
	"context"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AccountService encapsulates account creation and authentication.
type AccountService struct {
	repo *repository.AccountRepository
}

func NewAccountService(repo *repository.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// CreateAccount registers credentials and returns the new stable uid.
// The profile record is created later by the signup finalize step.
func (s *AccountService) CreateAccount(ctx context.Context, email, password, nickname string) (string, error) {
	logrus.Info("Creating new account")

	if email == "" || password == "" || nickname == "" {
		return "", apperrors.Validationf("email, password and nickname are required")
	}
	if !emailRegex.MatchString(email) {
		logrus.WithField("email", email).Warn("Invalid email format during signup")
		return "", apperrors.Validationf("invalid email format")
	}
	if len(password) < 6 {
		return "", apperrors.Validationf("password must be at least 6 characters")
	}
	if len(nickname) < 2 || len(nickname) > 20 {
		return "", apperrors.Validationf("nickname must be between 2 and 20 characters")
	}

	if existing, _ := s.repo.GetAccountByEmail(ctx, email); existing != nil {
		logrus.WithField("email", email).Warn("Email already in use")
		return "", apperrors.Validationf("email already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return "", apperrors.Transientf("failed to hash password: %v", err)
	}

	account := &models.Account{
		UID:            uuid.NewString(),
		Email:          email,
		HashedPassword: string(hashed),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return "", err
	}

	logrus.WithField("uid", account.UID).Info("Account created successfully")
	return account.UID, nil
}

// Authenticate verifies credentials and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	logrus.WithField("email", email).Info("Authenticating user")

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		logrus.WithField("email", email).Warn("Account not found")
		return nil, apperrors.Validationf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, apperrors.Validationf("invalid credentials")
	}

	logrus.WithField("uid", account.UID).Info("User authenticated successfully")
	return account, nil
}

// GetAccount retrieves an account by uid.
func (s *AccountService) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	return s.repo.GetAccountByUID(ctx, uid)
}
