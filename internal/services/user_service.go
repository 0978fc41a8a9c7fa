package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/jo-2640/firstmyapp/pkg/email"
	"github.com/sirupsen/logrus"
)

// How long a fresh login waits for the profile record to materialize
// (the finalize write may still be in flight right after signup).
const profileWaitTimeout = 3 * time.Second

// FinalizeSignupInput carries everything the finalize step persists.
type FinalizeSignupInput struct {
	UID           string `json:"uid"`
	Nickname      string `json:"nickname"`
	BirthYear     int    `json:"birthYear"`
	Region        string `json:"region"`
	Gender        string `json:"gender"`
	MinAgeGroup   string `json:"minAgeGroup"`
	MaxAgeGroup   string `json:"maxAgeGroup"`
	Bio           string `json:"bio"`
	ProfileImgURL string `json:"profileImgUrl"`
}

// UserService encapsulates the business logic for member profiles.
type UserService struct {
	repo         *repository.UserRepository
	accountRepo  *repository.AccountRepository
	minBirthYear int
}

func NewUserService(repo *repository.UserRepository, accountRepo *repository.AccountRepository, minBirthYear int) *UserService {
	return &UserService{
		repo:         repo,
		accountRepo:  accountRepo,
		minBirthYear: minBirthYear,
	}
}

// FinalizeSignup creates the profile record. Relationship sets start
// empty; from here on they are mutated only by the relationship
// service.
func (s *UserService) FinalizeSignup(ctx context.Context, in FinalizeSignupInput) (*models.User, error) {
	if in.UID == "" || in.Nickname == "" || in.Region == "" || in.Gender == "" ||
		in.MinAgeGroup == "" || in.MaxAgeGroup == "" || in.BirthYear == 0 {
		return nil, apperrors.Validationf("missing required signup fields")
	}

	currentYear := time.Now().Year()
	if in.BirthYear < s.minBirthYear || in.BirthYear > currentYear {
		return nil, apperrors.Validationf("birth year %d out of range [%d, %d]", in.BirthYear, s.minBirthYear, currentYear)
	}
	if _, _, err := models.AgeRangeForGroups(in.MinAgeGroup, in.MaxAgeGroup); err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	account, err := s.accountRepo.GetAccountByUID(ctx, in.UID)
	if err != nil {
		return nil, fmt.Errorf("signup not started for uid %s: %w", in.UID, err)
	}

	user := &models.User{
		UID:             in.UID,
		Nickname:        in.Nickname,
		Bio:             in.Bio,
		Region:          in.Region,
		Gender:          in.Gender,
		BirthYear:       in.BirthYear,
		MinAgeGroup:     in.MinAgeGroup,
		MaxAgeGroup:     in.MaxAgeGroup,
		ProfileImageRef: in.ProfileImgURL,
		Role:            "user",
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	// Welcome mail is best effort.
	if err := email.SendEmail(account.Email, "Welcome!", fmt.Sprintf("Hi %s, your profile is ready.", in.Nickname)); err != nil {
		logrus.WithError(err).Warn("Failed to send welcome email")
	}

	logrus.WithField("uid", created.UID).Info("Signup finalized")
	return created, nil
}

// GetUser retrieves a profile by uid.
func (s *UserService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, uid)
}

// GetUserWithWait retrieves a profile, polling briefly if it does not
// exist yet. Right after signup the finalize write can lag the login;
// rather than hanging or failing instantly, wait a bounded few seconds
// and then surface a recoverable not-found.
func (s *UserService) GetUserWithWait(ctx context.Context, uid string) (*models.User, error) {
	deadline := time.Now().Add(profileWaitTimeout)
	for {
		user, err := s.repo.GetUserByID(ctx, uid)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if time.Now().After(deadline) {
			logrus.WithField("uid", uid).Warn("Profile did not materialize in time")
			return nil, apperrors.NotFoundf("profile for %s not ready yet", uid)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// UpdateProfile applies a partial update limited to the caller-editable
// attribute fields.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, changes map[string]interface{}) (*models.User, error) {
	allowed := map[string]string{
		"nickname":      "nickname",
		"bio":           "bio",
		"region":        "region",
		"minAgeGroup":   "min_age_group",
		"maxAgeGroup":   "max_age_group",
		"profileImgUrl": "profile_image_ref",
	}

	update := make(map[string]interface{})
	for key, value := range changes {
		field, ok := allowed[key]
		if !ok {
			return nil, apperrors.Validationf("field %q is not editable", key)
		}
		if key == "minAgeGroup" || key == "maxAgeGroup" {
			group, isString := value.(string)
			if !isString {
				return nil, apperrors.Validationf("%s must be a string", key)
			}
			if _, known := models.AgeGroupByValue(group); !known {
				return nil, apperrors.Validationf("unknown age group %q", group)
			}
		}
		update[field] = value
	}
	if len(update) == 0 {
		return nil, apperrors.Validationf("no editable fields in update")
	}

	return s.repo.UpdateUser(ctx, uid, update)
}

// SetPresence marks the user online or offline.
func (s *UserService) SetPresence(ctx context.Context, uid string, online bool) error {
	return s.repo.SetPresence(ctx, uid, online)
}

// UpdateLastActive stamps activity; called from middleware on every
// authenticated request.
func (s *UserService) UpdateLastActive(ctx context.Context, uid string) error {
	return s.repo.TouchLastActive(ctx, uid)
}

// GetAllUsers returns every profile. Admin only.
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// BirthYearRange reports the selectable signup window.
func (s *UserService) BirthYearRange() (int, int) {
	return s.minBirthYear, time.Now().Year()
}
