package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountRepository stores login credentials, one document per uid.
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection("accounts"),
	}
}

// CreateAccount inserts a new account. The uid must already be set.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	account.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: account already exists", apperrors.ErrConflict)
		}
		logrus.WithError(err).Error("Failed to insert account")
		return apperrors.Transientf("failed to insert account: %v", err)
	}

	logrus.WithField("uid", account.UID).Info("Account created")
	return nil
}

// GetAccountByEmail retrieves an account by email.
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("no account for email %s", email)
		}
		return nil, apperrors.Transientf("failed to find account by email: %v", err)
	}
	return &account, nil
}

// GetAccountByUID retrieves an account by uid.
func (r *AccountRepository) GetAccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("no account for uid %s", uid)
		}
		return nil, apperrors.Transientf("failed to find account by uid: %v", err)
	}
	return &account, nil
}

// DeleteAllAccounts wipes the collection. Administrative use only.
func (r *AccountRepository) DeleteAllAccounts(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Transientf("failed to delete accounts: %v", err)
	}
	return result.DeletedCount, nil
}
