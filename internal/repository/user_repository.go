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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageQuery describes one directory page fetch: profile filters plus
// uid-ordered cursor bounds. FromID is inclusive, AfterID and BeforeID
// are strict; unset bounds are empty strings.
type PageQuery struct {
	Gender       string
	Region       string
	MinBirthYear int
	MaxBirthYear int

	FromID   string
	AfterID  string
	BeforeID string
	Limit    int64
}

// UserRepository handles database operations on member profiles.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new profile document. Relationship sets start
// empty, never nil, so array mutators behave uniformly.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.FriendIDs == nil {
		user.FriendIDs = []string{}
	}
	if user.SentRequests == nil {
		user.SentRequests = []string{}
	}
	if user.ReceivedRequests == nil {
		user.ReceivedRequests = []string{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: user %s already exists", apperrors.ErrConflict, user.UID)
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, apperrors.Transientf("failed to insert user: %v", err)
	}

	logrus.WithField("uid", user.UID).Info("User profile created")
	return user, nil
}

// GetUserByID retrieves a profile by uid.
func (r *UserRepository) GetUserByID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("user %s", uid)
		}
		logrus.WithFields(logrus.Fields{
			"uid":   uid,
			"error": err,
		}).Warn("Failed to find user by uid")
		return nil, apperrors.Transientf("failed to find user by uid: %v", err)
	}
	return &user, nil
}

// UpdateUser applies a partial update to a profile.
func (r *UserRepository) UpdateUser(ctx context.Context, uid string, update map[string]interface{}) (*models.User, error) {
	update["updated_at"] = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var user models.User
	if err := result.Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("user %s", uid)
		}
		logrus.WithFields(logrus.Fields{
			"uid":   uid,
			"error": err,
		}).Error("Failed to update user")
		return nil, apperrors.Transientf("failed to update user: %v", err)
	}

	logrus.WithField("uid", uid).Info("User updated successfully")
	return &user, nil
}

// SetPresence flips the online flag and stamps the matching timestamp.
func (r *UserRepository) SetPresence(ctx context.Context, uid string, online bool) error {
	set := bson.M{"is_online": online}
	if online {
		set["last_login_at"] = time.Now()
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return apperrors.Transientf("failed to update presence for %s: %v", uid, err)
	}
	return nil
}

// TouchLastActive stamps the last-active time.
func (r *UserRepository) TouchLastActive(ctx context.Context, uid string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"last_active_at": time.Now()}})
	if err != nil {
		return apperrors.Transientf("failed to touch last-active for %s: %v", uid, err)
	}
	return nil
}

// MarkStaleOffline clears the online flag on users inactive since the
// given cutoff. Returns how many were flipped.
func (r *UserRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"is_online": true, "last_active_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"is_online": false}},
	)
	if err != nil {
		return 0, apperrors.Transientf("failed to mark stale users offline: %v", err)
	}
	return result.ModifiedCount, nil
}

// GetUsersByIDs fetches profiles for a list of uids (friend and
// request listings).
func (r *UserRepository) GetUsersByIDs(ctx context.Context, uids []string) ([]models.User, error) {
	if len(uids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch users by uids: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Transientf("failed to decode users: %v", err)
	}
	return users, nil
}

// ListPage returns one uid-ordered page of profiles matching the query.
func (r *UserRepository) ListPage(ctx context.Context, q PageQuery) ([]models.User, error) {
	filter := bson.M{}
	if q.Gender != "" && q.Gender != "all" {
		filter["gender"] = q.Gender
	}
	if q.Region != "" && q.Region != "all" {
		filter["region"] = q.Region
	}
	if q.MinBirthYear != 0 || q.MaxBirthYear != 0 {
		birthYear := bson.M{}
		if q.MinBirthYear != 0 {
			birthYear["$gte"] = q.MinBirthYear
		}
		if q.MaxBirthYear != 0 {
			birthYear["$lte"] = q.MaxBirthYear
		}
		filter["birth_year"] = birthYear
	}

	idBounds := bson.M{}
	if q.FromID != "" {
		idBounds["$gte"] = q.FromID
	}
	if q.AfterID != "" {
		idBounds["$gt"] = q.AfterID
	}
	if q.BeforeID != "" {
		idBounds["$lt"] = q.BeforeID
	}
	if len(idBounds) > 0 {
		filter["_id"] = idBounds
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(q.Limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to list users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Transientf("failed to decode user page: %v", err)
	}
	return users, nil
}

// GetAllUsers returns every profile. Administrative use only.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, apperrors.Transientf("failed to decode user: %v", err)
		}
		users = append(users, &user)
	}
	return users, nil
}

// Watch opens a change stream scoped to one user's document. The
// caller owns the stream and must close it.
func (r *UserRepository) Watch(ctx context.Context, uid string) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"documentKey._id": uid}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to open change stream for %s: %v", uid, err)
	}
	return stream, nil
}

// DeleteAllUsers wipes the collection. Administrative use only.
func (r *UserRepository) DeleteAllUsers(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Transientf("failed to delete users: %v", err)
	}
	logrus.Infof("Deleted %d user profiles", result.DeletedCount)
	return result.DeletedCount, nil
}
