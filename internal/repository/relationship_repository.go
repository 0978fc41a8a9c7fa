package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RelationshipRepository executes atomic updates spanning both sides of
// a user pair. Every relationship transition goes through UpdatePair so
// the two documents can never diverge: either both writes commit or
// neither does.
type RelationshipRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewRelationshipRepository(db *mongo.Database) *RelationshipRepository {
	return &RelationshipRepository{
		client:     db.Client(),
		collection: db.Collection("users"),
	}
}

// UpdatePair reads both users fresh inside a multi-document
// transaction, lets apply mutate their relationship arrays, and writes
// the arrays of both documents back atomically. The driver retries the
// whole callback on transient transaction errors, which covers the
// store's optimistic-concurrency conflicts. If apply returns an error
// the transaction aborts and nothing is written.
func (r *RelationshipRepository) UpdatePair(ctx context.Context, aID, bID string, apply func(a, b *models.User) error) error {
	if aID == bID {
		return apperrors.ErrSelfRelationship
	}

	session, err := r.client.StartSession()
	if err != nil {
		return apperrors.Transientf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		a, err := r.getForUpdate(sc, aID)
		if err != nil {
			return nil, err
		}
		b, err := r.getForUpdate(sc, bID)
		if err != nil {
			return nil, err
		}

		if err := apply(a, b); err != nil {
			return nil, err
		}

		now := time.Now()
		if err := r.writeRelationshipArrays(sc, a, now); err != nil {
			return nil, err
		}
		if err := r.writeRelationshipArrays(sc, b, now); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		// Application errors pass through untouched; everything else is
		// a store failure.
		if errors.Is(err, apperrors.ErrConflict) ||
			errors.Is(err, apperrors.ErrNotFound) ||
			errors.Is(err, apperrors.ErrValidation) {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"a":     aID,
			"b":     bID,
			"error": err,
		}).Error("Pair transaction failed")
		return apperrors.Transientf("pair transaction failed: %v", err)
	}
	return nil
}

func (r *RelationshipRepository) getForUpdate(sc mongo.SessionContext, uid string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(sc, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("user %s", uid)
		}
		return nil, apperrors.Transientf("failed to read user %s: %v", uid, err)
	}
	return &user, nil
}

func (r *RelationshipRepository) writeRelationshipArrays(sc mongo.SessionContext, u *models.User, now time.Time) error {
	_, err := r.collection.UpdateOne(sc,
		bson.M{"_id": u.UID},
		bson.M{"$set": bson.M{
			"friend_ids":        u.FriendIDs,
			"sent_requests":     u.SentRequests,
			"received_requests": u.ReceivedRequests,
			"updated_at":        now,
		}},
	)
	if err != nil {
		return apperrors.Transientf("failed to write relationship arrays for %s: %v", u.UID, err)
	}
	return nil
}
