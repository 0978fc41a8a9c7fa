package services

import (
	"context"
	"fmt"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/sirupsen/logrus"
)

// PairStore runs an atomic read-modify-write over both sides of a user
// pair. Implemented by repository.RelationshipRepository.
type PairStore interface {
	UpdatePair(ctx context.Context, aID, bID string, apply func(a, b *models.User) error) error
}

// ProfileReader is the slice of the user repository the relationship
// service needs for derived reads.
type ProfileReader interface {
	GetUserByID(ctx context.Context, uid string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, uids []string) ([]models.User, error)
}

// Notifier fans out user-facing notifications. May be nil.
type Notifier interface {
	NotifyFriendEvent(ctx context.Context, userUID, eventType, actorUID, actorNickname string)
}

// RelationshipService is the single owner of relationship state. All
// five transitions run as atomic pair updates with preconditions
// checked against the freshly-read documents, so no call site can
// leave the two sides inconsistent.
type RelationshipService struct {
	pairs    PairStore
	users    ProfileReader
	images   *ImageService
	notifier Notifier
}

func NewRelationshipService(pairs PairStore, users ProfileReader, images *ImageService, notifier Notifier) *RelationshipService {
	return &RelationshipService{
		pairs:    pairs,
		users:    users,
		images:   images,
		notifier: notifier,
	}
}

// SendRequest records a pending friend request from sender to receiver.
func (s *RelationshipService) SendRequest(ctx context.Context, senderID, receiverID string) error {
	err := s.pairs.UpdatePair(ctx, senderID, receiverID, func(sender, receiver *models.User) error {
		if sender.HasFriend(receiver.UID) {
			return apperrors.ErrAlreadyFriends
		}
		if sender.HasSentRequestTo(receiver.UID) {
			return apperrors.ErrAlreadyRequested
		}
		if receiver.HasSentRequestTo(sender.UID) {
			return apperrors.ErrReverseRequestExists
		}

		sender.SentRequests = addToSet(sender.SentRequests, receiver.UID)
		receiver.ReceivedRequests = addToSet(receiver.ReceivedRequests, sender.UID)
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"sender":   senderID,
		"receiver": receiverID,
	}).Info("Friend request sent")
	s.notify(ctx, receiverID, "friend_request", senderID)
	return nil
}

// CancelRequest withdraws a pending request. Cancelling a request that
// no longer exists succeeds as a no-op: the end state the caller asked
// for already holds.
func (s *RelationshipService) CancelRequest(ctx context.Context, senderID, receiverID string) error {
	err := s.pairs.UpdatePair(ctx, senderID, receiverID, func(sender, receiver *models.User) error {
		sender.SentRequests = removeFromSet(sender.SentRequests, receiver.UID)
		receiver.ReceivedRequests = removeFromSet(receiver.ReceivedRequests, sender.UID)
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"sender":   senderID,
		"receiver": receiverID,
	}).Info("Friend request cancelled")
	return nil
}

// AcceptRequest turns a pending request from sender into a friendship.
// The accepter is the user who received the request.
func (s *RelationshipService) AcceptRequest(ctx context.Context, accepterID, senderID string) error {
	err := s.pairs.UpdatePair(ctx, accepterID, senderID, func(accepter, sender *models.User) error {
		if !accepter.HasReceivedRequestFrom(sender.UID) && !sender.HasSentRequestTo(accepter.UID) {
			return apperrors.ErrNoSuchRequest
		}

		accepter.ReceivedRequests = removeFromSet(accepter.ReceivedRequests, sender.UID)
		sender.SentRequests = removeFromSet(sender.SentRequests, accepter.UID)
		// Clear a reverse pending pair too, if one slipped in.
		accepter.SentRequests = removeFromSet(accepter.SentRequests, sender.UID)
		sender.ReceivedRequests = removeFromSet(sender.ReceivedRequests, accepter.UID)

		accepter.FriendIDs = addToSet(accepter.FriendIDs, sender.UID)
		sender.FriendIDs = addToSet(sender.FriendIDs, accepter.UID)
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"accepter": accepterID,
		"sender":   senderID,
	}).Info("Friend request accepted")
	s.notify(ctx, senderID, "request_accepted", accepterID)
	return nil
}

// RejectRequest declines a pending request from sender. Like cancel,
// rejecting an absent request is a successful no-op.
func (s *RelationshipService) RejectRequest(ctx context.Context, rejecterID, senderID string) error {
	err := s.pairs.UpdatePair(ctx, rejecterID, senderID, func(rejecter, sender *models.User) error {
		rejecter.ReceivedRequests = removeFromSet(rejecter.ReceivedRequests, sender.UID)
		sender.SentRequests = removeFromSet(sender.SentRequests, rejecter.UID)
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"rejecter": rejecterID,
		"sender":   senderID,
	}).Info("Friend request rejected")
	return nil
}

// RemoveFriend dissolves an existing friendship on both sides.
func (s *RelationshipService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	err := s.pairs.UpdatePair(ctx, userID, friendID, func(user, friend *models.User) error {
		if !user.HasFriend(friend.UID) {
			return apperrors.ErrNotFriends
		}
		user.FriendIDs = removeFromSet(user.FriendIDs, friend.UID)
		friend.FriendIDs = removeFromSet(friend.FriendIDs, user.UID)
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user":   userID,
		"friend": friendID,
	}).Info("Friend removed")
	return nil
}

// PendingCount returns the badge count: received requests not yet
// reflected as friendships. The set difference guards against a
// transiently stale received list right after an accept.
func (s *RelationshipService) PendingCount(ctx context.Context, uid string) (int, error) {
	user, err := s.users.GetUserByID(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("failed to load user for badge count: %w", err)
	}
	return PendingCountOf(user), nil
}

// PendingCountOf derives the badge count from an already-loaded record.
func PendingCountOf(user *models.User) int {
	count := 0
	for _, uid := range user.ReceivedRequests {
		if !user.HasFriend(uid) {
			count++
		}
	}
	return count
}

// PendingRequests returns the profiles of users whose requests await a
// decision, newest data first from the store's point of view.
func (s *RelationshipService) PendingRequests(ctx context.Context, uid string) ([]models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, requester := range user.ReceivedRequests {
		if !user.HasFriend(requester) {
			pending = append(pending, requester)
		}
	}
	return s.publicProfiles(ctx, pending)
}

// Friends returns the profiles of the user's friends.
func (s *RelationshipService) Friends(ctx context.Context, uid string) ([]models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.publicProfiles(ctx, user.FriendIDs)
}

func (s *RelationshipService) publicProfiles(ctx context.Context, uids []string) ([]models.PublicUser, error) {
	if len(uids) == 0 {
		return []models.PublicUser{}, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	profiles := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, s.toPublic(&u))
	}
	return profiles, nil
}

func (s *RelationshipService) toPublic(u *models.User) models.PublicUser {
	imageURL := DefaultImage(u.Gender)
	if s.images != nil {
		imageURL = s.images.ResolveProfileImageURL(u.ProfileImageRef, u.Gender)
	}
	return models.PublicUser{
		UID:             u.UID,
		Nickname:        u.Nickname,
		Bio:             u.Bio,
		Region:          u.Region,
		Gender:          u.Gender,
		BirthYear:       u.BirthYear,
		ProfileImageURL: imageURL,
	}
}

func (s *RelationshipService) notify(ctx context.Context, userUID, eventType, actorUID string) {
	if s.notifier == nil {
		return
	}
	actorNickname := actorUID
	if actor, err := s.users.GetUserByID(ctx, actorUID); err == nil {
		actorNickname = actor.Nickname
	}
	s.notifier.NotifyFriendEvent(ctx, userUID, eventType, actorUID, actorNickname)
}

func addToSet(ids []string, uid string) []string {
	for _, id := range ids {
		if id == uid {
			return ids
		}
	}
	return append(ids, uid)
}

func removeFromSet(ids []string, uid string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != uid {
			out = append(out, id)
		}
	}
	return out
}
