package services

import (
	"context"
	"sort"
	"testing"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePairStore applies pair updates against an in-memory user map
// with the same atomicity contract as the Mongo transaction: either
// both sides commit or neither does.
type fakePairStore struct {
	users map[string]*models.User
}

func newFakePairStore(uids ...string) *fakePairStore {
	store := &fakePairStore{users: make(map[string]*models.User)}
	for _, uid := range uids {
		store.users[uid] = &models.User{
			UID:              uid,
			Nickname:         "nick-" + uid,
			Gender:           "male",
			FriendIDs:        []string{},
			SentRequests:     []string{},
			ReceivedRequests: []string{},
		}
	}
	return store
}

func (f *fakePairStore) UpdatePair(ctx context.Context, aID, bID string, apply func(a, b *models.User) error) error {
	if aID == bID {
		return apperrors.ErrSelfRelationship
	}
	a, ok := f.users[aID]
	if !ok {
		return apperrors.NotFoundf("user %s", aID)
	}
	b, ok := f.users[bID]
	if !ok {
		return apperrors.NotFoundf("user %s", bID)
	}

	aCopy := *a
	bCopy := *b
	if err := apply(&aCopy, &bCopy); err != nil {
		return err
	}
	f.users[aID] = &aCopy
	f.users[bID] = &bCopy
	return nil
}

func (f *fakePairStore) GetUserByID(ctx context.Context, uid string) (*models.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return nil, apperrors.NotFoundf("user %s", uid)
	}
	copied := *u
	return &copied, nil
}

func (f *fakePairStore) GetUsersByIDs(ctx context.Context, uids []string) ([]models.User, error) {
	var out []models.User
	for _, uid := range uids {
		if u, ok := f.users[uid]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type recordedEvent struct {
	userUID   string
	eventType string
	actorUID  string
}

type fakeNotifier struct {
	events []recordedEvent
}

func (f *fakeNotifier) NotifyFriendEvent(ctx context.Context, userUID, eventType, actorUID, actorNickname string) {
	f.events = append(f.events, recordedEvent{userUID: userUID, eventType: eventType, actorUID: actorUID})
}

func newRelationshipFixture(uids ...string) (*RelationshipService, *fakePairStore, *fakeNotifier) {
	store := newFakePairStore(uids...)
	notifier := &fakeNotifier{}
	svc := NewRelationshipService(store, store, nil, notifier)
	return svc, store, notifier
}

func TestSendRequest(t *testing.T) {
	svc, store, notifier := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))

	assert.Equal(t, []string{"bob"}, store.users["alice"].SentRequests)
	assert.Equal(t, []string{"alice"}, store.users["bob"].ReceivedRequests)
	assert.Empty(t, store.users["alice"].FriendIDs)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "bob", notifier.events[0].userUID)
	assert.Equal(t, "friend_request", notifier.events[0].eventType)
	assert.Equal(t, "alice", notifier.events[0].actorUID)
}

func TestSendRequestDuplicate(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	err := svc.SendRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, apperrors.ErrAlreadyRequested)

	// The failed attempt must not duplicate the entry.
	assert.Equal(t, []string{"bob"}, store.users["alice"].SentRequests)
	assert.Equal(t, []string{"alice"}, store.users["bob"].ReceivedRequests)
}

func TestSendRequestReverseAlreadyPending(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "bob", "alice"))
	err := svc.SendRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, apperrors.ErrReverseRequestExists)
}

func TestSendRequestToFriend(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob", "alice"))

	err := svc.SendRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, apperrors.ErrAlreadyFriends)
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice")
	err := svc.SendRequest(context.Background(), "alice", "alice")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAcceptRequest(t *testing.T) {
	svc, store, notifier := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob", "alice"))

	// Symmetric friendship, pending state fully cleared on both sides.
	assert.Equal(t, []string{"alice"}, store.users["bob"].FriendIDs)
	assert.Equal(t, []string{"bob"}, store.users["alice"].FriendIDs)
	assert.Empty(t, store.users["alice"].SentRequests)
	assert.Empty(t, store.users["bob"].ReceivedRequests)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, "request_accepted", notifier.events[1].eventType)
	assert.Equal(t, "alice", notifier.events[1].userUID)
}

func TestAcceptRequestWithoutPending(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")

	err := svc.AcceptRequest(context.Background(), "bob", "alice")
	require.ErrorIs(t, err, apperrors.ErrNoSuchRequest)
	assert.Empty(t, store.users["bob"].FriendIDs)
	assert.Empty(t, store.users["alice"].FriendIDs)
}

func TestCancelRequest(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.CancelRequest(ctx, "alice", "bob"))

	assert.Empty(t, store.users["alice"].SentRequests)
	assert.Empty(t, store.users["bob"].ReceivedRequests)
}

func TestCancelRequestAbsentIsNoOp(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob")
	require.NoError(t, svc.CancelRequest(context.Background(), "alice", "bob"))
}

func TestRejectRequest(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.RejectRequest(ctx, "bob", "alice"))

	assert.Empty(t, store.users["bob"].ReceivedRequests)
	assert.Empty(t, store.users["alice"].SentRequests)
	assert.Empty(t, store.users["bob"].FriendIDs)

	// Rejection leaves the pair free to try again.
	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
}

func TestRejectRequestAbsentIsNoOp(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob")
	require.NoError(t, svc.RejectRequest(context.Background(), "bob", "alice"))
}

func TestRemoveFriend(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob", "alice"))
	require.NoError(t, svc.RemoveFriend(ctx, "alice", "bob"))

	assert.Empty(t, store.users["alice"].FriendIDs)
	assert.Empty(t, store.users["bob"].FriendIDs)
}

func TestRemoveFriendNotFriends(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob")
	err := svc.RemoveFriend(context.Background(), "alice", "bob")
	require.ErrorIs(t, err, apperrors.ErrNotFriends)
}

func TestPendingCountExcludesFriends(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob", "carol")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "bob", "alice"))
	require.NoError(t, svc.SendRequest(ctx, "carol", "alice"))

	count, err := svc.PendingCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.AcceptRequest(ctx, "alice", "bob"))
	count, err = svc.PendingCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A received entry that is already a friend never counts, even if
	// the accept left it behind.
	store.users["alice"].ReceivedRequests = append(store.users["alice"].ReceivedRequests, "bob")
	count, err = svc.PendingCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPendingRequestsAndFriendsProfiles(t *testing.T) {
	svc, _, _ := newRelationshipFixture("alice", "bob", "carol")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "bob", "alice"))
	require.NoError(t, svc.SendRequest(ctx, "carol", "alice"))
	require.NoError(t, svc.AcceptRequest(ctx, "alice", "carol"))

	pending, err := svc.PendingRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].UID)
	assert.Equal(t, "nick-bob", pending[0].Nickname)
	assert.NotEmpty(t, pending[0].ProfileImageURL)

	friends, err := svc.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "carol", friends[0].UID)
}

func TestRelationshipStateTransitions(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob")
	ctx := context.Background()

	state := func(of, other string) models.RelationshipState {
		return store.users[of].RelationshipOf(other)
	}

	assert.Equal(t, models.RelationshipNone, state("alice", "bob"))

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	assert.Equal(t, models.RelationshipSent, state("alice", "bob"))
	assert.Equal(t, models.RelationshipReceived, state("bob", "alice"))

	require.NoError(t, svc.AcceptRequest(ctx, "bob", "alice"))
	assert.Equal(t, models.RelationshipFriends, state("alice", "bob"))
	assert.Equal(t, models.RelationshipFriends, state("bob", "alice"))

	require.NoError(t, svc.RemoveFriend(ctx, "bob", "alice"))
	assert.Equal(t, models.RelationshipNone, state("alice", "bob"))
	assert.Equal(t, models.RelationshipNone, state("bob", "alice"))
}

func TestFailedTransitionLeavesBothSidesUntouched(t *testing.T) {
	svc, store, _ := newRelationshipFixture("alice", "bob", "carol")
	ctx := context.Background()

	require.NoError(t, svc.SendRequest(ctx, "alice", "bob"))
	before := snapshotRelationships(store)

	require.Error(t, svc.SendRequest(ctx, "alice", "bob"))
	require.Error(t, svc.AcceptRequest(ctx, "alice", "carol"))
	require.Error(t, svc.RemoveFriend(ctx, "alice", "carol"))

	assert.Equal(t, before, snapshotRelationships(store))
}

func snapshotRelationships(store *fakePairStore) map[string][3][]string {
	snap := make(map[string][3][]string)
	uids := make([]string, 0, len(store.users))
	for uid := range store.users {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		u := store.users[uid]
		snap[uid] = [3][]string{
			append([]string{}, u.FriendIDs...),
			append([]string{}, u.SentRequests...),
			append([]string{}, u.ReceivedRequests...),
		}
	}
	return snap
}
