package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectRoomIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "alice_bob", DirectRoomID("alice", "bob"))
	assert.Equal(t, "alice_bob", DirectRoomID("bob", "alice"))
	assert.NotEqual(t, DirectRoomID("alice", "bob"), DirectRoomID("alice", "carol"))
}

func TestRelationshipOf(t *testing.T) {
	u := &User{
		UID:              "alice",
		FriendIDs:        []string{"bob"},
		SentRequests:     []string{"carol"},
		ReceivedRequests: []string{"dave"},
	}

	assert.Equal(t, RelationshipFriends, u.RelationshipOf("bob"))
	assert.Equal(t, RelationshipSent, u.RelationshipOf("carol"))
	assert.Equal(t, RelationshipReceived, u.RelationshipOf("dave"))
	assert.Equal(t, RelationshipNone, u.RelationshipOf("eve"))
}

func TestAgeRangeForGroups(t *testing.T) {
	min, max, err := AgeRangeForGroups("20-early", "30-late")
	require.NoError(t, err)
	assert.Equal(t, 20, min)
	assert.Equal(t, 39, max)

	min, max, err = AgeRangeForGroups("10-under", "60-plus")
	require.NoError(t, err)
	assert.Equal(t, 0, min)
	assert.Equal(t, 150, max)
}

func TestAgeRangeForGroupsRejectsBadInput(t *testing.T) {
	_, _, err := AgeRangeForGroups("20-early", "twenties")
	require.Error(t, err)

	_, _, err = AgeRangeForGroups("40-early", "20-late")
	require.Error(t, err)
}

func TestAgeGroupsAreOrdered(t *testing.T) {
	for i := 1; i < len(DetailedAgeGroups); i++ {
		prev, cur := DetailedAgeGroups[i-1], DetailedAgeGroups[i]
		assert.Equalf(t, prev.Max+1, cur.Min, "gap between %s and %s", prev.Value, cur.Value)
	}
}
